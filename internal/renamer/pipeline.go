package renamer

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"

	"autoplate-renamer/internal/domain/plate"
	"autoplate-renamer/internal/folder"
)

// Analyzer reads a plate off one base64 encoded image.
type Analyzer interface {
	Analyze(ctx context.Context, base64Data, mimeType string) (plate.AnalysisResult, error)
}

// Record is one completed rename, as handed to the log sink.
type Record struct {
	UserID       string
	Username     string
	OriginalName string
	NewName      string
	Result       plate.AnalysisResult
}

type LogSink interface {
	Record(ctx context.Context, rec Record) error
}

// Owner identifies the user a session works for.
type Owner struct {
	UserID   string
	Username string
}

type Pipeline struct {
	analyzer Analyzer
	sink     LogSink
	log      zerolog.Logger
}

func NewPipeline(analyzer Analyzer, sink LogSink, log zerolog.Logger) *Pipeline {
	return &Pipeline{analyzer: analyzer, sink: sink, log: log}
}

// job is everything one item run needs; it is captured under the session
// lock and then processed without it.
type job struct {
	owner      Owner
	item       *FileItem
	input      folder.Handle
	output     folder.Handle
	sameFolder bool
}

// run takes one item from processing to a result. Any error leaves the
// remaining steps undone. Deleting the original is best effort.
func (p *Pipeline) run(ctx context.Context, j job) (plate.AnalysisResult, string, error) {
	item := j.item
	encoded := base64.StdEncoding.EncodeToString(item.Data())

	result, err := p.analyzer.Analyze(ctx, encoded, item.MimeType)
	if err != nil {
		return plate.AnalysisResult{}, "", err
	}

	newName := GenerateNewFilename(item.Name, result)

	if err := WriteWithBackup(j.output, newName, item.Data()); err != nil {
		return plate.AnalysisResult{}, "", err
	}

	if item.FromSource && j.input != nil && (!j.sameFolder || item.Name != newName) {
		if err := j.input.Remove(item.Name); err != nil {
			p.log.Debug().Err(err).Str("file", item.Name).Msg("could not remove original")
		}
	}

	rec := Record{
		UserID:       j.owner.UserID,
		Username:     j.owner.Username,
		OriginalName: item.Name,
		NewName:      newName,
		Result:       result,
	}
	if err := p.sink.Record(ctx, rec); err != nil {
		return plate.AnalysisResult{}, "", fmt.Errorf("record log: %w", err)
	}
	return result, newName, nil
}
