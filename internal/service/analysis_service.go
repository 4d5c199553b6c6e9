package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"autoplate-renamer/internal/domain/plate"
	"autoplate-renamer/internal/renamer"
)

// AnalysisService exposes the analyzer directly, for clients that rename
// on their own side.
type AnalysisService struct {
	analyzer renamer.Analyzer
	log      zerolog.Logger
}

func NewAnalysisService(analyzer renamer.Analyzer, log zerolog.Logger) *AnalysisService {
	return &AnalysisService{analyzer: analyzer, log: log}
}

func (s *AnalysisService) Analyze(ctx context.Context, req plate.AnalyzeRequest) (plate.AnalysisResult, error) {
	data := req.Base64Data
	// accept data URLs as produced by FileReader.readAsDataURL
	if strings.HasPrefix(data, "data:") {
		if i := strings.Index(data, ","); i >= 0 {
			data = data[i+1:]
		}
	}
	if data == "" || req.MimeType == "" {
		return plate.AnalysisResult{}, fmt.Errorf("%w: missing base64Data or mimeType", ErrInvalidInput)
	}
	if !strings.HasPrefix(req.MimeType, "image/") {
		return plate.AnalysisResult{}, fmt.Errorf("%w: %s is not an image type", ErrInvalidInput, req.MimeType)
	}

	result, err := s.analyzer.Analyze(ctx, data, req.MimeType)
	if err != nil {
		s.log.Error().Err(err).Str("mime_type", req.MimeType).Msg("analysis failed")
		return plate.AnalysisResult{}, err
	}
	return result, nil
}
