package renamer

import (
	"autoplate-renamer/internal/domain/plate"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// FileItem is one photo under management. Its state only moves
// idle -> processing -> completed|error, through the methods below, so a
// completed item always has a result and a new name and an errored one
// always has a message.
type FileItem struct {
	ID       string
	Name     string
	MimeType string
	// FromSource is true when the photo came from the input folder rather
	// than an upload; only those originals are ever deleted.
	FromSource bool

	data []byte

	status  Status
	result  *plate.AnalysisResult
	newName string
	errMsg  string
}

func newFileItem(id, name, mimeType string, data []byte, fromSource bool) *FileItem {
	return &FileItem{
		ID:         id,
		Name:       name,
		MimeType:   mimeType,
		FromSource: fromSource,
		data:       data,
		status:     StatusIdle,
	}
}

func (f *FileItem) Status() Status { return f.status }

func (f *FileItem) Data() []byte { return f.data }

// NewName is empty unless the item completed.
func (f *FileItem) NewName() string { return f.newName }

func (f *FileItem) Result() (plate.AnalysisResult, bool) {
	if f.result == nil {
		return plate.AnalysisResult{}, false
	}
	return *f.result, true
}

func (f *FileItem) ErrorMessage() string { return f.errMsg }

func (f *FileItem) markProcessing() bool {
	if f.status != StatusIdle {
		return false
	}
	f.status = StatusProcessing
	return true
}

func (f *FileItem) complete(result plate.AnalysisResult, newName string) {
	f.status = StatusCompleted
	f.result = &result
	f.newName = newName
	f.errMsg = ""
}

func (f *FileItem) fail(msg string) {
	if msg == "" {
		msg = "processing failed"
	}
	f.status = StatusError
	f.result = nil
	f.newName = ""
	f.errMsg = msg
}

type ItemView struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	MimeType     string                `json:"mimeType"`
	Size         int                   `json:"size"`
	FromSource   bool                  `json:"fromSource"`
	Status       Status                `json:"status"`
	Result       *plate.AnalysisResult `json:"result,omitempty"`
	NewName      string                `json:"newName,omitempty"`
	ErrorMessage string                `json:"errorMessage,omitempty"`
}

func (f *FileItem) view() ItemView {
	v := ItemView{
		ID:           f.ID,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         len(f.data),
		FromSource:   f.FromSource,
		Status:       f.status,
		NewName:      f.newName,
		ErrorMessage: f.errMsg,
	}
	if f.result != nil {
		r := *f.result
		v.Result = &r
	}
	return v
}
