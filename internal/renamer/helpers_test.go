package renamer

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"autoplate-renamer/internal/domain/plate"
	"autoplate-renamer/internal/folder"
)

func jpeg(tag string) []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, tag...)
}

type testFS struct {
	t      *testing.T
	base   afero.Fs
	opener *folder.Opener
}

func newTestFS(t *testing.T, dirs ...string) *testFS {
	t.Helper()
	base := afero.NewMemMapFs()
	for _, d := range dirs {
		if err := base.MkdirAll("/root/"+d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return &testFS{t: t, base: base, opener: folder.NewOpener(base, "/root")}
}

func (f *testFS) open(rel string) *folder.Dir {
	f.t.Helper()
	d, err := f.opener.Open(rel)
	if err != nil {
		f.t.Fatalf("open %s: %v", rel, err)
	}
	return d
}

func (f *testFS) write(rel string, data []byte) {
	f.t.Helper()
	if err := afero.WriteFile(f.base, "/root/"+rel, data, 0o644); err != nil {
		f.t.Fatal(err)
	}
}

func (f *testFS) read(rel string) ([]byte, bool) {
	data, err := afero.ReadFile(f.base, "/root/"+rel)
	if err != nil {
		return nil, false
	}
	return data, true
}

// fakeAnalyzer answers by the decoded image content.
type fakeAnalyzer struct {
	mu      sync.Mutex
	results map[string]plate.AnalysisResult
	calls   int
	gate    chan struct{}
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, b64, mimeType string) (plate.AnalysisResult, error) {
	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return plate.AnalysisResult{}, ctx.Err()
		}
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return plate.AnalysisResult{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	r, ok := a.results[string(data)]
	if !ok {
		return plate.AnalysisResult{}, errors.New("no plate found")
	}
	return r, nil
}

type fakeSink struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (s *fakeSink) Record(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeSink) all() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

func newTestSession(t *testing.T, a Analyzer, sink LogSink) *Session {
	t.Helper()
	p := NewPipeline(a, sink, zerolog.Nop())
	s := NewSession(context.Background(), Owner{UserID: "u1", Username: "alice"}, p, zerolog.Nop())
	t.Cleanup(s.Close)
	return s
}

func waitFor(t *testing.T, s *Session, what string, cond func(View) bool) View {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		v := s.Snapshot()
		if cond(v) {
			return v
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; last snapshot: %+v", what, v)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func idle(v View) bool {
	if v.Processing {
		return false
	}
	for _, it := range v.Items {
		if it.Status == StatusIdle || it.Status == StatusProcessing {
			return false
		}
	}
	return true
}

func itemByName(t *testing.T, v View, name string) ItemView {
	t.Helper()
	for _, it := range v.Items {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("no item %q in %+v", name, v.Items)
	return ItemView{}
}

func (a *fakeAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// spyDir wraps a real folder, counting full reads and optionally failing
// removals.
type spyDir struct {
	*folder.Dir

	mu        sync.Mutex
	reads     map[string]int
	removeErr error
}

func newSpyDir(d *folder.Dir) *spyDir {
	return &spyDir{Dir: d, reads: map[string]int{}}
}

func (d *spyDir) ReadFile(name string) ([]byte, error) {
	d.mu.Lock()
	d.reads[name]++
	d.mu.Unlock()
	return d.Dir.ReadFile(name)
}

func (d *spyDir) Remove(name string) error {
	if d.removeErr != nil {
		return d.removeErr
	}
	return d.Dir.Remove(name)
}

func (d *spyDir) readCount(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads[name]
}
