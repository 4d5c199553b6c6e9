package renamer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"autoplate-renamer/internal/folder"
)

var (
	ErrRunInFlight   = errors.New("a processing run is already in progress")
	ErrFoldersNotSet = errors.New("input and output folders must be selected")
	ErrBusy          = errors.New("not allowed while processing or auto-watch is active")
	ErrDuplicateName = errors.New("a file with this name is already queued")
	ErrNotImage      = errors.New("file is not an image")
	ErrClosed        = errors.New("session closed")
)

const accessLostMessage = "Lost access to folder. Please select it again."

// Session is one user's renamer: the file collection, the chosen folders,
// the auto-watch loop and at most one processing run at a time.
type Session struct {
	owner    Owner
	pipeline *Pipeline
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	items     []*FileItem
	input     folder.Handle
	output    folder.Handle
	running   bool
	watching  bool
	interval  time.Duration
	stopWatch context.CancelFunc
	lastErr   string
	closed    bool
	subs      map[chan struct{}]struct{}
}

func NewSession(parent context.Context, owner Owner, pipeline *Pipeline, log zerolog.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		owner:    owner,
		pipeline: pipeline,
		log:      log.With().Str("user_id", owner.UserID).Logger(),
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[chan struct{}]struct{}),
	}
}

func (s *Session) hasUploadsLocked() bool {
	for _, it := range s.items {
		if !it.FromSource {
			return true
		}
	}
	return false
}

func (s *Session) hasIdleLocked() bool {
	for _, it := range s.items {
		if it.status == StatusIdle {
			return true
		}
	}
	return false
}

func (s *Session) knownNamesLocked() map[string]struct{} {
	known := make(map[string]struct{}, len(s.items))
	for _, it := range s.items {
		known[it.Name] = struct{}{}
	}
	return known
}

// SetInput selects the input folder and scans it once. It returns how many
// new photos were queued.
func (s *Session) SetInput(ctx context.Context, h folder.Handle) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrClosed
	}
	if s.running || s.watching || s.hasUploadsLocked() {
		s.mu.Unlock()
		return 0, ErrBusy
	}
	s.input = h
	s.lastErr = ""
	s.notifyLocked()
	s.mu.Unlock()

	return s.Scan(ctx)
}

func (s *Session) SetOutput(h folder.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.running || s.watching {
		return ErrBusy
	}
	s.output = h
	s.lastErr = ""
	s.notifyLocked()
	return nil
}

// Scan queues new photos from the input folder. When the folder is lost,
// auto-watch is switched off and the session carries a message for the
// user; the error is returned as well.
func (s *Session) Scan(ctx context.Context) (int, error) {
	s.mu.Lock()
	input := s.input
	known := s.knownNamesLocked()
	s.mu.Unlock()

	if input == nil {
		return 0, ErrFoldersNotSet
	}

	found, err := Scan(ctx, input, known)
	if err != nil {
		if errors.Is(err, folder.ErrAccessLost) {
			s.mu.Lock()
			s.stopWatchLocked()
			s.lastErr = accessLostMessage
			s.notifyLocked()
			s.mu.Unlock()
			s.log.Error().Err(err).Str("folder", input.Name()).Msg("lost access to input folder")
		}
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// items may have arrived while we were reading
	latest := s.knownNamesLocked()
	added := 0
	for _, it := range found {
		if _, dup := latest[it.Name]; dup {
			continue
		}
		latest[it.Name] = struct{}{}
		s.items = append(s.items, it)
		added++
	}
	if added > 0 {
		s.log.Info().Int("count", added).Str("folder", input.Name()).Msg("queued new photos")
		s.notifyLocked()
		s.kickLocked()
	}
	return added, nil
}

// AddUpload queues a photo that did not come from the input folder.
func (s *Session) AddUpload(name string, data []byte) (ItemView, error) {
	mimeType := detectMime(data)
	if !isImage(mimeType) {
		return ItemView{}, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ItemView{}, ErrClosed
	}
	if _, dup := s.knownNamesLocked()[name]; dup {
		return ItemView{}, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	it := newFileItem(uuid.NewString(), name, mimeType, data, false)
	s.items = append(s.items, it)
	s.notifyLocked()
	s.kickLocked()
	return it.view(), nil
}

// Process starts a run over the idle items in the background.
func (s *Session) Process() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.output == nil {
		return ErrFoldersNotSet
	}
	if !s.startRunLocked() {
		return ErrRunInFlight
	}
	return nil
}

// startRunLocked is the only way a run begins; running is the guard that
// keeps runs from overlapping.
func (s *Session) startRunLocked() bool {
	if s.running || s.closed {
		return false
	}
	s.running = true
	s.wg.Add(1)
	s.notifyLocked()
	go s.runLoop()
	return true
}

// kickLocked starts a run when auto-watch is on and there is idle work.
func (s *Session) kickLocked() {
	if s.watching && s.output != nil && s.hasIdleLocked() {
		s.startRunLocked()
	}
}

func (s *Session) runLoop() {
	defer s.wg.Done()
	for {
		s.runBatch()

		s.mu.Lock()
		if s.watching && !s.closed && s.output != nil && s.hasIdleLocked() {
			s.mu.Unlock()
			continue
		}
		s.running = false
		s.notifyLocked()
		s.mu.Unlock()
		return
	}
}

func (s *Session) runBatch() {
	s.mu.Lock()
	input, output := s.input, s.output
	var pending []*FileItem
	for _, it := range s.items {
		if it.status == StatusIdle {
			pending = append(pending, it)
		}
	}
	s.mu.Unlock()

	if output == nil {
		return
	}
	sameFolder := input != nil && input.SameEntry(output)

	for _, it := range pending {
		s.mu.Lock()
		ok := it.markProcessing()
		s.notifyLocked()
		s.mu.Unlock()
		if !ok {
			continue
		}

		result, newName, err := s.pipeline.run(s.ctx, job{
			owner:      s.owner,
			item:       it,
			input:      input,
			output:     output,
			sameFolder: sameFolder,
		})

		s.mu.Lock()
		if err != nil {
			it.fail(err.Error())
		} else {
			it.complete(result, newName)
		}
		s.notifyLocked()
		s.mu.Unlock()

		if err != nil {
			s.log.Warn().Err(err).Str("file", it.Name).Msg("photo failed")
		} else {
			s.log.Info().Str("file", it.Name).Str("new_name", newName).Msg("photo renamed")
		}
	}
}

// StartWatch turns on auto-watch: a scan now and every interval after,
// with processing started whenever idle work appears. Calling it again
// restarts the loop with the new interval.
func (s *Session) StartWatch(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s", interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.input == nil || s.output == nil {
		return ErrFoldersNotSet
	}
	s.stopWatchLocked()

	ctx, cancel := context.WithCancel(s.ctx)
	s.watching = true
	s.interval = interval
	s.stopWatch = cancel
	s.lastErr = ""
	s.wg.Add(1)
	go s.watchLoop(ctx, interval)
	s.notifyLocked()
	s.kickLocked()
	return nil
}

// StopWatch turns auto-watch off. A run in progress finishes.
func (s *Session) StopWatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWatchLocked()
	s.notifyLocked()
}

func (s *Session) stopWatchLocked() {
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	s.watching = false
}

func (s *Session) watchLoop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Scan(ctx); err != nil && !errors.Is(err, context.Canceled) {
			if errors.Is(err, folder.ErrAccessLost) {
				return
			}
			s.log.Warn().Err(err).Msg("scan failed")
		}
		s.mu.Lock()
		s.kickLocked()
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Reset drops every item and releases the input folder.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.watching {
		return ErrBusy
	}
	s.items = nil
	s.input = nil
	s.lastErr = ""
	s.notifyLocked()
	return nil
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce; call the returned func to unsubscribe.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}

func (s *Session) notifyLocked() {
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close stops auto-watch, cancels any run and waits for background work.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopWatchLocked()
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

type View struct {
	InputFolder     string     `json:"inputFolder,omitempty"`
	OutputFolder    string     `json:"outputFolder,omitempty"`
	AutoWatch       bool       `json:"autoWatch"`
	IntervalSeconds int        `json:"intervalSeconds,omitempty"`
	Processing      bool       `json:"processing"`
	Error           string     `json:"error,omitempty"`
	Items           []ItemView `json:"items"`
	Completed       int        `json:"completed"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		AutoWatch:  s.watching,
		Processing: s.running,
		Error:      s.lastErr,
		Items:      make([]ItemView, 0, len(s.items)),
	}
	if s.input != nil {
		v.InputFolder = s.input.Name()
	}
	if s.output != nil {
		v.OutputFolder = s.output.Name()
	}
	if s.watching {
		v.IntervalSeconds = int(s.interval / time.Second)
	}
	for _, it := range s.items {
		if it.status == StatusCompleted {
			v.Completed++
		}
		v.Items = append(v.Items, it.view())
	}
	return v
}
