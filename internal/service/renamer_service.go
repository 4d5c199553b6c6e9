package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"autoplate-renamer/internal/config"
	"autoplate-renamer/internal/domain/account"
	"autoplate-renamer/internal/folder"
	"autoplate-renamer/internal/renamer"
)

// ProfileUpdater persists a user's last chosen folders.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, id string, req account.UpdateProfileRequest) (*account.User, error)
}

// RenamerService owns one renamer session per user for the life of the
// process.
type RenamerService struct {
	ctx             context.Context
	opener          *folder.Opener
	pipeline        *renamer.Pipeline
	profiles        ProfileUpdater
	defaultInterval time.Duration
	log             zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*renamer.Session
}

// NewRenamerService ties session lifetimes to ctx.
func NewRenamerService(ctx context.Context, opener *folder.Opener, pipeline *renamer.Pipeline, profiles ProfileUpdater, defaultInterval time.Duration, log zerolog.Logger) *RenamerService {
	return &RenamerService{
		ctx:             ctx,
		opener:          opener,
		pipeline:        pipeline,
		profiles:        profiles,
		defaultInterval: defaultInterval,
		log:             log,
		sessions:        make(map[string]*renamer.Session),
	}
}

// WatchRequest toggles auto-watch; IntervalSeconds 0 means the default.
type WatchRequest struct {
	Enabled         bool `json:"enabled"`
	IntervalSeconds int  `json:"intervalSeconds"`
}

type FolderRequest struct {
	Path string `json:"path" binding:"required"`
}

func (s *RenamerService) session(caller account.Identity) *renamer.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[caller.UserID]
	if !ok {
		sess = renamer.NewSession(s.ctx, renamer.Owner{UserID: caller.UserID, Username: caller.Username}, s.pipeline, s.log)
		s.sessions[caller.UserID] = sess
	}
	return sess
}

func (s *RenamerService) openFolder(p string) (*folder.Dir, error) {
	dir, err := s.opener.Open(p)
	switch {
	case err == nil:
		return dir, nil
	case errors.Is(err, folder.ErrNotFound):
		return nil, fmt.Errorf("%w: folder %s", ErrNotFound, p)
	case errors.Is(err, folder.ErrOutsideRoot), errors.Is(err, folder.ErrNotDirectory):
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return nil, err
	}
}

// saveFolders records the choice on the profile; failure only costs the
// user a convenience, so it is logged and dropped.
func (s *RenamerService) saveFolders(ctx context.Context, caller account.Identity, req account.UpdateProfileRequest) {
	if _, err := s.profiles.UpdateProfile(ctx, caller.UserID, req); err != nil {
		s.log.Warn().Err(err).Str("user_id", caller.UserID).Msg("could not save folder preference")
	}
}

func (s *RenamerService) Snapshot(caller account.Identity) renamer.View {
	return s.session(caller).Snapshot()
}

// SetInput grants the input folder and scans it. It returns the number of
// photos queued.
func (s *RenamerService) SetInput(ctx context.Context, caller account.Identity, p string) (int, error) {
	dir, err := s.openFolder(p)
	if err != nil {
		return 0, err
	}
	n, err := s.session(caller).SetInput(ctx, dir)
	if err != nil && (errors.Is(err, renamer.ErrBusy) || errors.Is(err, renamer.ErrClosed)) {
		return 0, err
	}
	folderPath := dir.Path()
	s.saveFolders(ctx, caller, account.UpdateProfileRequest{InputFolderPath: &folderPath})
	return n, err
}

func (s *RenamerService) SetOutput(ctx context.Context, caller account.Identity, p string) error {
	dir, err := s.openFolder(p)
	if err != nil {
		return err
	}
	if err := s.session(caller).SetOutput(dir); err != nil {
		return err
	}
	folderPath := dir.Path()
	s.saveFolders(ctx, caller, account.UpdateProfileRequest{OutputFolderPath: &folderPath})
	return nil
}

func (s *RenamerService) Scan(ctx context.Context, caller account.Identity) (int, error) {
	return s.session(caller).Scan(ctx)
}

func (s *RenamerService) Process(caller account.Identity) error {
	return s.session(caller).Process()
}

func (s *RenamerService) SetWatch(caller account.Identity, req WatchRequest) error {
	sess := s.session(caller)
	if !req.Enabled {
		sess.StopWatch()
		return nil
	}
	interval := s.defaultInterval
	if req.IntervalSeconds != 0 {
		interval = time.Duration(req.IntervalSeconds) * time.Second
	}
	if err := config.ValidateWatchInterval(interval); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return sess.StartWatch(interval)
}

// Upload queues an ad-hoc photo under the base of name.
func (s *RenamerService) Upload(caller account.Identity, name string, data []byte) (renamer.ItemView, error) {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "" || name == "." || name == "/" {
		return renamer.ItemView{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if len(data) == 0 {
		return renamer.ItemView{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	return s.session(caller).AddUpload(name, data)
}

func (s *RenamerService) Reset(caller account.Identity) error {
	return s.session(caller).Reset()
}

// Subscribe returns change signals for the caller's session.
func (s *RenamerService) Subscribe(caller account.Identity) (<-chan struct{}, func()) {
	return s.session(caller).Subscribe()
}

// Close stops every session and waits for their background work.
func (s *RenamerService) Close() {
	s.mu.Lock()
	sessions := make([]*renamer.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*renamer.Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
	s.log.Info().Int("sessions", len(sessions)).Msg("renamer sessions closed")
}
