package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"autoplate-renamer/internal/domain/account"
	"autoplate-renamer/internal/renamer"
)

type LogService struct {
	logs   LogStore
	config *ConfigService
	log    zerolog.Logger
}

func NewLogService(logs LogStore, config *ConfigService, log zerolog.Logger) *LogService {
	return &LogService{logs: logs, config: config, log: log}
}

var _ renamer.LogSink = (*LogService)(nil)

// LogQuery is what a caller asked for; visibility rules are applied on top.
type LogQuery struct {
	UserID string
	From   *time.Time
	To     *time.Time
}

func (s *LogService) Create(ctx context.Context, caller account.Identity, req account.CreateLogRequest) (*account.ProcessingLog, error) {
	if strings.TrimSpace(req.OriginalName) == "" || strings.TrimSpace(req.NewName) == "" {
		return nil, fmt.Errorf("%w: originalName and newName are required", ErrInvalidInput)
	}
	username := req.Username
	if username == "" {
		username = caller.Username
	}
	if username == "" {
		username = caller.Email
	}
	entry := &account.ProcessingLog{
		UserID:       caller.UserID,
		Username:     username,
		OriginalName: req.OriginalName,
		NewName:      req.NewName,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create log: %w", err)
	}
	return entry, nil
}

// Record stores a rename made by the renamer, including what was read off
// the plate.
func (s *LogService) Record(ctx context.Context, rec renamer.Record) error {
	result := rec.Result
	entry := &account.ProcessingLog{
		UserID:       rec.UserID,
		Username:     rec.Username,
		OriginalName: rec.OriginalName,
		NewName:      rec.NewName,
		Details:      &result,
	}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("user_id", rec.UserID).Str("file", rec.OriginalName).Msg("failed to record processing log")
		return err
	}
	return nil
}

// filter applies visibility: non-admins only ever see their own entries.
func filter(caller account.Identity, q LogQuery) (account.LogFilter, error) {
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return account.LogFilter{}, fmt.Errorf("%w: from is after to", ErrInvalidInput)
	}
	f := account.LogFilter{From: q.From, To: q.To}
	switch {
	case !caller.IsAdmin():
		id := caller.UserID
		f.UserID = &id
	case q.UserID != "":
		id := q.UserID
		f.UserID = &id
	}
	return f, nil
}

func (s *LogService) List(ctx context.Context, caller account.Identity, q LogQuery) ([]account.ProcessingLog, error) {
	f, err := filter(caller, q)
	if err != nil {
		return nil, err
	}
	logs, err := s.logs.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return logs, nil
}

func (s *LogService) Summary(ctx context.Context, caller account.Identity, q LogQuery) (*account.LogSummary, error) {
	f, err := filter(caller, q)
	if err != nil {
		return nil, err
	}
	count, err := s.logs.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count logs: %w", err)
	}
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &account.LogSummary{
		Count:           count,
		PricePerRequest: cfg.PricePerRequest,
		TotalCost:       count * int64(cfg.PricePerRequest),
	}, nil
}
