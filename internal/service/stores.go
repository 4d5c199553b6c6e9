package service

import (
	"context"

	"autoplate-renamer/internal/domain/account"
)

// UserStore is satisfied by *repository.UserRepository.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*account.User, string, error)
	FindByID(ctx context.Context, id string) (*account.User, error)
	List(ctx context.Context) ([]account.User, error)
	Create(ctx context.Context, u *account.User, passwordHash string) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role account.Role) (int64, error)
}

// LogStore is satisfied by *repository.LogRepository.
type LogStore interface {
	Create(ctx context.Context, entry *account.ProcessingLog) error
	List(ctx context.Context, f account.LogFilter) ([]account.ProcessingLog, error)
	Count(ctx context.Context, f account.LogFilter) (int64, error)
}

// ConfigStore is satisfied by *repository.ConfigRepository.
type ConfigStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
