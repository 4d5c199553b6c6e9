package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"autoplate-renamer/internal/db"
	"autoplate-renamer/internal/domain/account"
	"autoplate-renamer/internal/repository"
)

type ConfigService struct {
	store        ConfigStore
	defaultPrice int
	log          zerolog.Logger
}

func NewConfigService(store ConfigStore, defaultPrice int, log zerolog.Logger) *ConfigService {
	return &ConfigService{store: store, defaultPrice: defaultPrice, log: log}
}

// Get falls back to the default price when nothing usable is stored.
func (s *ConfigService) Get(ctx context.Context) (account.SystemConfig, error) {
	raw, err := s.store.Get(ctx, db.PricePerRequestKey)
	if errors.Is(err, repository.ErrNotFound) {
		return account.SystemConfig{PricePerRequest: s.defaultPrice}, nil
	}
	if err != nil {
		return account.SystemConfig{}, fmt.Errorf("load config: %w", err)
	}
	price, err := strconv.Atoi(raw)
	if err != nil {
		s.log.Warn().Str("value", raw).Msg("stored price is not a number, using default")
		price = s.defaultPrice
	}
	return account.SystemConfig{PricePerRequest: price}, nil
}

func (s *ConfigService) Update(ctx context.Context, cfg account.SystemConfig) (account.SystemConfig, error) {
	if cfg.PricePerRequest < 0 {
		return account.SystemConfig{}, fmt.Errorf("%w: pricePerRequest must not be negative", ErrInvalidInput)
	}
	if err := s.store.Set(ctx, db.PricePerRequestKey, strconv.Itoa(cfg.PricePerRequest)); err != nil {
		return account.SystemConfig{}, fmt.Errorf("save config: %w", err)
	}
	s.log.Info().Int("price_per_request", cfg.PricePerRequest).Msg("system config updated")
	return cfg, nil
}
