package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"autoplate-renamer/internal/db"
	"autoplate-renamer/internal/domain/account"
)

func TestConfigService(t *testing.T) {
	ctx := context.Background()
	store := &fakeConfigStore{}
	svc := NewConfigService(store, 1000, zerolog.Nop())

	cfg, err := svc.Get(ctx)
	if err != nil || cfg.PricePerRequest != 1000 {
		t.Fatalf("default = %+v, %v", cfg, err)
	}

	if _, err := svc.Update(ctx, account.SystemConfig{PricePerRequest: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative price = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Update(ctx, account.SystemConfig{PricePerRequest: 2500}); err != nil {
		t.Fatal(err)
	}
	if store.values[db.PricePerRequestKey] != "2500" {
		t.Errorf("stored = %q", store.values[db.PricePerRequestKey])
	}
	cfg, err = svc.Get(ctx)
	if err != nil || cfg.PricePerRequest != 2500 {
		t.Errorf("after update = %+v, %v", cfg, err)
	}

	store.values[db.PricePerRequestKey] = "lots"
	cfg, err = svc.Get(ctx)
	if err != nil || cfg.PricePerRequest != 1000 {
		t.Errorf("unparsable = %+v, %v", cfg, err)
	}
}
