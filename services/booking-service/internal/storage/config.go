package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

// Config returns the club configuration. A missing row or unparsable hours
// yield ErrWindowMisconfigured.
func (s *Store) Config(ctx context.Context) (model.ClubConfig, error) {
	return loadConfig(ctx, s.pool)
}

func loadConfig(ctx context.Context, q querier) (model.ClubConfig, error) {
	var opens, closes string
	var slotMinutes int32
	var deposit int64
	err := q.QueryRow(ctx, `
		SELECT opens_at, closes_at, slot_minutes, deposit_cents
		FROM club_config
		WHERE id = 1
	`).Scan(&opens, &closes, &slotMinutes, &deposit)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ClubConfig{}, fmt.Errorf("%w: no club_config row", model.ErrWindowMisconfigured)
	}
	if err != nil {
		return model.ClubConfig{}, err
	}

	cfg := model.ClubConfig{DepositCents: deposit}
	if cfg.Window.OpensAt, err = model.ParseTimeOfDay(opens); err != nil {
		return cfg, fmt.Errorf("%w: opens_at: %v", model.ErrWindowMisconfigured, err)
	}
	if cfg.Window.ClosesAt, err = model.ParseTimeOfDay(closes); err != nil {
		return cfg, fmt.Errorf("%w: closes_at: %v", model.ErrWindowMisconfigured, err)
	}
	cfg.Window.SlotMinutes = int(slotMinutes)
	return cfg, cfg.Window.Validate()
}

func (s *Store) UpdateConfig(ctx context.Context, cfg model.ClubConfig) error {
	if err := cfg.Window.Validate(); err != nil {
		return err
	}
	if cfg.DepositCents < 0 {
		return fmt.Errorf("%w: negative deposit", model.ErrInvalidInput)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO club_config (id, opens_at, closes_at, slot_minutes, deposit_cents, updated_at)
		VALUES (1, $1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET opens_at = EXCLUDED.opens_at,
		    closes_at = EXCLUDED.closes_at,
		    slot_minutes = EXCLUDED.slot_minutes,
		    deposit_cents = EXCLUDED.deposit_cents,
		    updated_at = now()
	`, cfg.Window.OpensAt.String(), cfg.Window.ClosesAt.String(), int32(cfg.Window.SlotMinutes), cfg.DepositCents)
	return err
}
