package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

const fixedBlockColumns = `id::text, court_id, weekdays, from_minute, to_minute, active, label, reason`

const adhocBlockColumns = `id::text, court_id, date_from, date_to, from_minute, to_minute, reason, kind`

func queryFixedBlocks(ctx context.Context, q querier, sql string, args ...any) ([]model.FixedBlock, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.FixedBlock, error) {
		var (
			b        model.FixedBlock
			court    *int32
			weekdays []int32
			from, to int32
		)
		if err := row.Scan(&b.ID, &court, &weekdays, &from, &to, &b.Active, &b.Label, &b.Reason); err != nil {
			return b, err
		}
		b.Court = intPtr(court)
		b.From, b.To = model.TimeOfDay(from), model.TimeOfDay(to)
		for _, d := range weekdays {
			b.Weekdays = append(b.Weekdays, int(d))
		}
		return b, nil
	})
}

func queryAdHocBlocks(ctx context.Context, q querier, sql string, args ...any) ([]model.AdHocBlock, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AdHocBlock, error) {
		var (
			b          model.AdHocBlock
			court      *int32
			dFrom, dTo time.Time
			from, to   *int32
			kind       string
		)
		if err := row.Scan(&b.ID, &court, &dFrom, &dTo, &from, &to, &b.Reason, &kind); err != nil {
			return b, err
		}
		b.Court = intPtr(court)
		b.DateFrom, b.DateTo = model.DateOf(dFrom), model.DateOf(dTo)
		b.From, b.To = todPtr(from), todPtr(to)
		b.Kind = model.BlockKind(kind)
		return b, nil
	})
}

func (s *Store) CreateFixedBlock(ctx context.Context, b model.FixedBlock) (model.FixedBlock, error) {
	if err := b.Validate(); err != nil {
		return b, err
	}
	weekdays := make([]int32, len(b.Weekdays))
	for i, d := range b.Weekdays {
		weekdays[i] = int32(d)
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO fixed_blocks (court_id, weekdays, from_minute, to_minute, active, label, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text
	`, int32Ptr(b.Court), weekdays, int32(b.From), int32(b.To), b.Active, b.Label, b.Reason).Scan(&b.ID)
	return b, err
}

// ListFixedBlocks includes inactive blocks so staff can re-enable them.
func (s *Store) ListFixedBlocks(ctx context.Context) ([]model.FixedBlock, error) {
	return queryFixedBlocks(ctx, s.pool, `SELECT `+fixedBlockColumns+` FROM fixed_blocks ORDER BY created_at`)
}

func (s *Store) SetFixedBlockActive(ctx context.Context, id string, active bool) error {
	if err := checkID(id); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE fixed_blocks SET active = $2 WHERE id = $1::uuid`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteFixedBlock(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM fixed_blocks WHERE id = $1::uuid`, id)
}

func (s *Store) CreateAdHocBlock(ctx context.Context, b model.AdHocBlock) (model.AdHocBlock, error) {
	if b.Kind == "" {
		b.Kind = model.BlockOther
	}
	if err := b.Validate(); err != nil {
		return b, err
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO adhoc_blocks (court_id, date_from, date_to, from_minute, to_minute, reason, kind)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text
	`, int32Ptr(b.Court), pgDate(b.DateFrom), pgDate(b.DateTo), todInt32Ptr(b.From), todInt32Ptr(b.To),
		b.Reason, string(b.Kind)).Scan(&b.ID)
	return b, err
}

// ListAdHocBlocks returns blocks overlapping [from, to].
func (s *Store) ListAdHocBlocks(ctx context.Context, from, to model.Date) ([]model.AdHocBlock, error) {
	return queryAdHocBlocks(ctx, s.pool, `
		SELECT `+adhocBlockColumns+`
		FROM adhoc_blocks
		WHERE date_from <= $2 AND date_to >= $1
		ORDER BY date_from, created_at
	`, pgDate(from), pgDate(to))
}

func (s *Store) DeleteAdHocBlock(ctx context.Context, id string) error {
	return s.deleteByID(ctx, `DELETE FROM adhoc_blocks WHERE id = $1::uuid`, id)
}

func (s *Store) deleteByID(ctx context.Context, sql, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, sql, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
