package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/courtbook/libs/db"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/outbox"
)

// Store is the PostgreSQL backend for reservations, blocks and club config.
type Store struct {
	pool   *db.Pool
	outbox *outbox.Repository
	now    func() time.Time
}

func NewStore(pool *db.Pool, outboxRepo *outbox.Repository) *Store {
	return &Store{pool: pool, outbox: outboxRepo, now: time.Now}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, model.ErrNotFound)
}

// mapWriteErr turns constraint violations into domain errors.
func mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: slot already confirmed", model.ErrSlotNotFree)
	case errors.Is(err, pgx.ErrNoRows):
		return model.ErrNotFound
	default:
		return err
	}
}

// checkID rejects ids that cannot name a row before they reach the database.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: id %q", model.ErrNotFound, id)
	}
	return nil
}

func pgDate(d model.Date) time.Time { return d.At(time.UTC, 0) }

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func int32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func todPtr(v *int32) *model.TimeOfDay {
	if v == nil {
		return nil
	}
	t := model.TimeOfDay(*v)
	return &t
}

func todInt32Ptr(v *model.TimeOfDay) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func (s *Store) insertEvent(ctx context.Context, tx pgx.Tx, eventType string, rs []model.Reservation) error {
	if s.outbox == nil || len(rs) == 0 {
		return nil
	}
	evt, err := outbox.GroupEvent(eventType, rs, s.now())
	if err != nil {
		return err
	}
	return s.outbox.Insert(ctx, tx, evt)
}
