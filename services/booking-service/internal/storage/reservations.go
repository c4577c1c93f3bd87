package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/outbox"
)

const reservationColumns = `
	id::text, court_id, business_date, start_minute, status, COALESCE(group_id::text, ''),
	customer_name, customer_phone, user_id, created_at`

func scanReservation(row pgx.CollectableRow) (model.Reservation, error) {
	var (
		r      model.Reservation
		court  int32
		date   time.Time
		start  int32
		status string
	)
	err := row.Scan(&r.ID, &court, &date, &start, &status, &r.GroupID,
		&r.CustomerName, &r.CustomerPhone, &r.UserID, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	r.Court = int(court)
	r.Date = model.DateOf(date)
	r.Start = model.TimeOfDay(start)
	r.Status = model.Status(status)
	return r, nil
}

func queryReservations(ctx context.Context, q querier, sql string, args ...any) ([]model.Reservation, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanReservation)
}

// Snapshot loads the reservations and blocks relevant to date. Court 0 loads
// every court.
func (s *Store) Snapshot(ctx context.Context, date model.Date, court int) (model.Snapshot, error) {
	return loadSnapshot(ctx, s.pool, date, court)
}

func loadSnapshot(ctx context.Context, q querier, date model.Date, court int) (model.Snapshot, error) {
	var snap model.Snapshot
	var err error
	snap.Reservations, err = queryReservations(ctx, q, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE business_date = $1 AND ($2 = 0 OR court_id = $2)
		ORDER BY court_id, start_minute, created_at
	`, pgDate(date), int32(court))
	if err != nil {
		return snap, err
	}
	snap.FixedBlocks, err = queryFixedBlocks(ctx, q, `
		SELECT `+fixedBlockColumns+`
		FROM fixed_blocks
		WHERE active AND ($1 = 0 OR court_id IS NULL OR court_id = $1)
		ORDER BY created_at
	`, int32(court))
	if err != nil {
		return snap, err
	}
	snap.AdHocBlocks, err = queryAdHocBlocks(ctx, q, `
		SELECT `+adhocBlockColumns+`
		FROM adhoc_blocks
		WHERE date_from <= $1 AND date_to >= $1
		  AND ($2 = 0 OR court_id IS NULL OR court_id = $2)
		ORDER BY created_at
	`, pgDate(date), int32(court))
	return snap, err
}

// CreateReservationGroup writes every record of g or none. The court/date
// advisory lock serialises concurrent bookings of the same day, and recheck
// runs against a snapshot read under that lock.
func (s *Store) CreateReservationGroup(ctx context.Context, g model.GroupRequest, recheck func(model.OperatingWindow, model.Snapshot) error) (model.GroupResult, error) {
	res := model.GroupResult{GroupID: g.GroupID, Status: g.Status}
	err := s.pool.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1::int, $2::int)`, int32(g.Court), int32(g.Date.DayNumber())); err != nil {
			return err
		}
		if recheck != nil {
			cfg, err := loadConfig(ctx, tx)
			if err != nil {
				return err
			}
			snap, err := loadSnapshot(ctx, tx, g.Date, g.Court)
			if err != nil {
				return err
			}
			if err := recheck(cfg.Window, snap); err != nil {
				return err
			}
		}

		created := make([]model.Reservation, 0, len(g.Starts))
		for _, start := range g.Starts {
			r := model.Reservation{
				Court:         g.Court,
				Date:          g.Date,
				Start:         start,
				Status:        g.Status,
				GroupID:       g.GroupID,
				CustomerName:  g.Customer.Name,
				CustomerPhone: g.Customer.Phone,
				UserID:        g.Customer.UserID,
			}
			err := tx.QueryRow(ctx, `
				INSERT INTO reservations (court_id, business_date, start_minute, status, group_id, customer_name, customer_phone, user_id)
				VALUES ($1, $2, $3, $4, $5::uuid, $6, $7, $8)
				RETURNING id::text, created_at
			`, int32(r.Court), pgDate(r.Date), int32(r.Start), string(r.Status), r.GroupID,
				r.CustomerName, r.CustomerPhone, r.UserID).Scan(&r.ID, &r.CreatedAt)
			if err != nil {
				return mapWriteErr(err)
			}
			created = append(created, r)
			res.ReservationIDs = append(res.ReservationIDs, r.ID)
		}
		return s.insertEvent(ctx, tx, outbox.EventGroupCreated, created)
	})
	if err != nil {
		return model.GroupResult{}, err
	}
	return res, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	if err := checkID(id); err != nil {
		return model.Reservation{}, err
	}
	rs, err := queryReservations(ctx, s.pool, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1::uuid`, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if len(rs) == 0 {
		return model.Reservation{}, model.ErrNotFound
	}
	return rs[0], nil
}

// SetStatus moves the reservation and the rest of its group to status.
func (s *Store) SetStatus(ctx context.Context, id string, status model.Status) ([]model.Reservation, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var out []model.Reservation
	err := s.pool.InTx(ctx, func(tx pgx.Tx) error {
		rs, err := queryReservations(ctx, tx, `
			SELECT `+reservationColumns+`
			FROM reservations
			WHERE id = $1::uuid
			   OR group_id = (SELECT group_id FROM reservations WHERE id = $1::uuid AND group_id IS NOT NULL)
			ORDER BY start_minute
			FOR UPDATE
		`, id)
		if err != nil {
			return err
		}
		out, err = s.transition(ctx, tx, rs, status)
		return err
	})
	return out, err
}

func (s *Store) SetGroupStatus(ctx context.Context, groupID string, status model.Status) ([]model.Reservation, error) {
	if err := checkID(groupID); err != nil {
		return nil, err
	}
	var out []model.Reservation
	err := s.pool.InTx(ctx, func(tx pgx.Tx) error {
		rs, err := queryReservations(ctx, tx, `
			SELECT `+reservationColumns+`
			FROM reservations
			WHERE group_id = $1::uuid
			ORDER BY start_minute
			FOR UPDATE
		`, groupID)
		if err != nil {
			return err
		}
		out, err = s.transition(ctx, tx, rs, status)
		return err
	})
	return out, err
}

func (s *Store) transition(ctx context.Context, tx pgx.Tx, rs []model.Reservation, status model.Status) ([]model.Reservation, error) {
	if len(rs) == 0 {
		return nil, model.ErrNotFound
	}
	changed := false
	for _, r := range rs {
		if !r.Status.CanTransition(status) {
			return nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, r.Status, status)
		}
		changed = changed || r.Status != status
	}
	if !changed {
		return rs, nil
	}
	ids := make([]string, len(rs))
	for i := range rs {
		ids[i] = rs[i].ID
		rs[i].Status = status
	}
	if _, err := tx.Exec(ctx, `
		UPDATE reservations SET status = $2, updated_at = now()
		WHERE id = ANY($1::text[]::uuid[])
	`, ids, string(status)); err != nil {
		return nil, mapWriteErr(err)
	}
	eventType := outbox.EventGroupConfirmed
	if status == model.StatusCancelled {
		eventType = outbox.EventGroupCancelled
	}
	return rs, s.insertEvent(ctx, tx, eventType, rs)
}

func (s *Store) DeleteReservation(ctx context.Context, id string) (model.Reservation, error) {
	if err := checkID(id); err != nil {
		return model.Reservation{}, err
	}
	var out model.Reservation
	err := s.pool.InTx(ctx, func(tx pgx.Tx) error {
		rs, err := queryReservations(ctx, tx, `DELETE FROM reservations WHERE id = $1::uuid RETURNING `+reservationColumns, id)
		if err != nil {
			return err
		}
		if len(rs) == 0 {
			return model.ErrNotFound
		}
		out = rs[0]
		return s.insertEvent(ctx, tx, outbox.EventDeleted, rs)
	})
	return out, err
}

// ReleasePendingGroup deletes the still-pending records of a group. Confirmed
// or cancelled records are left alone.
func (s *Store) ReleasePendingGroup(ctx context.Context, groupID string) ([]model.Reservation, error) {
	if err := checkID(groupID); err != nil {
		return nil, err
	}
	var out []model.Reservation
	err := s.pool.InTx(ctx, func(tx pgx.Tx) error {
		rs, err := queryReservations(ctx, tx, `
			DELETE FROM reservations
			WHERE group_id = $1::uuid AND status = 'pending'
			RETURNING `+reservationColumns, groupID)
		if err != nil {
			return err
		}
		out = rs
		return s.insertEvent(ctx, tx, outbox.EventGroupReleased, rs)
	})
	return out, err
}

// ExpirePending deletes up to limit pending groups whose oldest record was
// created before cutoff. A group is removed whole in one statement; records
// without a group count as a group of one.
func (s *Store) ExpirePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Reservation, error) {
	var out []model.Reservation
	err := s.pool.InTx(ctx, func(tx pgx.Tx) error {
		rs, err := queryReservations(ctx, tx, `
			WITH expired AS (
				SELECT COALESCE(group_id, id) AS group_key
				FROM reservations
				WHERE status = 'pending'
				GROUP BY 1
				HAVING min(created_at) < $1
				ORDER BY min(created_at)
				LIMIT $2
			), locked AS (
				SELECT id FROM reservations
				WHERE status = 'pending' AND COALESCE(group_id, id) IN (SELECT group_key FROM expired)
				FOR UPDATE
			)
			DELETE FROM reservations
			WHERE id IN (SELECT id FROM locked)
			RETURNING `+reservationColumns, cutoff, limit)
		if err != nil {
			return err
		}
		out = rs
		for _, group := range groupByID(rs) {
			if err := s.insertEvent(ctx, tx, outbox.EventGroupReleased, group); err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// groupByID splits rs by group id, keeping first-seen order. Records without
// a group stand alone.
func groupByID(rs []model.Reservation) [][]model.Reservation {
	var out [][]model.Reservation
	pos := map[string]int{}
	for _, r := range rs {
		key := groupKey(r)
		i, ok := pos[key]
		if !ok {
			i = len(out)
			pos[key] = i
			out = append(out, nil)
		}
		out[i] = append(out[i], r)
	}
	return out
}

func groupKey(r model.Reservation) string {
	if r.GroupID == "" {
		return "id:" + r.ID
	}
	return r.GroupID
}

// ListReservations returns every reservation with a business date in
// [from, to], newest date first.
func (s *Store) ListReservations(ctx context.Context, from, to model.Date) ([]model.Reservation, error) {
	return queryReservations(ctx, s.pool, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE business_date BETWEEN $1 AND $2
		ORDER BY business_date DESC, court_id, start_minute
	`, pgDate(from), pgDate(to))
}

func (s *Store) ListUserReservations(ctx context.Context, userID string) ([]model.Reservation, error) {
	return queryReservations(ctx, s.pool, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE user_id = $1
		ORDER BY business_date DESC, start_minute
	`, userID)
}
