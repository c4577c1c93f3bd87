package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/outbox"
)

// MemoryStore keeps everything in process. It backs local runs and tests and
// follows the same rules as Store, including the one-confirmed-per-slot
// constraint and all-or-nothing group writes.
type MemoryStore struct {
	mu           sync.Mutex
	cfg          model.ClubConfig
	configured   bool
	reservations []model.Reservation
	fixed        []model.FixedBlock
	adhoc        []model.AdHocBlock
	events       []outbox.Event
	now          func() time.Time

	// FailInsert, when set, is consulted after each record of a group is
	// staged. A non-nil error aborts the whole group.
	FailInsert func(staged int) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Seed stores cfg without validating it, so broken configurations can be
// reproduced.
func (m *MemoryStore) Seed(cfg model.ClubConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg, m.configured = cfg, true
}

func (m *MemoryStore) Config(context.Context) (model.ClubConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config()
}

func (m *MemoryStore) config() (model.ClubConfig, error) {
	if !m.configured {
		return model.ClubConfig{}, fmt.Errorf("%w: no club config", model.ErrWindowMisconfigured)
	}
	return m.cfg, m.cfg.Window.Validate()
}

func (m *MemoryStore) UpdateConfig(_ context.Context, cfg model.ClubConfig) error {
	if err := cfg.Window.Validate(); err != nil {
		return err
	}
	if cfg.DepositCents < 0 {
		return fmt.Errorf("%w: negative deposit", model.ErrInvalidInput)
	}
	m.Seed(cfg)
	return nil
}

func (m *MemoryStore) Snapshot(_ context.Context, date model.Date, court int) (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot(date, court), nil
}

func (m *MemoryStore) snapshot(date model.Date, court int) model.Snapshot {
	snap := model.Snapshot{
		Reservations: []model.Reservation{},
		FixedBlocks:  []model.FixedBlock{},
		AdHocBlocks:  []model.AdHocBlock{},
	}
	for _, r := range m.reservations {
		if r.Date == date && (court == 0 || r.Court == court) {
			snap.Reservations = append(snap.Reservations, r)
		}
	}
	for _, b := range m.fixed {
		if b.Active && (court == 0 || model.CourtMatches(b.Court, court)) {
			snap.FixedBlocks = append(snap.FixedBlocks, cloneFixed(b))
		}
	}
	for _, b := range m.adhoc {
		if b.Covers(date) && (court == 0 || model.CourtMatches(b.Court, court)) {
			snap.AdHocBlocks = append(snap.AdHocBlocks, b)
		}
	}
	return snap
}

func cloneFixed(b model.FixedBlock) model.FixedBlock {
	b.Weekdays = append([]int(nil), b.Weekdays...)
	return b
}

func (m *MemoryStore) confirmedAt(court int, date model.Date, start model.TimeOfDay, except map[string]bool) bool {
	for _, r := range m.reservations {
		if r.Status == model.StatusConfirmed && r.Court == court && r.Date == date && r.Start == start && !except[r.ID] {
			return true
		}
	}
	return false
}

func (m *MemoryStore) emit(eventType string, rs []model.Reservation) {
	if len(rs) == 0 {
		return
	}
	evt, err := outbox.GroupEvent(eventType, rs, m.now())
	if err == nil {
		m.events = append(m.events, evt)
	}
}

// Events returns the outbox events recorded so far.
func (m *MemoryStore) Events() []outbox.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]outbox.Event(nil), m.events...)
}

func (m *MemoryStore) CreateReservationGroup(_ context.Context, g model.GroupRequest, recheck func(model.OperatingWindow, model.Snapshot) error) (model.GroupResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if recheck != nil {
		cfg, err := m.config()
		if err != nil {
			return model.GroupResult{}, err
		}
		if err := recheck(cfg.Window, m.snapshot(g.Date, g.Court)); err != nil {
			return model.GroupResult{}, err
		}
	}

	res := model.GroupResult{GroupID: g.GroupID, Status: g.Status}
	staged := make([]model.Reservation, 0, len(g.Starts))
	for _, start := range g.Starts {
		if g.Status == model.StatusConfirmed && m.confirmedAt(g.Court, g.Date, start, nil) {
			return model.GroupResult{}, fmt.Errorf("%w: slot already confirmed", model.ErrSlotNotFree)
		}
		r := model.Reservation{
			ID:            uuid.NewString(),
			Court:         g.Court,
			Date:          g.Date,
			Start:         start,
			Status:        g.Status,
			GroupID:       g.GroupID,
			CustomerName:  g.Customer.Name,
			CustomerPhone: g.Customer.Phone,
			UserID:        g.Customer.UserID,
			CreatedAt:     m.now(),
		}
		staged = append(staged, r)
		if m.FailInsert != nil {
			if err := m.FailInsert(len(staged)); err != nil {
				return model.GroupResult{}, err
			}
		}
		res.ReservationIDs = append(res.ReservationIDs, r.ID)
	}
	m.reservations = append(m.reservations, staged...)
	m.emit(outbox.EventGroupCreated, staged)
	return res, nil
}

func (m *MemoryStore) GetReservation(_ context.Context, id string) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reservations {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Reservation{}, fmt.Errorf("%w: reservation %s", model.ErrNotFound, id)
}

func (m *MemoryStore) SetStatus(_ context.Context, id string, status model.Status) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	groupID := ""
	found := false
	for _, r := range m.reservations {
		if r.ID == id {
			groupID, found = r.GroupID, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: reservation %s", model.ErrNotFound, id)
	}
	return m.transition(func(r model.Reservation) bool {
		return r.ID == id || (groupID != "" && r.GroupID == groupID)
	}, status)
}

func (m *MemoryStore) SetGroupStatus(_ context.Context, groupID string, status model.Status) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transition(func(r model.Reservation) bool { return r.GroupID == groupID }, status)
}

func (m *MemoryStore) transition(match func(model.Reservation) bool, status model.Status) ([]model.Reservation, error) {
	var idx []int
	members := map[string]bool{}
	for i, r := range m.reservations {
		if match(r) {
			idx = append(idx, i)
			members[r.ID] = true
		}
	}
	if len(idx) == 0 {
		return nil, model.ErrNotFound
	}
	changed := false
	for _, i := range idx {
		r := m.reservations[i]
		if !r.Status.CanTransition(status) {
			return nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, r.Status, status)
		}
		if status == model.StatusConfirmed && r.Status != status && m.confirmedAt(r.Court, r.Date, r.Start, members) {
			return nil, fmt.Errorf("%w: slot already confirmed", model.ErrSlotNotFree)
		}
		changed = changed || r.Status != status
	}
	out := make([]model.Reservation, 0, len(idx))
	for _, i := range idx {
		m.reservations[i].Status = status
		out = append(out, m.reservations[i])
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Start < out[b].Start })
	if changed {
		eventType := outbox.EventGroupConfirmed
		if status == model.StatusCancelled {
			eventType = outbox.EventGroupCancelled
		}
		m.emit(eventType, out)
	}
	return out, nil
}

func (m *MemoryStore) DeleteReservation(_ context.Context, id string) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := m.remove(func(r model.Reservation) bool { return r.ID == id })
	if len(removed) == 0 {
		return model.Reservation{}, fmt.Errorf("%w: reservation %s", model.ErrNotFound, id)
	}
	m.emit(outbox.EventDeleted, removed)
	return removed[0], nil
}

func (m *MemoryStore) ReleasePendingGroup(_ context.Context, groupID string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := m.remove(func(r model.Reservation) bool {
		return r.GroupID == groupID && r.Status == model.StatusPending
	})
	m.emit(outbox.EventGroupReleased, removed)
	return removed, nil
}

func (m *MemoryStore) ExpirePending(_ context.Context, cutoff time.Time, limit int) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []model.Reservation
	for _, r := range m.reservations {
		if r.Status == model.StatusPending {
			pending = append(pending, r)
		}
	}
	type candidate struct {
		key    string
		oldest time.Time
	}
	var candidates []candidate
	for _, g := range groupByID(pending) {
		oldest := g[0].CreatedAt
		for _, r := range g[1:] {
			if r.CreatedAt.Before(oldest) {
				oldest = r.CreatedAt
			}
		}
		if oldest.Before(cutoff) {
			candidates = append(candidates, candidate{key: groupKey(g[0]), oldest: oldest})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].oldest.Before(candidates[j].oldest) })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	expired := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		expired[c.key] = true
	}

	removed := m.remove(func(r model.Reservation) bool {
		return r.Status == model.StatusPending && expired[groupKey(r)]
	})
	for _, group := range groupByID(removed) {
		m.emit(outbox.EventGroupReleased, group)
	}
	return removed, nil
}

func (m *MemoryStore) remove(match func(model.Reservation) bool) []model.Reservation {
	var removed []model.Reservation
	kept := m.reservations[:0]
	for _, r := range m.reservations {
		if match(r) {
			removed = append(removed, r)
			continue
		}
		kept = append(kept, r)
	}
	m.reservations = kept
	return removed
}

func (m *MemoryStore) ListReservations(_ context.Context, from, to model.Date) ([]model.Reservation, error) {
	return m.list(func(r model.Reservation) bool { return !r.Date.Before(from) && !r.Date.After(to) }), nil
}

func (m *MemoryStore) ListUserReservations(_ context.Context, userID string) ([]model.Reservation, error) {
	return m.list(func(r model.Reservation) bool { return r.UserID == userID }), nil
}

func (m *MemoryStore) list(match func(model.Reservation) bool) []model.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range m.reservations {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if c := out[a].Date.Compare(out[b].Date); c != 0 {
			return c > 0
		}
		if out[a].Court != out[b].Court {
			return out[a].Court < out[b].Court
		}
		return out[a].Start < out[b].Start
	})
	return out
}

func (m *MemoryStore) CreateFixedBlock(_ context.Context, b model.FixedBlock) (model.FixedBlock, error) {
	if err := b.Validate(); err != nil {
		return b, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.NewString()
	m.fixed = append(m.fixed, cloneFixed(b))
	return b, nil
}

func (m *MemoryStore) ListFixedBlocks(context.Context) ([]model.FixedBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.FixedBlock, 0, len(m.fixed))
	for _, b := range m.fixed {
		out = append(out, cloneFixed(b))
	}
	return out, nil
}

func (m *MemoryStore) SetFixedBlockActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.fixed {
		if m.fixed[i].ID == id {
			m.fixed[i].Active = active
			return nil
		}
	}
	return fmt.Errorf("%w: fixed block %s", model.ErrNotFound, id)
}

func (m *MemoryStore) DeleteFixedBlock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.fixed {
		if m.fixed[i].ID == id {
			m.fixed = append(m.fixed[:i], m.fixed[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: fixed block %s", model.ErrNotFound, id)
}

func (m *MemoryStore) CreateAdHocBlock(_ context.Context, b model.AdHocBlock) (model.AdHocBlock, error) {
	if b.Kind == "" {
		b.Kind = model.BlockOther
	}
	if err := b.Validate(); err != nil {
		return b, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.NewString()
	m.adhoc = append(m.adhoc, b)
	return b, nil
}

func (m *MemoryStore) ListAdHocBlocks(_ context.Context, from, to model.Date) ([]model.AdHocBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.AdHocBlock{}
	for _, b := range m.adhoc {
		if !b.DateFrom.After(to) && !b.DateTo.Before(from) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].DateFrom.Before(out[b].DateFrom) })
	return out, nil
}

func (m *MemoryStore) DeleteAdHocBlock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.adhoc {
		if m.adhoc[i].ID == id {
			m.adhoc = append(m.adhoc[:i], m.adhoc[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: adhoc block %s", model.ErrNotFound, id)
}
