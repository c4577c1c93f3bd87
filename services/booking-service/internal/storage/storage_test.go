package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/outbox"
)

func testDate(t *testing.T) model.Date {
	t.Helper()
	d, err := model.ParseDate("2026-06-12")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	return d
}

func group(d model.Date, status model.Status, starts ...model.TimeOfDay) model.GroupRequest {
	return model.GroupRequest{
		GroupID:  "g-" + starts[0].String(),
		Court:    1,
		Date:     d,
		Starts:   starts,
		Status:   status,
		Customer: model.Customer{Name: "Ana", Phone: "600", UserID: "u1"},
	}
}

func TestMapWriteErr(t *testing.T) {
	err := mapWriteErr(&pgconn.PgError{Code: "23505"})
	if !errors.Is(err, model.ErrSlotNotFree) {
		t.Fatalf("expected ErrSlotNotFree, got %v", err)
	}
	other := errors.New("boom")
	if mapWriteErr(other) != other || mapWriteErr(nil) != nil {
		t.Fatal("unexpected mapping for plain errors")
	}
}

func TestCheckID(t *testing.T) {
	if err := checkID("not-a-uuid"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := checkID("7d444840-9dc0-11d1-b245-5ffdce74fad2"); err != nil {
		t.Fatalf("valid id rejected: %v", err)
	}
}

func TestGroupByID(t *testing.T) {
	rs := []model.Reservation{
		{ID: "1", GroupID: "a"}, {ID: "2"}, {ID: "3", GroupID: "a"}, {ID: "4", GroupID: "b"},
	}
	got := groupByID(rs)
	if len(got) != 3 || len(got[0]) != 2 || got[1][0].ID != "2" || got[2][0].ID != "4" {
		t.Fatalf("unexpected grouping %+v", got)
	}
}

func TestMemoryStore_ConfigMissing(t *testing.T) {
	m := NewMemoryStore()
	if _, err := m.Config(context.Background()); !errors.Is(err, model.ErrWindowMisconfigured) {
		t.Fatalf("expected ErrWindowMisconfigured, got %v", err)
	}
	m.Seed(model.ClubConfig{Window: model.OperatingWindow{OpensAt: 600, ClosesAt: 600}})
	if _, err := m.Config(context.Background()); !errors.Is(err, model.ErrWindowMisconfigured) {
		t.Fatalf("expected zero slot length to be misconfigured, got %v", err)
	}
}

func TestMemoryStore_GroupIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	d := testDate(t)
	m := NewMemoryStore()
	m.FailInsert = func(staged int) error {
		if staged == 2 {
			return errors.New("disk full")
		}
		return nil
	}
	if _, err := m.CreateReservationGroup(ctx, group(d, model.StatusPending, 600, 660), nil); err == nil {
		t.Fatal("expected injected failure")
	}
	snap, _ := m.Snapshot(ctx, d, 1)
	if len(snap.Reservations) != 0 || len(m.Events()) != 0 {
		t.Fatalf("expected nothing written, got %d records", len(snap.Reservations))
	}

	m.FailInsert = nil
	res, err := m.CreateReservationGroup(ctx, group(d, model.StatusPending, 600, 660), nil)
	if err != nil || len(res.ReservationIDs) != 2 {
		t.Fatalf("expected two records, got %+v, %v", res, err)
	}
	if evts := m.Events(); len(evts) != 1 || evts[0].EventType != outbox.EventGroupCreated {
		t.Fatalf("expected one created event, got %+v", evts)
	}
}

func TestMemoryStore_OneConfirmedPerSlot(t *testing.T) {
	ctx := context.Background()
	d := testDate(t)
	m := NewMemoryStore()
	if _, err := m.CreateReservationGroup(ctx, group(d, model.StatusConfirmed, 600), nil); err != nil {
		t.Fatalf("first confirmed write failed: %v", err)
	}
	if _, err := m.CreateReservationGroup(ctx, group(d, model.StatusConfirmed, 600), nil); !errors.Is(err, model.ErrSlotNotFree) {
		t.Fatalf("expected ErrSlotNotFree, got %v", err)
	}

	pending, err := m.CreateReservationGroup(ctx, model.GroupRequest{GroupID: "g2", Court: 1, Date: d, Starts: []model.TimeOfDay{600}, Status: model.StatusPending}, nil)
	if err != nil {
		t.Fatalf("pending write over confirmed slot should be stored: %v", err)
	}
	if _, err := m.SetGroupStatus(ctx, pending.GroupID, model.StatusConfirmed); !errors.Is(err, model.ErrSlotNotFree) {
		t.Fatalf("expected confirm to hit the slot constraint, got %v", err)
	}
}

func TestMemoryStore_RecheckRunsUnderLock(t *testing.T) {
	ctx := context.Background()
	d := testDate(t)
	m := NewMemoryStore()
	m.Seed(model.ClubConfig{Window: model.OperatingWindow{OpensAt: 540, ClosesAt: 1320, SlotMinutes: 60}})
	var seen model.Snapshot
	recheck := func(w model.OperatingWindow, snap model.Snapshot) error {
		seen = snap
		if w.SlotMinutes != 60 {
			t.Fatalf("unexpected window %+v", w)
		}
		return nil
	}
	if _, err := m.CreateReservationGroup(ctx, group(d, model.StatusPending, 600), recheck); err != nil {
		t.Fatalf("CreateReservationGroup: %v", err)
	}
	if _, err := m.CreateReservationGroup(ctx, group(d, model.StatusPending, 660), recheck); err != nil {
		t.Fatalf("CreateReservationGroup: %v", err)
	}
	if len(seen.Reservations) != 1 {
		t.Fatalf("expected recheck to see the first record, got %d", len(seen.Reservations))
	}

	refuse := func(model.OperatingWindow, model.Snapshot) error { return model.ErrSlotNotFree }
	if _, err := m.CreateReservationGroup(ctx, group(d, model.StatusPending, 720), refuse); !errors.Is(err, model.ErrSlotNotFree) {
		t.Fatalf("expected recheck error, got %v", err)
	}
}

func TestMemoryStore_StatusAppliesToGroup(t *testing.T) {
	ctx := context.Background()
	d := testDate(t)
	m := NewMemoryStore()
	res, _ := m.CreateReservationGroup(ctx, group(d, model.StatusPending, 600, 660), nil)

	out, err := m.SetStatus(ctx, res.ReservationIDs[1], model.StatusConfirmed)
	if err != nil || len(out) != 2 {
		t.Fatalf("expected both records confirmed, got %d, %v", len(out), err)
	}
	for _, r := range out {
		if r.Status != model.StatusConfirmed {
			t.Fatalf("record %s still %s", r.ID, r.Status)
		}
	}
	if _, err := m.SetStatus(ctx, res.ReservationIDs[0], model.StatusPending); !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := m.SetStatus(ctx, "missing", model.StatusCancelled); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ExpireKeepsGroupsWhole(t *testing.T) {
	ctx := context.Background()
	d := testDate(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryStore()
	m.SetClock(func() time.Time { return now })

	first, _ := m.CreateReservationGroup(ctx, group(d, model.StatusPending, 600, 660), nil)
	now = now.Add(time.Minute)
	second, _ := m.CreateReservationGroup(ctx, group(d, model.StatusPending, 780, 840), nil)
	now = now.Add(time.Hour)

	expired, err := m.ExpirePending(ctx, now, 1)
	if err != nil || len(expired) != 2 {
		t.Fatalf("limit 1 should expire one whole group of 2 records, got %d, %v", len(expired), err)
	}
	for _, r := range expired {
		if r.GroupID != first.GroupID {
			t.Fatalf("oldest group should go first, got %s", r.GroupID)
		}
	}
	if _, err := m.SetGroupStatus(ctx, first.GroupID, model.StatusConfirmed); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("no half of the expired group may survive, got %v", err)
	}

	expired, _ = m.ExpirePending(ctx, now, 1)
	if len(expired) != 2 || expired[0].GroupID != second.GroupID {
		t.Fatalf("expected the second group next, got %+v", expired)
	}
	released := 0
	for _, e := range m.Events() {
		if e.EventType == outbox.EventGroupReleased {
			released++
		}
	}
	if released != 2 {
		t.Fatalf("expected one release event per group, got %d", released)
	}
}

func TestMemoryStore_ExpireAndRelease(t *testing.T) {
	ctx := context.Background()
	d := testDate(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryStore()
	m.SetClock(func() time.Time { return now })

	old, _ := m.CreateReservationGroup(ctx, group(d, model.StatusPending, 600, 660), nil)
	now = now.Add(time.Hour)
	fresh, _ := m.CreateReservationGroup(ctx, group(d, model.StatusPending, 720), nil)
	_, _ = m.CreateReservationGroup(ctx, group(d, model.StatusConfirmed, 780), nil)

	expired, err := m.ExpirePending(ctx, now.Add(-time.Minute), 10)
	if err != nil || len(expired) != 2 || expired[0].GroupID != old.GroupID {
		t.Fatalf("expected the old pending group to expire, got %+v, %v", expired, err)
	}
	released, _ := m.ReleasePendingGroup(ctx, fresh.GroupID)
	if len(released) != 1 {
		t.Fatalf("expected one released record, got %d", len(released))
	}
	snap, _ := m.Snapshot(ctx, d, 0)
	if len(snap.Reservations) != 1 || snap.Reservations[0].Status != model.StatusConfirmed {
		t.Fatalf("expected only the confirmed record left, got %+v", snap.Reservations)
	}
}

func TestMemoryStore_SnapshotScopesBlocks(t *testing.T) {
	ctx := context.Background()
	d := testDate(t)
	m := NewMemoryStore()
	two := 2
	_, _ = m.CreateFixedBlock(ctx, model.FixedBlock{Court: &two, Weekdays: []int{5}, From: 600, To: 660, Active: true})
	inactive, _ := m.CreateFixedBlock(ctx, model.FixedBlock{Weekdays: []int{5}, From: 600, To: 660})
	_, _ = m.CreateAdHocBlock(ctx, model.AdHocBlock{DateFrom: d, DateTo: d.AddDays(2)})
	if _, err := m.CreateAdHocBlock(ctx, model.AdHocBlock{DateFrom: d, DateTo: d, Kind: "party"}); !errors.Is(err, model.ErrInvalidBlock) {
		t.Fatalf("expected ErrInvalidBlock, got %v", err)
	}

	snap, _ := m.Snapshot(ctx, d, 1)
	if len(snap.FixedBlocks) != 0 || len(snap.AdHocBlocks) != 1 || snap.AdHocBlocks[0].Kind != model.BlockOther {
		t.Fatalf("unexpected court 1 snapshot %+v", snap)
	}
	if err := m.SetFixedBlockActive(ctx, inactive.ID, true); err != nil {
		t.Fatalf("SetFixedBlockActive: %v", err)
	}
	snap, _ = m.Snapshot(ctx, d, 1)
	if len(snap.FixedBlocks) != 1 {
		t.Fatalf("expected the re-enabled block, got %d", len(snap.FixedBlocks))
	}
	if snap, _ = m.Snapshot(ctx, d.AddDays(3), 0); len(snap.AdHocBlocks) != 0 {
		t.Fatal("ad-hoc block leaked past its last date")
	}
}
