package availability

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

func TestBuildIndex_Statuses(t *testing.T) {
	d := mustDate(t, "2026-03-10")
	ix := BuildIndex(d, []model.Reservation{
		{ID: "a", Court: 1, Date: d, Start: hm(19, 0), Status: model.StatusConfirmed},
		{ID: "b", Court: 1, Date: d, Start: hm(20, 0), Status: model.StatusPending},
		{ID: "c", Court: 2, Date: d, Start: hm(19, 0), Status: model.StatusCancelled},
		{ID: "other-day", Court: 1, Date: d.AddDays(1), Start: hm(21, 0), Status: model.StatusConfirmed},
	})
	cases := []struct {
		court int
		start model.TimeOfDay
		want  SlotStatus
	}{
		{1, hm(19, 0), StatusConfirmed},
		{1, hm(20, 0), StatusPending},
		{2, hm(19, 0), StatusCancelled},
		{1, hm(21, 0), StatusAbsent},
		{3, hm(19, 0), StatusAbsent},
	}
	for _, tc := range cases {
		if got := ix.StatusAt(tc.court, tc.start); got != tc.want {
			t.Fatalf("court %d %s: expected %s, got %s", tc.court, tc.start, tc.want, got)
		}
	}
}

func TestBuildIndex_Duplicates(t *testing.T) {
	d := mustDate(t, "2026-03-10")
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	ix := BuildIndex(d, []model.Reservation{
		{ID: "new", Court: 1, Date: d, Start: hm(19, 0), Status: model.StatusPending, CreatedAt: t0.Add(time.Hour)},
		{ID: "old", Court: 1, Date: d, Start: hm(19, 0), Status: model.StatusCancelled, CreatedAt: t0},
	})
	if r, _ := ix.At(1, hm(19, 0)); r.ID != "new" {
		t.Fatalf("expected newest reservation retained, got %s", r.ID)
	}

	ix = BuildIndex(d, []model.Reservation{
		{ID: "first", Court: 1, Date: d, Start: hm(19, 0), Status: model.StatusPending, CreatedAt: t0},
		{ID: "second", Court: 1, Date: d, Start: hm(19, 0), Status: model.StatusPending, CreatedAt: t0},
	})
	if r, _ := ix.At(1, hm(19, 0)); r.ID != "second" || ix.Len() != 1 {
		t.Fatalf("expected later element on tie, got %s (len %d)", r.ID, ix.Len())
	}

	ix = BuildIndex(d, []model.Reservation{
		{ID: "paid", Court: 1, Date: d, Start: hm(19, 0), Status: model.StatusConfirmed, CreatedAt: t0},
		{ID: "abandoned", Court: 1, Date: d, Start: hm(19, 0), Status: model.StatusPending, CreatedAt: t0.Add(time.Minute)},
	})
	if ix.StatusAt(1, hm(19, 0)) != StatusConfirmed {
		t.Fatal("a later pending record must not hide the confirmed one")
	}
}
