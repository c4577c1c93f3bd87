package availability

import (
	"testing"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

func hm(h, m int) model.TimeOfDay { return model.TimeOfDay(h*60 + m) }

func labels(slots []model.TimeOfDay) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGenerateSlots_CrossesMidnight(t *testing.T) {
	got := labels(GenerateSlots(model.OperatingWindow{OpensAt: hm(22, 0), ClosesAt: hm(2, 0), SlotMinutes: 60}))
	want := []string{"22:00", "23:00", "00:00", "01:00"}
	if !equalStrings(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestGenerateSlots_SameDay(t *testing.T) {
	got := labels(GenerateSlots(model.OperatingWindow{OpensAt: hm(9, 0), ClosesAt: hm(12, 0), SlotMinutes: 60}))
	want := []string{"09:00", "10:00", "11:00"}
	if !equalStrings(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestGenerateSlots_DropsPartialSlot(t *testing.T) {
	got := labels(GenerateSlots(model.OperatingWindow{OpensAt: hm(9, 0), ClosesAt: hm(11, 30), SlotMinutes: 60}))
	want := []string{"09:00", "10:00"}
	if !equalStrings(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestGenerateSlots_FullDayWhenOpensEqualsCloses(t *testing.T) {
	slots := GenerateSlots(model.OperatingWindow{OpensAt: hm(6, 0), ClosesAt: hm(6, 0), SlotMinutes: 90})
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots over 24h, got %d", len(slots))
	}
	if slots[0] != hm(6, 0) || slots[len(slots)-1] != hm(4, 30) {
		t.Fatalf("unexpected bounds %s..%s", slots[0], slots[len(slots)-1])
	}
}

func TestGenerateSlots_CountAndDistinct(t *testing.T) {
	for opens := 0; opens < model.MinutesPerDay; opens += 45 {
		for closes := 0; closes < model.MinutesPerDay; closes += 75 {
			for _, dur := range []int{15, 30, 45, 60, 90, 120, 200} {
				w := model.OperatingWindow{OpensAt: model.TimeOfDay(opens), ClosesAt: model.TimeOfDay(closes), SlotMinutes: dur}
				slots := GenerateSlots(w)
				want := (NormalizedEnd(w) - opens) / dur
				if len(slots) != want {
					t.Fatalf("%s: expected %d slots, got %d", w, want, len(slots))
				}
				seen := map[model.TimeOfDay]bool{}
				for _, s := range slots {
					if !s.Valid() || seen[s] {
						t.Fatalf("%s: slot %d invalid or repeated", w, s)
					}
					seen[s] = true
				}
			}
		}
	}
}

func TestGenerateSlots_Restartable(t *testing.T) {
	w := model.OperatingWindow{OpensAt: hm(14, 0), ClosesAt: hm(2, 0), SlotMinutes: 60}
	if !equalStrings(labels(GenerateSlots(w)), labels(GenerateSlots(w))) {
		t.Fatal("expected identical sequences from the same window")
	}
	if GenerateSlots(model.OperatingWindow{OpensAt: hm(9, 0), ClosesAt: hm(10, 0)}) != nil {
		t.Fatal("expected no slots for a zero duration")
	}
}

func TestOrderingKey(t *testing.T) {
	w := model.OperatingWindow{OpensAt: hm(14, 0), ClosesAt: hm(2, 0), SlotMinutes: 60}
	if !CrossesMidnight(w) || NormalizedEnd(w) != 26*60 {
		t.Fatalf("expected crossing window ending at 26:00, got end=%d", NormalizedEnd(w))
	}
	if OrderingKey(w, hm(1, 0)) <= OrderingKey(w, hm(23, 0)) {
		t.Fatal("expected 01:00 to sort after 23:00")
	}
	same := model.OperatingWindow{OpensAt: hm(9, 0), ClosesAt: hm(12, 0), SlotMinutes: 60}
	if CrossesMidnight(same) || OrderingKey(same, hm(8, 0)) != int(hm(8, 0)) {
		t.Fatal("non-crossing window should not shift times")
	}
}
