package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
		ok   bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"23:59", 1439, true},
		{"19:00:45", 1140, true},
		{"07:05", 425, true},
		{"7:05", 0, false},
		{"9:5", 0, false},
		{"09:5", 0, false},
		{"19:00:4", 0, false},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"ab:cd", 0, false},
		{"12", 0, false},
		{"12:00:99", 0, false},
		{"-1:00", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("ParseTimeOfDay(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidTimeFormat) || !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ParseTimeOfDay(%q) expected ErrInvalidTimeFormat, got %v", tc.in, err)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	if s := TimeOfDay(65).String(); s != "01:05" {
		t.Fatalf("expected 01:05, got %s", s)
	}
	if FoldMinutes(1500) != 60 || FoldMinutes(-60) != 1380 {
		t.Fatal("FoldMinutes did not fold into the clock face")
	}
}

func TestISOWeekdaySunday(t *testing.T) {
	cases := map[string]int{
		"2026-03-02": 1, // Monday
		"2026-03-07": 6,
		"2026-03-08": 7, // Sunday
	}
	for in, want := range cases {
		d, err := ParseDate(in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", in, err)
		}
		if got := d.ISOWeekday(); got != want {
			t.Fatalf("%s: expected weekday %d, got %d", in, want, got)
		}
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2026-02-30"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	d, _ := ParseDate("2026-12-31")
	if next := d.AddDays(1); next.String() != "2027-01-01" {
		t.Fatalf("expected 2027-01-01, got %s", next)
	}
	if !d.After(d.AddDays(-1)) || d.Compare(d) != 0 {
		t.Fatal("date comparison broken")
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("14:00-02:00/60")
	if err != nil {
		t.Fatalf("ParseWindow failed: %v", err)
	}
	if w.OpensAt != 840 || w.ClosesAt != 120 || w.SlotMinutes != 60 {
		t.Fatalf("unexpected window %+v", w)
	}
	for _, bad := range []string{"14:00-02:00", "14:00/60", "14:00-xx/60", "14:00-02:00/0"} {
		if _, err := ParseWindow(bad); !errors.Is(err, ErrWindowMisconfigured) {
			t.Fatalf("ParseWindow(%q) expected ErrWindowMisconfigured, got %v", bad, err)
		}
	}
}

func TestAdHocBlockValidate(t *testing.T) {
	d, _ := ParseDate("2026-04-10")
	from := TimeOfDay(600)
	to := TimeOfDay(720)

	ok := AdHocBlock{DateFrom: d, DateTo: d, Kind: BlockClosure}
	if err := ok.Validate(); err != nil {
		t.Fatalf("whole-day block rejected: %v", err)
	}
	half := AdHocBlock{DateFrom: d, DateTo: d, From: &from, Kind: BlockTournament}
	if err := half.Validate(); !errors.Is(err, ErrInvalidBlock) {
		t.Fatalf("expected ErrInvalidBlock for half range, got %v", err)
	}
	inverted := AdHocBlock{DateFrom: d, DateTo: d.AddDays(-1), From: &from, To: &to}
	if err := inverted.Validate(); !errors.Is(err, ErrInvalidBlock) {
		t.Fatalf("expected ErrInvalidBlock for inverted dates, got %v", err)
	}
	badKind := AdHocBlock{DateFrom: d, DateTo: d, Kind: "party"}
	if err := badKind.Validate(); !errors.Is(err, ErrInvalidBlock) {
		t.Fatalf("expected ErrInvalidBlock for kind, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	if !StatusPending.CanTransition(StatusConfirmed) || !StatusConfirmed.CanTransition(StatusConfirmed) {
		t.Fatal("expected pending->confirmed and replayed confirm to be allowed")
	}
	if StatusCancelled.CanTransition(StatusConfirmed) || StatusConfirmed.CanTransition(StatusPending) {
		t.Fatal("expected backwards transitions to be rejected")
	}
	if _, err := ParseStatus("paid"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestParseWeekdays(t *testing.T) {
	got, err := ParseWeekdays("5, 1,3,1")
	if err != nil {
		t.Fatalf("ParseWeekdays failed: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 3 || got[2] != 5 {
		t.Fatalf("unexpected weekdays %v", got)
	}
	if _, err := ParseWeekdays("0,2"); !errors.Is(err, ErrInvalidBlock) {
		t.Fatalf("expected ErrInvalidBlock, got %v", err)
	}
}

func TestJSONText(t *testing.T) {
	var v struct {
		Date  Date      `json:"date"`
		Start TimeOfDay `json:"start"`
	}
	if err := json.Unmarshal([]byte(`{"date":"2026-05-01","start":"19:00:00"}`), &v); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"date":"2026-05-01","start":"19:00"}` {
		t.Fatalf("unexpected json %s", out)
	}
}
