package model

import (
	"fmt"
	"strconv"
	"strings"
)

// OperatingWindow is the club-wide daily schedule. A ClosesAt at or before
// OpensAt means the day runs past midnight; OpensAt == ClosesAt is a full day.
type OperatingWindow struct {
	OpensAt     TimeOfDay `json:"opens_at"`
	ClosesAt    TimeOfDay `json:"closes_at"`
	SlotMinutes int       `json:"slot_minutes"`
}

func (w OperatingWindow) Validate() error {
	if !w.OpensAt.Valid() || !w.ClosesAt.Valid() {
		return fmt.Errorf("%w: hours out of range", ErrWindowMisconfigured)
	}
	if w.SlotMinutes <= 0 || w.SlotMinutes > MinutesPerDay {
		return fmt.Errorf("%w: slot duration %d", ErrWindowMisconfigured, w.SlotMinutes)
	}
	return nil
}

func (w OperatingWindow) String() string {
	return fmt.Sprintf("%s-%s/%d", w.OpensAt, w.ClosesAt, w.SlotMinutes)
}

// ParseWindow reads the "HH:MM-HH:MM/minutes" form used in configuration.
func ParseWindow(s string) (OperatingWindow, error) {
	hours, dur, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return OperatingWindow{}, fmt.Errorf("%w: %q", ErrWindowMisconfigured, s)
	}
	from, to, ok := strings.Cut(hours, "-")
	if !ok {
		return OperatingWindow{}, fmt.Errorf("%w: %q", ErrWindowMisconfigured, s)
	}
	opens, err := ParseTimeOfDay(from)
	if err != nil {
		return OperatingWindow{}, fmt.Errorf("%w: %v", ErrWindowMisconfigured, err)
	}
	closes, err := ParseTimeOfDay(to)
	if err != nil {
		return OperatingWindow{}, fmt.Errorf("%w: %v", ErrWindowMisconfigured, err)
	}
	mins, err := strconv.Atoi(strings.TrimSpace(dur))
	if err != nil {
		return OperatingWindow{}, fmt.Errorf("%w: slot duration %q", ErrWindowMisconfigured, dur)
	}
	w := OperatingWindow{OpensAt: opens, ClosesAt: closes, SlotMinutes: mins}
	return w, w.Validate()
}

// ClubConfig is the editable club configuration row.
type ClubConfig struct {
	Window       OperatingWindow `json:"window"`
	DepositCents int64           `json:"deposit_cents"`
}
