package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type BlockKind string

const (
	BlockTournament BlockKind = "tournament"
	BlockClosure    BlockKind = "closure"
	BlockOther      BlockKind = "other"
)

func ParseBlockKind(s string) (BlockKind, error) {
	switch k := BlockKind(strings.ToLower(strings.TrimSpace(s))); k {
	case BlockTournament, BlockClosure, BlockOther:
		return k, nil
	case "":
		return BlockOther, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidBlock, s)
	}
}

// FixedBlock repeats every week on Weekdays (ISO numbering). A nil Court
// covers every court.
type FixedBlock struct {
	ID       string    `json:"id"`
	Court    *int      `json:"court_id"`
	Weekdays []int     `json:"weekdays"`
	From     TimeOfDay `json:"from"`
	To       TimeOfDay `json:"to"`
	Active   bool      `json:"active"`
	Label    string    `json:"label"`
	Reason   string    `json:"reason"`
}

func (b FixedBlock) Validate() error {
	if len(b.Weekdays) == 0 {
		return fmt.Errorf("%w: no weekdays", ErrInvalidBlock)
	}
	for _, d := range b.Weekdays {
		if d < 1 || d > 7 {
			return fmt.Errorf("%w: weekday %d", ErrInvalidBlock, d)
		}
	}
	if !b.From.Valid() || !b.To.Valid() || b.From == b.To {
		return fmt.Errorf("%w: empty time range", ErrInvalidBlock)
	}
	return nil
}

func (b FixedBlock) OnWeekday(iso int) bool {
	for _, d := range b.Weekdays {
		if d == iso {
			return true
		}
	}
	return false
}

// AdHocBlock covers DateFrom..DateTo inclusive. With both From and To nil it
// blocks whole days.
type AdHocBlock struct {
	ID       string     `json:"id"`
	Court    *int       `json:"court_id"`
	DateFrom Date       `json:"date_from"`
	DateTo   Date       `json:"date_to"`
	From     *TimeOfDay `json:"from"`
	To       *TimeOfDay `json:"to"`
	Reason   string     `json:"reason"`
	Kind     BlockKind  `json:"kind"`
}

func (b AdHocBlock) WholeDay() bool { return b.From == nil && b.To == nil }

func (b AdHocBlock) Validate() error {
	if b.DateFrom.IsZero() || b.DateTo.IsZero() {
		return fmt.Errorf("%w: missing dates", ErrInvalidBlock)
	}
	if b.DateTo.Before(b.DateFrom) {
		return fmt.Errorf("%w: date_to before date_from", ErrInvalidBlock)
	}
	if (b.From == nil) != (b.To == nil) {
		return fmt.Errorf("%w: from and to must be set together", ErrInvalidBlock)
	}
	if b.From != nil && (!b.From.Valid() || !b.To.Valid() || *b.From == *b.To) {
		return fmt.Errorf("%w: empty time range", ErrInvalidBlock)
	}
	if _, err := ParseBlockKind(string(b.Kind)); err != nil {
		return err
	}
	return nil
}

func (b AdHocBlock) Covers(d Date) bool {
	return !d.Before(b.DateFrom) && !d.After(b.DateTo)
}

// CourtMatches treats a nil block court as every court.
func CourtMatches(blockCourt *int, court int) bool {
	return blockCourt == nil || *blockCourt == court
}

// ParseWeekdays reads a comma separated list such as "1,3,5".
func ParseWeekdays(s string) ([]int, error) {
	seen := map[int]bool{}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 7 {
			return nil, fmt.Errorf("%w: weekday %q", ErrInvalidBlock, part)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

// Snapshot is the read-only state one availability query works from.
type Snapshot struct {
	Reservations []Reservation `json:"reservations"`
	FixedBlocks  []FixedBlock  `json:"fixed_blocks"`
	AdHocBlocks  []AdHocBlock  `json:"adhoc_blocks"`
}
