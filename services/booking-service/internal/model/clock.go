package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MinutesPerDay = 24 * 60

// TimeOfDay counts minutes since local midnight, in [0, MinutesPerDay).
type TimeOfDay int

// ParseTimeOfDay accepts HH:MM or HH:MM:SS. Seconds are discarded.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	h, err := parseClockField(parts[0], 23)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	m, err := parseClockField(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if len(parts) == 3 {
		if _, err := parseClockField(parts[2], 59); err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
	}
	return TimeOfDay(h*60 + m), nil
}

func parseClockField(s string, max int) (int, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("bad field %q", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("bad field %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > max {
		return 0, fmt.Errorf("bad field %q", s)
	}
	return n, nil
}

// FoldMinutes maps any minute offset back onto the clock face.
func FoldMinutes(m int) TimeOfDay {
	m %= MinutesPerDay
	if m < 0 {
		m += MinutesPerDay
	}
	return TimeOfDay(m)
}

func (t TimeOfDay) Valid() bool { return t >= 0 && t < MinutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Date is a calendar day with no time zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) IsZero() bool { return d == Date{} }

// At returns the instant minutes after midnight of d in loc. Offsets past
// MinutesPerDay land on the following days.
func (d Date) At(loc *time.Location, minutes int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, minutes, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// ISOWeekday numbers Monday 1 through Sunday 7.
func (d Date) ISOWeekday() int {
	wd := d.At(time.UTC, 0).Weekday()
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

func (d Date) Compare(o Date) int {
	return d.At(time.UTC, 0).Compare(o.At(time.UTC, 0))
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// DayNumber is the count of days since 1970-01-01.
func (d Date) DayNumber() int64 {
	return d.At(time.UTC, 0).Unix() / 86400
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
