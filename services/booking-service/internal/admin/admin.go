// Package admin holds the staff-console views over a reservation list.
package admin

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
}

// CountByStatus tallies rs. Active is everything not cancelled.
func CountByStatus(rs []model.Reservation) Stats {
	var s Stats
	for _, r := range rs {
		s.Total++
		switch r.Status {
		case model.StatusPending:
			s.Pending++
		case model.StatusConfirmed:
			s.Confirmed++
		case model.StatusCancelled:
			s.Cancelled++
		}
	}
	s.Active = s.Total - s.Cancelled
	return s
}

type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterActive    StatusFilter = "active"
	FilterPending   StatusFilter = "pending"
	FilterConfirmed StatusFilter = "confirmed"
	FilterCancelled StatusFilter = "cancelled"
)

func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterPending, FilterConfirmed, FilterCancelled:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", model.ErrInvalidStatus, s)
	}
}

// Filter selects reservations. Court 0 matches every court; Query matches
// the customer name or phone, case-insensitively.
type Filter struct {
	Status StatusFilter
	Court  int
	Query  string
}

func (f Filter) Match(r model.Reservation) bool {
	switch f.Status {
	case FilterActive:
		if r.Status == model.StatusCancelled {
			return false
		}
	case FilterPending, FilterConfirmed, FilterCancelled:
		if string(r.Status) != string(f.Status) {
			return false
		}
	}
	if f.Court != 0 && r.Court != f.Court {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.CustomerName), q) ||
		strings.Contains(strings.ToLower(r.CustomerPhone), q)
}

func Apply(rs []model.Reservation, f Filter) []model.Reservation {
	out := make([]model.Reservation, 0, len(rs))
	for _, r := range rs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Upcoming returns the confirmed reservations that have not started yet,
// earliest first, using the business-day ordering of w.
func Upcoming(rs []model.Reservation, w model.OperatingWindow, loc *time.Location, now time.Time) []model.Reservation {
	type item struct {
		r  model.Reservation
		at time.Time
	}
	var items []item
	for _, r := range rs {
		if r.Status != model.StatusConfirmed {
			continue
		}
		at := r.Date.At(loc, availability.OrderingKey(w, r.Start))
		if at.Before(now) {
			continue
		}
		items = append(items, item{r: r, at: at})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].at.Before(items[j].at) })

	out := make([]model.Reservation, 0, len(items))
	for _, it := range items {
		out = append(out, it.r)
	}
	return out
}
