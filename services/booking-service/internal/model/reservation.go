package model

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// CanTransition reports whether a reservation in s may move to next.
// Repeating the current status is allowed so callbacks can be replayed.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	default:
		return false
	}
}

type Reservation struct {
	ID            string    `json:"id"`
	Court         int       `json:"court_id"`
	Date          Date      `json:"date"`
	Start         TimeOfDay `json:"start"`
	Status        Status    `json:"status"`
	GroupID       string    `json:"group_id,omitempty"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	UserID        string    `json:"user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Customer struct {
	Name   string
	Phone  string
	UserID string
}

// GroupRequest is the all-or-nothing write of one booking: one record per start.
type GroupRequest struct {
	GroupID  string
	Court    int
	Date     Date
	Starts   []TimeOfDay
	Status   Status
	Customer Customer
}

type GroupResult struct {
	GroupID        string   `json:"group_id"`
	ReservationIDs []string `json:"reservation_ids"`
	Status         Status   `json:"status"`
}
