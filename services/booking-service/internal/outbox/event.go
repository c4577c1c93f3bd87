package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

// Event is one row of the outbox table. The Kafka topic is EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	AggregateReservationGroup = "reservation_group"

	EventGroupCreated   = "courtbook.reservation.group.created.v1"
	EventGroupConfirmed = "courtbook.reservation.group.confirmed.v1"
	EventGroupCancelled = "courtbook.reservation.group.cancelled.v1"
	EventGroupReleased  = "courtbook.reservation.group.released.v1"
	EventDeleted        = "courtbook.reservation.deleted.v1"
)

type groupPayload struct {
	GroupID        string   `json:"group_id"`
	ReservationIDs []string `json:"reservation_ids"`
	CourtID        int      `json:"court_id"`
	Date           string   `json:"date"`
	Starts         []string `json:"starts"`
	Status         string   `json:"status"`
	OccurredAt     string   `json:"occurred_at"`
}

// GroupEvent describes a change to every record of one booking group.
func GroupEvent(eventType string, rs []model.Reservation, at time.Time) (Event, error) {
	p := groupPayload{OccurredAt: at.UTC().Format(time.RFC3339)}
	for _, r := range rs {
		if p.GroupID == "" {
			p.GroupID, p.CourtID, p.Date, p.Status = r.GroupID, r.Court, r.Date.String(), string(r.Status)
		}
		p.ReservationIDs = append(p.ReservationIDs, r.ID)
		p.Starts = append(p.Starts, r.Start.String())
	}
	aggregateID := p.GroupID
	if aggregateID == "" && len(rs) > 0 {
		aggregateID = rs[0].ID
	}
	body, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateReservationGroup,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}
