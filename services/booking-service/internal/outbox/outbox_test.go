package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/kafkax"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

func TestGroupEventPayload(t *testing.T) {
	d, _ := model.ParseDate("2026-03-10")
	rs := []model.Reservation{
		{ID: "r1", GroupID: "g1", Court: 2, Date: d, Start: 20 * 60, Status: model.StatusPending},
		{ID: "r2", GroupID: "g1", Court: 2, Date: d, Start: 21 * 60, Status: model.StatusPending},
	}
	evt, err := GroupEvent(EventGroupCreated, rs, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GroupEvent failed: %v", err)
	}
	if evt.AggregateID != "g1" || evt.AggregateType != AggregateReservationGroup {
		t.Fatalf("unexpected envelope %+v", evt)
	}
	var p groupPayload
	if err := json.Unmarshal(evt.Payload, &p); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if len(p.Starts) != 2 || p.Starts[1] != "21:00" || p.Date != "2026-03-10" || p.Status != "pending" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage(context.Background(), Record{
		EventID:     "e-1",
		AggregateID: "g1",
		EventType:   EventGroupConfirmed,
		Payload:     []byte(`{}`),
	})
	if msg.Topic != EventGroupConfirmed || string(msg.Key) != "g1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if kafkax.HeaderValue(msg.Headers, kafkax.HeaderEventID) != "e-1" {
		t.Fatalf("missing event id header: %v", msg.Headers)
	}
}
