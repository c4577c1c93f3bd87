package availability

import "github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"

type SlotStatus string

const (
	StatusAbsent    SlotStatus = "absent"
	StatusPending   SlotStatus = "pending"
	StatusConfirmed SlotStatus = "confirmed"
	StatusCancelled SlotStatus = "cancelled"
)

type slotKey struct {
	court int
	start model.TimeOfDay
}

// Index maps (court, start) to the reservation retained for that slot on one
// business date.
type Index struct {
	date  model.Date
	slots map[slotKey]model.Reservation
}

// BuildIndex keeps one reservation per slot of date. On duplicates a
// confirmed record outranks the rest; otherwise the newest CreatedAt wins and
// ties go to the later element.
func BuildIndex(date model.Date, reservations []model.Reservation) Index {
	ix := Index{date: date, slots: make(map[slotKey]model.Reservation, len(reservations))}
	for _, r := range reservations {
		if r.Date != date {
			continue
		}
		key := slotKey{court: r.Court, start: r.Start}
		if cur, ok := ix.slots[key]; ok && !supersedes(r, cur) {
			continue
		}
		ix.slots[key] = r
	}
	return ix
}

func supersedes(next, cur model.Reservation) bool {
	nextConfirmed := next.Status == model.StatusConfirmed
	curConfirmed := cur.Status == model.StatusConfirmed
	if nextConfirmed != curConfirmed {
		return nextConfirmed
	}
	return !next.CreatedAt.Before(cur.CreatedAt)
}

func (ix Index) StatusAt(court int, start model.TimeOfDay) SlotStatus {
	r, ok := ix.slots[slotKey{court: court, start: start}]
	if !ok {
		return StatusAbsent
	}
	switch r.Status {
	case model.StatusConfirmed:
		return StatusConfirmed
	case model.StatusPending:
		return StatusPending
	case model.StatusCancelled:
		return StatusCancelled
	default:
		return StatusAbsent
	}
}

func (ix Index) At(court int, start model.TimeOfDay) (model.Reservation, bool) {
	r, ok := ix.slots[slotKey{court: court, start: start}]
	return r, ok
}

func (ix Index) Len() int { return len(ix.slots) }
