package availability

import "github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"

// GenerateSlots lists the start of every full-length slot in w, in business
// day order. The loop runs on unfolded minutes; each value is folded back
// onto the clock face when emitted. A trailing partial slot is not offered.
func GenerateSlots(w model.OperatingWindow) []model.TimeOfDay {
	if w.SlotMinutes <= 0 {
		return nil
	}
	end := NormalizedEnd(w)
	out := make([]model.TimeOfDay, 0, (end-int(w.OpensAt))/w.SlotMinutes)
	for m := int(w.OpensAt); m+w.SlotMinutes <= end; m += w.SlotMinutes {
		out = append(out, model.FoldMinutes(m))
	}
	return out
}

// SlotIndex returns the position of start in slots, or -1.
func SlotIndex(slots []model.TimeOfDay, start model.TimeOfDay) int {
	for i, s := range slots {
		if s == start {
			return i
		}
	}
	return -1
}
