package availability

import "github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"

// CrossesMidnight is true when the window closes at or before it opens.
func CrossesMidnight(w model.OperatingWindow) bool {
	return w.ClosesAt <= w.OpensAt
}

// NormalizedEnd is ClosesAt on the unfolded axis: past MinutesPerDay when the
// window runs into the next calendar day.
func NormalizedEnd(w model.OperatingWindow) int {
	if CrossesMidnight(w) {
		return int(w.ClosesAt) + model.MinutesPerDay
	}
	return int(w.ClosesAt)
}

// OrderingKey places t on the business day's unfolded axis, so 01:00 in a
// 14:00-02:00 window sorts after 23:00.
func OrderingKey(w model.OperatingWindow, t model.TimeOfDay) int {
	if CrossesMidnight(w) && t < w.OpensAt {
		return int(t) + model.MinutesPerDay
	}
	return int(t)
}
