package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrSlotNotFree), errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
		http.Error(w, "internal error", code)
		return
	}
	if code == http.StatusServiceUnavailable {
		logger.Warn("club misconfigured", "err", err)
	}
	http.Error(w, err.Error(), code)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return false
	}
	return true
}

func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func parseCourt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, model.ErrInvalidCourt
	}
	return n, nil
}

func parseOptionalTime(s string) (*model.TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := model.ParseTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type idRequest struct {
	ID            string `json:"id"`
	ReservationID string `json:"reservation_id"`
	GroupID       string `json:"group_id"`
}

func (req idRequest) reservationID() string {
	if id := strings.TrimSpace(req.ReservationID); id != "" {
		return id
	}
	return strings.TrimSpace(req.ID)
}
