package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

// UserIDHeader carries the caller's user id when a gateway authenticated it.
const UserIDHeader = "X-User-Id"

type PublicHandler struct {
	svc    *booking.Service
	ident  *CustomerAuth
	logger *slog.Logger
}

func NewPublicHandler(svc *booking.Service, ident *CustomerAuth, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{svc: svc, ident: ident, logger: logger}
}

func (h *PublicHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/public/config", h.Config)
	mux.HandleFunc("/api/v1/public/slots", h.Slots)
	mux.HandleFunc("/api/v1/public/book", h.Book)
	mux.HandleFunc("/api/v1/reservations/cancel", h.Cancel)
	mux.HandleFunc("/api/v1/users/reservations", h.MyReservations)
}

func (h *PublicHandler) Config(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	cfg, err := h.svc.PublicConfig(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *PublicHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	date, err := model.ParseDate(q.Get("date"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	court, err := parseCourt(q.Get("court_id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	view, err := h.svc.Availability(r.Context(), court, date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type bookRequest struct {
	CourtID       int    `json:"court_id"`
	Date          string `json:"date"`
	Start         string `json:"start"`
	Slots         int    `json:"slots"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
}

func (h *PublicHandler) Book(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req bookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	start, err := model.ParseTimeOfDay(req.Start)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.Slots == 0 {
		req.Slots = 1
	}
	userID, err := h.ident.UserID(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	res, err := h.svc.Book(r.Context(), booking.BookRequest{
		Court: req.CourtID,
		Date:  date,
		Start: start,
		Slots: req.Slots,
		Customer: model.Customer{
			Name:   req.CustomerName,
			Phone:  req.CustomerPhone,
			UserID: userID,
		},
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type cancelRequest struct {
	ReservationID string `json:"reservation_id"`
}

func (h *PublicHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	userID, ok := h.ident.requireCustomer(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ReservationID) == "" {
		http.Error(w, "reservation_id required", http.StatusBadRequest)
		return
	}
	rs, err := h.svc.CancelOwned(r.Context(), strings.TrimSpace(req.ReservationID), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": rs})
}

func (h *PublicHandler) MyReservations(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := h.ident.requireCustomer(w, r)
	if !ok {
		return
	}
	rs, err := h.svc.MyReservations(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": rs})
}
