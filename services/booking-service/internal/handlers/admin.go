package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/admin"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

type AdminHandler struct {
	svc    *booking.Service
	admin  *booking.Admin
	auth   *AdminAuth
	logger *slog.Logger
}

func NewAdminHandler(svc *booking.Service, adm *booking.Admin, authCfg *AdminAuth, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, admin: adm, auth: authCfg, logger: logger}
}

func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/admin/login", h.auth.Login)

	protect := func(path string, fn http.HandlerFunc) {
		mux.Handle(path, h.auth.RequireAdmin(fn))
	}
	protect("/api/v1/admin/reservations", h.Reservations)
	protect("/api/v1/admin/reservations/confirm", h.Confirm)
	protect("/api/v1/admin/reservations/cancel", h.Cancel)
	protect("/api/v1/admin/reservations/delete", h.Delete)
	protect("/api/v1/admin/calendar", h.Calendar)
	protect("/api/v1/admin/blocks", h.AdHocBlocks)
	protect("/api/v1/admin/blocks/delete", h.DeleteAdHocBlock)
	protect("/api/v1/admin/fixed-blocks", h.FixedBlocks)
	protect("/api/v1/admin/fixed-blocks/active", h.SetFixedBlockActive)
	protect("/api/v1/admin/fixed-blocks/delete", h.DeleteFixedBlock)
	protect("/api/v1/admin/config", h.Config)
}

// dateRange reads from/to, or a single date, defaulting to today in the
// club's timezone.
func (h *AdminHandler) dateRange(r *http.Request) (model.Date, model.Date, error) {
	q := r.URL.Query()
	fromS, toS := q.Get("from"), q.Get("to")
	if d := q.Get("date"); d != "" {
		fromS, toS = d, d
	}
	today := model.DateOf(h.adminNow().In(h.svc.Engine().Location()))
	from, to := today, today
	var err error
	if fromS != "" {
		if from, err = model.ParseDate(fromS); err != nil {
			return from, to, err
		}
		to = from
	}
	if toS != "" {
		if to, err = model.ParseDate(toS); err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}

func (h *AdminHandler) adminNow() time.Time { return h.auth.now() }

func (h *AdminHandler) Reservations(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	from, to, err := h.dateRange(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	status, err := admin.ParseStatusFilter(q.Get("status"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	f := admin.Filter{Status: status, Query: q.Get("q")}
	if c := q.Get("court_id"); c != "" {
		if f.Court, err = parseCourt(c); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	list, err := h.admin.Reservations(r.Context(), from, to, f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		rs  []model.Reservation
		err error
	)
	switch {
	case strings.TrimSpace(req.GroupID) != "":
		rs, err = h.svc.ConfirmGroup(r.Context(), strings.TrimSpace(req.GroupID))
	case req.reservationID() != "":
		rs, err = h.svc.Confirm(r.Context(), req.reservationID())
	default:
		http.Error(w, "reservation_id or group_id required", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": rs})
}

func (h *AdminHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.reservationID() == "" {
		http.Error(w, "reservation_id required", http.StatusBadRequest)
		return
	}
	rs, err := h.svc.Cancel(r.Context(), req.reservationID())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": rs})
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.reservationID() == "" {
		http.Error(w, "reservation_id required", http.StatusBadRequest)
		return
	}
	res, err := h.svc.Delete(r.Context(), req.reservationID())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("reservation deleted", "reservation_id", res.ID, "court", res.Court, "date", res.Date.String())
	writeJSON(w, http.StatusOK, map[string]any{"deleted": res})
}

func (h *AdminHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	from, _, err := h.dateRange(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	grid, err := h.svc.Calendar(r.Context(), from)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

type adhocBlockRequest struct {
	CourtID  *int   `json:"court_id"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	From     string `json:"from"`
	To       string `json:"to"`
	Reason   string `json:"reason"`
	Kind     string `json:"kind"`
}

func (req adhocBlockRequest) block() (model.AdHocBlock, error) {
	b := model.AdHocBlock{Court: req.CourtID, Reason: strings.TrimSpace(req.Reason)}
	var err error
	if b.DateFrom, err = model.ParseDate(req.DateFrom); err != nil {
		return b, err
	}
	b.DateTo = b.DateFrom
	if req.DateTo != "" {
		if b.DateTo, err = model.ParseDate(req.DateTo); err != nil {
			return b, err
		}
	}
	if b.From, err = parseOptionalTime(req.From); err != nil {
		return b, err
	}
	if b.To, err = parseOptionalTime(req.To); err != nil {
		return b, err
	}
	if b.Kind, err = model.ParseBlockKind(req.Kind); err != nil {
		return b, err
	}
	return b, nil
}

func (h *AdminHandler) AdHocBlocks(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodGet {
		from, to, err := h.dateRange(r)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		blocks, err := h.admin.AdHocBlocks(r.Context(), from, to)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"blocks": blocks})
		return
	}

	var req adhocBlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := req.block()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	created, err := h.admin.CreateAdHocBlock(r.Context(), b)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) DeleteAdHocBlock(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.admin.DeleteAdHocBlock(r.Context(), strings.TrimSpace(req.ID)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": req.ID})
}

type fixedBlockRequest struct {
	CourtID  *int   `json:"court_id"`
	Weekdays []int  `json:"weekdays"`
	From     string `json:"from"`
	To       string `json:"to"`
	Active   *bool  `json:"active"`
	Label    string `json:"label"`
	Reason   string `json:"reason"`
}

func (h *AdminHandler) FixedBlocks(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodGet {
		blocks, err := h.admin.FixedBlocks(r.Context())
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"blocks": blocks})
		return
	}

	var req fixedBlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	from, err := model.ParseTimeOfDay(req.From)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	to, err := model.ParseTimeOfDay(req.To)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	b := model.FixedBlock{
		Court:    req.CourtID,
		Weekdays: req.Weekdays,
		From:     from,
		To:       to,
		Active:   req.Active == nil || *req.Active,
		Label:    strings.TrimSpace(req.Label),
		Reason:   strings.TrimSpace(req.Reason),
	}
	created, err := h.admin.CreateFixedBlock(r.Context(), b)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type fixedBlockActiveRequest struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

func (h *AdminHandler) SetFixedBlockActive(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req fixedBlockActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.admin.SetFixedBlockActive(r.Context(), strings.TrimSpace(req.ID), req.Active); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *AdminHandler) DeleteFixedBlock(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req idRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.admin.DeleteFixedBlock(r.Context(), strings.TrimSpace(req.ID)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": req.ID})
}

type configRequest struct {
	OpensAt      string `json:"opens_at"`
	ClosesAt     string `json:"closes_at"`
	SlotMinutes  int    `json:"slot_minutes"`
	DepositCents int64  `json:"deposit_cents"`
}

func (h *AdminHandler) Config(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet, http.MethodPut) {
		return
	}
	if r.Method == http.MethodGet {
		cfg, err := h.admin.Config(r.Context())
		if err != nil {
			// Staff still see the stored values so they can repair them.
			writeJSON(w, statusFor(err), map[string]any{"config": cfg, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
		return
	}

	var req configRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var cfg model.ClubConfig
	var err error
	if cfg.Window.OpensAt, err = model.ParseTimeOfDay(req.OpensAt); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if cfg.Window.ClosesAt, err = model.ParseTimeOfDay(req.ClosesAt); err != nil {
		writeError(w, h.logger, err)
		return
	}
	cfg.Window.SlotMinutes = req.SlotMinutes
	cfg.DepositCents = req.DepositCents
	if err := h.admin.UpdateConfig(r.Context(), cfg); err != nil {
		if statusFor(err) == http.StatusServiceUnavailable {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"config": cfg})
}
