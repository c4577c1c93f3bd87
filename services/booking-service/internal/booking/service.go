// Package booking runs the availability engine against a storage backend.
// Reads may come from a cache; every write goes to the backend, which
// re-validates the booking inside its own transaction.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/admin"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

type Reader interface {
	Config(ctx context.Context) (model.ClubConfig, error)
	Snapshot(ctx context.Context, date model.Date, court int) (model.Snapshot, error)
}

// Backend is the authoritative store. CreateReservationGroup must write all
// records or none, running recheck on a snapshot read inside the write.
type Backend interface {
	Reader
	CreateReservationGroup(ctx context.Context, g model.GroupRequest, recheck func(model.OperatingWindow, model.Snapshot) error) (model.GroupResult, error)
	GetReservation(ctx context.Context, id string) (model.Reservation, error)
	SetStatus(ctx context.Context, id string, status model.Status) ([]model.Reservation, error)
	SetGroupStatus(ctx context.Context, groupID string, status model.Status) ([]model.Reservation, error)
	DeleteReservation(ctx context.Context, id string) (model.Reservation, error)
	ReleasePendingGroup(ctx context.Context, groupID string) ([]model.Reservation, error)
	ExpirePending(ctx context.Context, cutoff time.Time, limit int) ([]model.Reservation, error)
	ListUserReservations(ctx context.Context, userID string) ([]model.Reservation, error)
}

type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Options struct {
	// Reader serves availability reads. Defaults to the backend.
	Reader      Reader
	Invalidator Invalidator
	Now         func() time.Time
	Logger      *slog.Logger
}

type Service struct {
	engine  *availability.Engine
	backend Backend
	reader  Reader
	inval   Invalidator
	now     func() time.Time
	logger  *slog.Logger
}

func NewService(engine *availability.Engine, backend Backend, opts Options) *Service {
	s := &Service{
		engine:  engine,
		backend: backend,
		reader:  opts.Reader,
		inval:   opts.Invalidator,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if s.reader == nil {
		s.reader = backend
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Service) Engine() *availability.Engine { return s.engine }

// window loads the club config. A configuration error is not fatal here:
// the zero window is handed to the engine, which applies its fallback or
// fails closed.
func window(ctx context.Context, r Reader) (model.ClubConfig, error) {
	cfg, err := r.Config(ctx)
	if err != nil && errors.Is(err, model.ErrConfiguration) {
		return model.ClubConfig{DepositCents: cfg.DepositCents}, nil
	}
	return cfg, err
}

func (s *Service) invalidate(ctx context.Context) {
	if s.inval == nil {
		return
	}
	if err := s.inval.Invalidate(ctx); err != nil {
		s.logger.Warn("snapshot cache invalidation failed", "err", err)
	}
}

// PublicConfig is what customers may see of the club configuration.
type PublicConfig struct {
	Window       model.OperatingWindow `json:"window"`
	Degraded     bool                  `json:"degraded"`
	DepositCents int64                 `json:"deposit_cents"`
	Courts       []int                 `json:"courts"`
	Timezone     string                `json:"timezone"`
}

func (s *Service) PublicConfig(ctx context.Context) (PublicConfig, error) {
	cfg, err := s.reader.Config(ctx)
	out := PublicConfig{
		Window:       cfg.Window,
		DepositCents: cfg.DepositCents,
		Courts:       s.engine.Courts(),
		Timezone:     s.engine.Location().String(),
	}
	if err == nil {
		return out, nil
	}
	fallback := s.engine.Fallback()
	if !errors.Is(err, model.ErrConfiguration) || fallback == nil {
		return out, err
	}
	out.Window, out.Degraded = *fallback, true
	return out, nil
}

func (s *Service) Availability(ctx context.Context, court int, date model.Date) (availability.DayView, error) {
	cfg, err := window(ctx, s.reader)
	if err != nil {
		return availability.DayView{}, err
	}
	snap, err := s.reader.Snapshot(ctx, date, court)
	if err != nil {
		return availability.DayView{}, err
	}
	return s.engine.Day(cfg.Window, court, date, snap, s.now())
}

// Calendar reads straight from the backend so staff never see stale cells.
func (s *Service) Calendar(ctx context.Context, date model.Date) (availability.Grid, error) {
	cfg, err := window(ctx, s.backend)
	if err != nil {
		return availability.Grid{}, err
	}
	snap, err := s.backend.Snapshot(ctx, date, 0)
	if err != nil {
		return availability.Grid{}, err
	}
	return s.engine.AdminGrid(cfg.Window, date, snap, s.now())
}

type BookRequest struct {
	Court    int
	Date     model.Date
	Start    model.TimeOfDay
	Slots    int
	Customer model.Customer
}

type BookResult struct {
	model.GroupResult
	Court        int               `json:"court_id"`
	Date         model.Date        `json:"date"`
	Starts       []model.TimeOfDay `json:"starts"`
	SlotMinutes  int               `json:"slot_minutes"`
	DepositCents int64             `json:"deposit_cents"`
}

// Book checks the request against the current view, then writes every slot
// in one backend call. The records start pending while a deposit is due
// and confirmed when the club charges none.
func (s *Service) Book(ctx context.Context, req BookRequest) (BookResult, error) {
	req.Customer.Name = strings.TrimSpace(req.Customer.Name)
	req.Customer.Phone = strings.TrimSpace(req.Customer.Phone)
	if req.Customer.Name == "" {
		return BookResult{}, fmt.Errorf("%w: customer name required", model.ErrInvalidInput)
	}

	cfg, err := window(ctx, s.reader)
	if err != nil {
		return BookResult{}, err
	}
	snap, err := s.reader.Snapshot(ctx, req.Date, req.Court)
	if err != nil {
		return BookResult{}, err
	}
	proposal, err := s.engine.ProposeBooking(cfg.Window, availability.BookingRequest{
		Court: req.Court,
		Date:  req.Date,
		Start: req.Start,
		Slots: req.Slots,
	}, snap, s.now())
	if err != nil {
		return BookResult{}, err
	}

	status := model.StatusPending
	if cfg.DepositCents == 0 {
		status = model.StatusConfirmed
	}
	res, err := s.backend.CreateReservationGroup(ctx, model.GroupRequest{
		GroupID:  proposal.GroupID,
		Court:    proposal.Court,
		Date:     proposal.Date,
		Starts:   proposal.Starts,
		Status:   status,
		Customer: req.Customer,
	}, func(w model.OperatingWindow, fresh model.Snapshot) error {
		return s.engine.Verify(proposal, w, fresh, s.now())
	})
	if err != nil {
		if errors.Is(err, model.ErrSlotNotFree) {
			s.logger.Info("booking lost race", "court", req.Court, "date", req.Date.String(), "start", req.Start.String(), "err", err)
		}
		return BookResult{}, err
	}
	s.invalidate(ctx)
	s.logger.Info("reservation group created", "group_id", res.GroupID, "court", proposal.Court, "date", proposal.Date.String(), "slots", len(proposal.Starts), "status", string(status))

	return BookResult{
		GroupResult:  res,
		Court:        proposal.Court,
		Date:         proposal.Date,
		Starts:       proposal.Starts,
		SlotMinutes:  proposal.SlotMinutes,
		DepositCents: cfg.DepositCents,
	}, nil
}

// Confirm confirms a reservation and every record of its group.
func (s *Service) Confirm(ctx context.Context, id string) ([]model.Reservation, error) {
	return s.setStatus(ctx, id, model.StatusConfirmed)
}

func (s *Service) Cancel(ctx context.Context, id string) ([]model.Reservation, error) {
	return s.setStatus(ctx, id, model.StatusCancelled)
}

// CancelOwned cancels on behalf of a customer. A reservation owned by
// someone else reads as not found.
func (s *Service) CancelOwned(ctx context.Context, id, userID string) ([]model.Reservation, error) {
	r, err := s.backend.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID == "" || r.UserID != userID {
		return nil, fmt.Errorf("%w: reservation %s", model.ErrNotFound, id)
	}
	return s.Cancel(ctx, id)
}

func (s *Service) setStatus(ctx context.Context, id string, status model.Status) ([]model.Reservation, error) {
	rs, err := s.backend.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return rs, nil
}

func (s *Service) ConfirmGroup(ctx context.Context, groupID string) ([]model.Reservation, error) {
	return s.setGroupStatus(ctx, groupID, model.StatusConfirmed)
}

func (s *Service) CancelGroup(ctx context.Context, groupID string) ([]model.Reservation, error) {
	return s.setGroupStatus(ctx, groupID, model.StatusCancelled)
}

func (s *Service) setGroupStatus(ctx context.Context, groupID string, status model.Status) ([]model.Reservation, error) {
	rs, err := s.backend.SetGroupStatus(ctx, groupID, status)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return rs, nil
}

// Delete removes one record for good. Cancellation is the soft form.
func (s *Service) Delete(ctx context.Context, id string) (model.Reservation, error) {
	r, err := s.backend.DeleteReservation(ctx, id)
	if err != nil {
		return r, err
	}
	s.invalidate(ctx)
	return r, nil
}

// ReleaseGroup drops the pending records of an abandoned checkout.
func (s *Service) ReleaseGroup(ctx context.Context, groupID string) (int, error) {
	rs, err := s.backend.ReleasePendingGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	if len(rs) > 0 {
		s.invalidate(ctx)
	}
	return len(rs), nil
}

// ExpireAbandoned deletes up to limit pending groups older than ttl and
// returns how many groups went.
func (s *Service) ExpireAbandoned(ctx context.Context, ttl time.Duration, limit int) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rs, err := s.backend.ExpirePending(ctx, s.now().Add(-ttl), limit)
	if err != nil {
		return 0, err
	}
	if len(rs) == 0 {
		return 0, nil
	}
	s.invalidate(ctx)
	groups := map[string]bool{}
	for _, r := range rs {
		key := r.GroupID
		if key == "" {
			key = r.ID
		}
		groups[key] = true
	}
	return len(groups), nil
}

// MyReservations is the customer's confirmed reservations still to come.
func (s *Service) MyReservations(ctx context.Context, userID string) ([]model.Reservation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id required", model.ErrInvalidInput)
	}
	rs, err := s.backend.ListUserReservations(ctx, userID)
	if err != nil {
		return nil, err
	}
	cfg, err := window(ctx, s.reader)
	if err != nil {
		return nil, err
	}
	w := cfg.Window
	if w.Validate() != nil {
		if fb := s.engine.Fallback(); fb != nil {
			w = *fb
		}
	}
	return admin.Upcoming(rs, w, s.engine.Location(), s.now()), nil
}
