package booking

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/admin"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

// AdminBackend is the staff-only part of the store.
type AdminBackend interface {
	UpdateConfig(ctx context.Context, cfg model.ClubConfig) error
	ListReservations(ctx context.Context, from, to model.Date) ([]model.Reservation, error)
	CreateFixedBlock(ctx context.Context, b model.FixedBlock) (model.FixedBlock, error)
	ListFixedBlocks(ctx context.Context) ([]model.FixedBlock, error)
	SetFixedBlockActive(ctx context.Context, id string, active bool) error
	DeleteFixedBlock(ctx context.Context, id string) error
	CreateAdHocBlock(ctx context.Context, b model.AdHocBlock) (model.AdHocBlock, error)
	ListAdHocBlocks(ctx context.Context, from, to model.Date) ([]model.AdHocBlock, error)
	DeleteAdHocBlock(ctx context.Context, id string) error
}

// Admin serves the staff console. Writes invalidate the snapshot cache.
type Admin struct {
	svc     *Service
	backend AdminBackend
}

func NewAdmin(svc *Service, backend AdminBackend) *Admin {
	return &Admin{svc: svc, backend: backend}
}

// MaxListDays bounds a reservation listing.
const MaxListDays = 92

type ReservationList struct {
	From         model.Date          `json:"from"`
	To           model.Date          `json:"to"`
	Stats        admin.Stats         `json:"stats"`
	Reservations []model.Reservation `json:"reservations"`
}

// Reservations lists [from, to] filtered by f. The stats cover the whole
// range before filtering.
func (a *Admin) Reservations(ctx context.Context, from, to model.Date, f admin.Filter) (ReservationList, error) {
	if to.Before(from) {
		return ReservationList{}, fmt.Errorf("%w: to before from", model.ErrInvalidDate)
	}
	if to.DayNumber()-from.DayNumber() >= MaxListDays {
		return ReservationList{}, fmt.Errorf("%w: range longer than %d days", model.ErrInvalidDate, MaxListDays)
	}
	if f.Court != 0 {
		if err := a.checkCourt(f.Court); err != nil {
			return ReservationList{}, err
		}
	}
	rs, err := a.backend.ListReservations(ctx, from, to)
	if err != nil {
		return ReservationList{}, err
	}
	return ReservationList{
		From:         from,
		To:           to,
		Stats:        admin.CountByStatus(rs),
		Reservations: admin.Apply(rs, f),
	}, nil
}

func (a *Admin) checkCourt(court int) error {
	for _, c := range a.svc.engine.Courts() {
		if c == court {
			return nil
		}
	}
	return fmt.Errorf("%w: %d", model.ErrInvalidCourt, court)
}

func (a *Admin) scopeCourt(court *int) error {
	if court == nil {
		return nil
	}
	return a.checkCourt(*court)
}

func (a *Admin) Config(ctx context.Context) (model.ClubConfig, error) {
	return a.svc.backend.Config(ctx)
}

func (a *Admin) UpdateConfig(ctx context.Context, cfg model.ClubConfig) error {
	if err := a.backend.UpdateConfig(ctx, cfg); err != nil {
		return err
	}
	a.svc.invalidate(ctx)
	a.svc.logger.Info("club config updated", "window", cfg.Window.String(), "deposit_cents", cfg.DepositCents)
	return nil
}

func (a *Admin) FixedBlocks(ctx context.Context) ([]model.FixedBlock, error) {
	return a.backend.ListFixedBlocks(ctx)
}

func (a *Admin) CreateFixedBlock(ctx context.Context, b model.FixedBlock) (model.FixedBlock, error) {
	if err := a.scopeCourt(b.Court); err != nil {
		return b, err
	}
	out, err := a.backend.CreateFixedBlock(ctx, b)
	if err != nil {
		return out, err
	}
	a.svc.invalidate(ctx)
	return out, nil
}

func (a *Admin) SetFixedBlockActive(ctx context.Context, id string, active bool) error {
	if err := a.backend.SetFixedBlockActive(ctx, id, active); err != nil {
		return err
	}
	a.svc.invalidate(ctx)
	return nil
}

func (a *Admin) DeleteFixedBlock(ctx context.Context, id string) error {
	if err := a.backend.DeleteFixedBlock(ctx, id); err != nil {
		return err
	}
	a.svc.invalidate(ctx)
	return nil
}

func (a *Admin) AdHocBlocks(ctx context.Context, from, to model.Date) ([]model.AdHocBlock, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to before from", model.ErrInvalidDate)
	}
	return a.backend.ListAdHocBlocks(ctx, from, to)
}

func (a *Admin) CreateAdHocBlock(ctx context.Context, b model.AdHocBlock) (model.AdHocBlock, error) {
	if err := a.scopeCourt(b.Court); err != nil {
		return b, err
	}
	out, err := a.backend.CreateAdHocBlock(ctx, b)
	if err != nil {
		return out, err
	}
	a.svc.invalidate(ctx)
	return out, nil
}

func (a *Admin) DeleteAdHocBlock(ctx context.Context, id string) error {
	if err := a.backend.DeleteAdHocBlock(ctx, id); err != nil {
		return err
	}
	a.svc.invalidate(ctx)
	return nil
}
