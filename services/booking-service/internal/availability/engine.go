package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

// State is the classification of one slot for public availability.
type State string

const (
	StatePast     State = "past"
	StateReserved State = "reserved"
	StateBlocked  State = "blocked"
	StateFree     State = "free"
)

// DefaultFallbackWindow is the schedule listed when the stored window is
// unusable and no other fallback was configured: 14:00 to 00:00 in 60 minute
// slots. Each call returns a fresh value.
func DefaultFallbackWindow() model.OperatingWindow {
	return model.OperatingWindow{OpensAt: 14 * 60, ClosesAt: 0, SlotMinutes: 60}
}

type Config struct {
	Courts   []int
	Location *time.Location
	// Fallback is listed (read-only) when the stored window is invalid.
	// Nil means an invalid window yields zero slots.
	Fallback   *model.OperatingWindow
	NewGroupID func() string
}

// Engine classifies slots and validates bookings. It holds no mutable state;
// every call works from the window and snapshot it is given.
type Engine struct {
	courts     []int
	known      map[int]bool
	loc        *time.Location
	fallback   *model.OperatingWindow
	newGroupID func() string
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		known:      make(map[int]bool, len(cfg.Courts)),
		loc:        cfg.Location,
		fallback:   cfg.Fallback,
		newGroupID: cfg.NewGroupID,
	}
	for _, c := range cfg.Courts {
		if c > 0 && !e.known[c] {
			e.known[c] = true
			e.courts = append(e.courts, c)
		}
	}
	sort.Ints(e.courts)
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.newGroupID == nil {
		e.newGroupID = uuid.NewString
	}
	return e
}

func (e *Engine) Courts() []int {
	return append([]int(nil), e.courts...)
}

func (e *Engine) Location() *time.Location { return e.loc }

// Fallback returns a copy of the listing fallback window, or nil.
func (e *Engine) Fallback() *model.OperatingWindow {
	if e.fallback == nil {
		return nil
	}
	w := *e.fallback
	return &w
}

func (e *Engine) checkCourt(court int) error {
	if !e.known[court] {
		return fmt.Errorf("%w: %d", model.ErrInvalidCourt, court)
	}
	return nil
}

// listingWindow picks the window a listing is built from.
func (e *Engine) listingWindow(w model.OperatingWindow) (model.OperatingWindow, bool, error) {
	err := w.Validate()
	if err == nil {
		return w, false, nil
	}
	if e.fallback != nil {
		return *e.fallback, true, nil
	}
	return model.OperatingWindow{}, false, err
}

// SlotInstant is the real start of a slot. Starts before OpensAt in a window
// crossing midnight fall on the next calendar day.
func (e *Engine) SlotInstant(w model.OperatingWindow, date model.Date, start model.TimeOfDay) time.Time {
	return date.At(e.loc, OrderingKey(w, start))
}

// DayOver reports whether every slot of the business date has started.
func (e *Engine) DayOver(w model.OperatingWindow, date model.Date, now time.Time) bool {
	return !date.At(e.loc, NormalizedEnd(w)).After(now)
}

func (e *Engine) classify(w model.OperatingWindow, court int, date model.Date, start model.TimeOfDay, ix Index, snap model.Snapshot, now time.Time) (State, *BlockInfo) {
	if e.SlotInstant(w, date, start).Before(now) {
		return StatePast, nil
	}
	if ix.StatusAt(court, start) == StatusConfirmed {
		return StateReserved, nil
	}
	if b := ResolveBlock(court, date, start, snap.FixedBlocks, snap.AdHocBlocks); b != nil {
		return StateBlocked, b
	}
	return StateFree, nil
}

// Classify returns the state of one slot. Same inputs, same answer.
func (e *Engine) Classify(w model.OperatingWindow, court int, date model.Date, start model.TimeOfDay, snap model.Snapshot, now time.Time) (State, error) {
	if err := e.checkCourt(court); err != nil {
		return "", err
	}
	lw, _, err := e.listingWindow(w)
	if err != nil {
		return "", err
	}
	if err := validateBlocks(snap); err != nil {
		return "", err
	}
	if SlotIndex(GenerateSlots(lw), start) < 0 {
		return "", fmt.Errorf("%w: %s", model.ErrUnknownSlot, start)
	}
	state, _ := e.classify(lw, court, date, start, BuildIndex(date, snap.Reservations), snap, now)
	return state, nil
}

type SlotView struct {
	Start model.TimeOfDay `json:"start"`
	End   model.TimeOfDay `json:"end"`
	State State           `json:"state"`
	Block *BlockInfo      `json:"block,omitempty"`
	// DoubleOK is set when a two-slot booking may start here.
	DoubleOK bool `json:"double_ok"`
}

type DayView struct {
	Court    int                   `json:"court_id"`
	Date     model.Date            `json:"date"`
	Window   model.OperatingWindow `json:"window"`
	Degraded bool                  `json:"degraded"`
	Slots    []SlotView            `json:"slots"`
}

// Day lists every generated slot of date for court. On a misconfigured window
// it lists the fallback window flagged as degraded, or returns zero slots and
// ErrWindowMisconfigured when no fallback is set.
func (e *Engine) Day(w model.OperatingWindow, court int, date model.Date, snap model.Snapshot, now time.Time) (DayView, error) {
	view := DayView{Court: court, Date: date, Slots: []SlotView{}}
	if err := e.checkCourt(court); err != nil {
		return view, err
	}
	lw, degraded, err := e.listingWindow(w)
	if err != nil {
		return view, err
	}
	if e.DayOver(lw, date, now) {
		return view, fmt.Errorf("%w: %s is in the past", model.ErrInvalidDate, date)
	}
	if err := validateBlocks(snap); err != nil {
		return view, err
	}
	view.Window = lw
	view.Degraded = degraded

	ix := BuildIndex(date, snap.Reservations)
	slots := GenerateSlots(lw)
	view.Slots = make([]SlotView, 0, len(slots))
	for _, s := range slots {
		state, block := e.classify(lw, court, date, s, ix, snap, now)
		view.Slots = append(view.Slots, SlotView{
			Start: s,
			End:   model.FoldMinutes(int(s) + lw.SlotMinutes),
			State: state,
			Block: block,
		})
	}
	for i := range view.Slots {
		view.Slots[i].DoubleOK = i+1 < len(view.Slots) &&
			view.Slots[i].State == StateFree && view.Slots[i+1].State == StateFree
	}
	return view, nil
}

type BookingRequest struct {
	Court int
	Date  model.Date
	Start model.TimeOfDay
	Slots int
}

// Proposal is a validated booking: the starts that must be written together
// under one group id.
type Proposal struct {
	GroupID     string
	Court       int
	Date        model.Date
	Starts      []model.TimeOfDay
	SlotMinutes int
}

// ProposeBooking validates req against the snapshot. It never books against
// a fallback window. A two-slot request needs the next generated slot, so it
// is refused on the last slot of the day.
func (e *Engine) ProposeBooking(w model.OperatingWindow, req BookingRequest, snap model.Snapshot, now time.Time) (Proposal, error) {
	if req.Slots != 1 && req.Slots != 2 {
		return Proposal{}, fmt.Errorf("%w: %d slots", model.ErrInvalidDuration, req.Slots)
	}
	if err := e.checkCourt(req.Court); err != nil {
		return Proposal{}, err
	}
	if !req.Start.Valid() {
		return Proposal{}, fmt.Errorf("%w: %d", model.ErrInvalidTimeFormat, int(req.Start))
	}
	if err := w.Validate(); err != nil {
		return Proposal{}, err
	}
	if e.DayOver(w, req.Date, now) {
		return Proposal{}, fmt.Errorf("%w: %s is in the past", model.ErrInvalidDate, req.Date)
	}
	if err := validateBlocks(snap); err != nil {
		return Proposal{}, err
	}

	slots := GenerateSlots(w)
	i := SlotIndex(slots, req.Start)
	if i < 0 {
		return Proposal{}, fmt.Errorf("%w: %s", model.ErrUnknownSlot, req.Start)
	}
	if i+req.Slots > len(slots) {
		return Proposal{}, fmt.Errorf("%w: %s is the last slot", model.ErrNoFollowingSlot, req.Start)
	}

	starts := append([]model.TimeOfDay(nil), slots[i:i+req.Slots]...)
	if err := e.checkFree(w, req.Court, req.Date, starts, snap, now); err != nil {
		return Proposal{}, err
	}
	return Proposal{
		GroupID:     e.newGroupID(),
		Court:       req.Court,
		Date:        req.Date,
		Starts:      starts,
		SlotMinutes: w.SlotMinutes,
	}, nil
}

// Verify re-runs the free check of p against a fresher window and snapshot.
// Backends call it inside their write transaction.
func (e *Engine) Verify(p Proposal, w model.OperatingWindow, snap model.Snapshot, now time.Time) error {
	if len(p.Starts) != 1 && len(p.Starts) != 2 {
		return fmt.Errorf("%w: %d slots", model.ErrInvalidDuration, len(p.Starts))
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if w.SlotMinutes != p.SlotMinutes {
		return fmt.Errorf("%w: slot length changed", model.ErrSlotNotFree)
	}
	if err := validateBlocks(snap); err != nil {
		return err
	}
	slots := GenerateSlots(w)
	i := SlotIndex(slots, p.Starts[0])
	if i < 0 || i+len(p.Starts) > len(slots) {
		return fmt.Errorf("%w: %s no longer offered", model.ErrSlotNotFree, p.Starts[0])
	}
	for k, s := range p.Starts {
		if slots[i+k] != s {
			return fmt.Errorf("%w: %s no longer consecutive", model.ErrSlotNotFree, s)
		}
	}
	return e.checkFree(w, p.Court, p.Date, p.Starts, snap, now)
}

func (e *Engine) checkFree(w model.OperatingWindow, court int, date model.Date, starts []model.TimeOfDay, snap model.Snapshot, now time.Time) error {
	ix := BuildIndex(date, snap.Reservations)
	for _, s := range starts {
		if state, _ := e.classify(w, court, date, s, ix, snap, now); state != StateFree {
			return fmt.Errorf("%w: %s is %s", model.ErrSlotNotFree, s, state)
		}
	}
	return nil
}

type GridCell struct {
	Court       int                `json:"court_id"`
	State       State              `json:"state"`
	Reservation *model.Reservation `json:"reservation,omitempty"`
	Block       *BlockInfo         `json:"block,omitempty"`
}

type GridRow struct {
	Start model.TimeOfDay `json:"start"`
	End   model.TimeOfDay `json:"end"`
	Cells []GridCell      `json:"cells"`
}

// Grid is the staff calendar for one date across all courts.
type Grid struct {
	Date     model.Date            `json:"date"`
	Window   model.OperatingWindow `json:"window"`
	Degraded bool                  `json:"degraded"`
	Courts   []int                 `json:"courts"`
	Rows     []GridRow             `json:"rows"`
}

// AdminGrid is like Day for every court, with the retained pending or
// confirmed reservation attached to each cell. Past dates are allowed.
func (e *Engine) AdminGrid(w model.OperatingWindow, date model.Date, snap model.Snapshot, now time.Time) (Grid, error) {
	grid := Grid{Date: date, Courts: e.Courts(), Rows: []GridRow{}}
	lw, degraded, err := e.listingWindow(w)
	if err != nil {
		return grid, err
	}
	if err := validateBlocks(snap); err != nil {
		return grid, err
	}
	grid.Window = lw
	grid.Degraded = degraded

	ix := BuildIndex(date, snap.Reservations)
	for _, s := range GenerateSlots(lw) {
		row := GridRow{Start: s, End: model.FoldMinutes(int(s) + lw.SlotMinutes), Cells: make([]GridCell, 0, len(grid.Courts))}
		for _, c := range grid.Courts {
			state, block := e.classify(lw, c, date, s, ix, snap, now)
			cell := GridCell{Court: c, State: state, Block: block}
			if r, ok := ix.At(c, s); ok && r.Status != model.StatusCancelled {
				r := r
				cell.Reservation = &r
			}
			row.Cells = append(row.Cells, cell)
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, nil
}
