package availability

import "github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"

type BlockSource string

const (
	SourceAdHoc BlockSource = "adhoc"
	SourceFixed BlockSource = "fixed"
)

// BlockInfo is the block reported for a blocked slot.
type BlockInfo struct {
	Source   BlockSource     `json:"source"`
	ID       string          `json:"id"`
	Kind     model.BlockKind `json:"kind,omitempty"`
	Label    string          `json:"label,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	WholeDay bool            `json:"whole_day,omitempty"`
}

// ResolveBlock returns the block covering (court, date, start), or nil.
// Whole-day ad-hoc blocks are reported first, then ranged ad-hoc blocks,
// then weekly blocks. date is the business date the slot belongs to.
func ResolveBlock(court int, date model.Date, start model.TimeOfDay, fixed []model.FixedBlock, adhoc []model.AdHocBlock) *BlockInfo {
	var ranged *BlockInfo
	for _, b := range adhoc {
		if !b.Covers(date) || !model.CourtMatches(b.Court, court) {
			continue
		}
		if b.WholeDay() {
			return &BlockInfo{Source: SourceAdHoc, ID: b.ID, Kind: b.Kind, Reason: b.Reason, WholeDay: true}
		}
		if ranged == nil && b.From != nil && b.To != nil && inRange(*b.From, *b.To, start) {
			ranged = &BlockInfo{Source: SourceAdHoc, ID: b.ID, Kind: b.Kind, Reason: b.Reason}
		}
	}
	if ranged != nil {
		return ranged
	}

	weekday := date.ISOWeekday()
	for _, b := range fixed {
		if !b.Active || !b.OnWeekday(weekday) || !model.CourtMatches(b.Court, court) {
			continue
		}
		if inRange(b.From, b.To, start) {
			return &BlockInfo{Source: SourceFixed, ID: b.ID, Label: b.Label, Reason: b.Reason}
		}
	}
	return nil
}

// inRange tests the half-open [from, to). A range with to before from wraps
// past midnight. An empty range matches nothing.
func inRange(from, to, t model.TimeOfDay) bool {
	switch {
	case from < to:
		return from <= t && t < to
	case from > to:
		return t >= from || t < to
	default:
		return false
	}
}

func validateBlocks(snap model.Snapshot) error {
	for _, b := range snap.AdHocBlocks {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	for _, b := range snap.FixedBlocks {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}
