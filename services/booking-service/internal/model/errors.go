package model

import (
	"errors"
	"fmt"
)

// Error categories. Specific errors below wrap exactly one of them, so callers
// can branch with errors.Is on either level.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrConfiguration = errors.New("configuration error")
	ErrSlotNotFree   = errors.New("slot not free")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
)

var (
	ErrInvalidTimeFormat = fmt.Errorf("%w: invalid time format", ErrInvalidInput)
	ErrInvalidDate       = fmt.Errorf("%w: invalid date", ErrInvalidInput)
	ErrInvalidCourt      = fmt.Errorf("%w: invalid court", ErrInvalidInput)
	ErrInvalidDuration   = fmt.Errorf("%w: invalid duration", ErrInvalidInput)
	ErrInvalidBlock      = fmt.Errorf("%w: invalid block", ErrInvalidInput)
	ErrInvalidStatus     = fmt.Errorf("%w: invalid status", ErrInvalidInput)
	ErrUnknownSlot       = fmt.Errorf("%w: not a generated slot", ErrInvalidInput)
	ErrNoFollowingSlot   = fmt.Errorf("%w: no following slot in the operating window", ErrInvalidInput)

	ErrWindowMisconfigured = fmt.Errorf("%w: operating window misconfigured", ErrConfiguration)

	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrConflict)
)
