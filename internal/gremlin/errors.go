package gremlin

import (
	"errors"
	"fmt"
	"time"

	"github.com/moorebrett0/gremlin/internal/store"
)

var (
	// ErrNotFound and ErrAlreadyExists are the store's sentinels, re-exported
	// so callers need only this package.
	ErrNotFound      = store.ErrNotFound
	ErrAlreadyExists = store.ErrAlreadyExists

	ErrNotTransformed = errors.New("pet is not transformed")
	ErrInvalidName    = errors.New("invalid pet name")
	ErrInvalidOwner   = errors.New("owner id is required")
	ErrUnknownAction  = errors.New("unknown action")
)

// TooSoonError rejects a revert attempted before the transformation has
// lasted long enough.
type TooSoonError struct {
	Remaining time.Duration
}

func (e *TooSoonError) Error() string {
	return fmt.Sprintf("revert not allowed yet, %s remaining", e.Remaining.Round(time.Minute))
}

// CooldownError rejects a command repeated within its cooldown.
type CooldownError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s is on cooldown for %s", e.Action, e.RetryAfter.Round(10*time.Millisecond))
}
