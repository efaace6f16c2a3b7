package models

import "errors"

// Error kinds reported by the core. Callers branch with errors.Is; the core
// never retries on its own.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrItemUnavailable   = errors.New("item unavailable")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("concurrent modification conflict")
)
