package store

import "errors"

// Sentinel errors for the moderation and change-request workflow. Callers
// match them with errors.Is; messages wrapped around them carry the detail.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidChangeType = errors.New("invalid change type")
	ErrMissingTarget     = errors.New("missing target")
	ErrValidation        = errors.New("validation failed")
)
