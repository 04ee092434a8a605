package port

import "errors"

// Repository sentinel errors. Services translate them into domain errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("unique constraint violated")
)
