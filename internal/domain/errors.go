package domain

import "errors"

// Sentinel errors used for classification at the transport boundary.
// Infrastructure failures (store or broker unreachable) are never one of
// these; they stay plain wrapped errors and map to 500.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)
