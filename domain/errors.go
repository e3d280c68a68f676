package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced medicine, sale or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when an insert collides with an existing identity.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientStock is returned when a sale asks for more units than are on hand.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidInput is returned by validation, before any mutation is attempted.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPreconditionFailed means a concurrent update won the race. Safe to retry.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrStorageUnavailable means the underlying store could not be reached.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrUnauthorized is returned by the access gate for bad credentials or tokens.
	ErrUnauthorized = errors.New("unauthorized")
)
