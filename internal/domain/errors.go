package domain

import "errors"

var (
	// ErrRateLimited is returned by the gateway client when the upstream
	// throttles a request; the crawler answers it with a cooldown, never by
	// surfacing it past the component boundary
	ErrRateLimited = errors.New("gateway rate limited")

	// ErrBlockNotFound is returned when the gateway has no block at the
	// requested number or hash
	ErrBlockNotFound = errors.New("block not found")

	// ErrProjectionIntegrity marks a replay assertion failure (ownership,
	// fungibility or balance mismatch); it aborts the enclosing block replay
	// without committing
	ErrProjectionIntegrity = errors.New("projection integrity violation")

	// ErrUnauthorized is returned when a signature fails verification under
	// the requested hash algorithm
	ErrUnauthorized = errors.New("signature verification failed")

	// ErrOrderClosed is returned on an attempt to mutate a limit order whose
	// closing transaction is already set
	ErrOrderClosed = errors.New("limit order already closed")
)
