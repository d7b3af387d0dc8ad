package httpapi

import "errors"

// Sentinel errors classifying upstream responses per spec.md §4.A.
var (
	// ErrNotYetPublished is returned for a 404: the item is not an error,
	// the ledger stays pending and it is retried on the next run.
	ErrNotYetPublished = errors.New("httpapi: not yet published")

	// ErrPermanentFailure is returned for a non-404 4xx: retrying will not
	// help.
	ErrPermanentFailure = errors.New("httpapi: permanent failure")

	// ErrParseError is returned when a 2xx body fails to decode as JSON.
	// It is not retried.
	ErrParseError = errors.New("httpapi: parse error")

	// ErrCircuitOpen is returned when the endpoint's ApiBackoff breaker is
	// open; no request is attempted.
	ErrCircuitOpen = errors.New("httpapi: circuit open")
)
