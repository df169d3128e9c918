package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidExtractions  = errors.New("extraction payload is empty or malformed")
	ErrSessionNotFound     = errors.New("review session not found")
	ErrSessionClosed       = errors.New("review session is already closed")
	ErrSessionConflict     = errors.New("review session was modified concurrently")
	ErrLineItemNotFound    = errors.New("line item not found")
	ErrInvalidReturnReason = errors.New("unknown return reason")
	ErrSkontoUnavailable   = errors.New("skonto discount is not available for this invoice")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
)
