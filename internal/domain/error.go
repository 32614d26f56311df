package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrStorageUnavailable = errors.New("durable storage unavailable")

	// Purchase flow errors
	ErrPurchaseInProgress = errors.New("purchase already in progress")
	ErrPaymentDeclined    = errors.New("payment declined by gateway")
	ErrPaymentTimeout     = errors.New("payment confirmation timed out")
	ErrInvalidTier        = errors.New("unknown subscription tier")

	// Web layer errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("too many requests")
)
