package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Payment lifecycle errors
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrPaymentNotPending  = errors.New("payment is not pending")
	ErrPlanInactive       = errors.New("subscription plan is not active")
	ErrMethodNotSupported = errors.New("payment method not supported")
	ErrPaymentLocked      = errors.New("payment is being processed by another worker")
)
