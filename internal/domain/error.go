package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPaymentService    = errors.New("payment service failure")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrTaskExecution     = errors.New("task execution failed")
)
