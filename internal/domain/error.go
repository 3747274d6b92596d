package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrAlreadyExists       = errors.New("entity already exists")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrGenerationExhausted = errors.New("code generation attempts exhausted")
	ErrOperationFailed     = errors.New("store operation failed")
	ErrReadDatabaseRow     = errors.New("failed to read database row")
)
