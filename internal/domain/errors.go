package domain

import "errors"

// Sentinel errors shared by every layer. Wrap them with fmt.Errorf("...: %w").
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrAllowanceExhausted = errors.New("new card allowance exhausted")
)
