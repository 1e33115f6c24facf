package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrComputationTimeout = errors.New("computation timeout")
	ErrNumericInstability = errors.New("numeric instability")
)

// ParameterError carries the offending input. It matches ErrInvalidParameter under errors.Is.
type ParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s %s (got %v)", ErrInvalidParameter, e.Field, e.Reason, e.Value)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

func InvalidCount(field string, n int, reason string) error {
	return &ParameterError{Field: field, Value: float64(n), Reason: reason}
}
