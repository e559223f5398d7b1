package components

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter indicates a construction parameter outside its valid range.
var ErrInvalidParameter = errors.New("components: invalid parameter")

// ParamError names the offending component field.
type ParamError struct {
	Component string
	Field     string
	Value     float64
	Reason    string
}

func (e *ParamError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "must be positive"
	}
	return fmt.Sprintf("%s: %s %s, got %g", e.Component, e.Field, reason, e.Value)
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}

func requirePositive(component, field string, v float64) error {
	if v > 0 {
		return nil
	}
	return &ParamError{Component: component, Field: field, Value: v}
}
