package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidInput  = errors.New("invalid pricing input")
	ErrUnknownPolicy = errors.New("unknown hedging policy")
	ErrPathTooShort  = errors.New("price path shorter than step count")
	ErrRunSettled    = errors.New("run already settled")
	ErrLockHeld      = errors.New("lock held by another holder")
)

// ConfigError reports a single rejected simulation parameter. It matches
// ErrInvalidConfig under errors.Is, and Err as well when set.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidConfig) succeed.
func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidConfig, e.Err}
	}
	return []error{ErrInvalidConfig}
}
