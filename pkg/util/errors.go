// Package util provides the shared logger and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the module's failure classes
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrNotFound         = errors.New("resource not found")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrValidationFailed = errors.New("validation failed")
	ErrParseFailed      = errors.New("message parse failed")
	ErrEncodeFailed     = errors.New("message encode failed")
	ErrNotConnected     = errors.New("not connected to message bus")
	ErrPublishFailed    = errors.New("publish failed")
)

// NotFoundError names a missing resource: an unknown subdevice key or an
// unknown capability reference within a subdevice.
type NotFoundError struct {
	Resource string // "device", "sensor", "actuator", "alarm", "configuration"
	Device   string
	Name     string
}

func (e *NotFoundError) Error() string {
	if e.Device != "" && e.Resource != "device" {
		return fmt.Sprintf("%s '%s' not defined for device '%s'", e.Resource, e.Name, e.Device)
	}
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}

// ParseError describes an inbound message that did not conform to its
// protocol. Non-fatal: the message is logged and dropped.
type ParseError struct {
	Channel string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse message on channel '%s': %s", e.Channel, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrParseFailed
}

// EncodeError describes a domain object the codec refused to serialize.
type EncodeError struct {
	Kind   string
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("unable to encode %s message: %s", e.Kind, e.Reason)
}

func (e *EncodeError) Unwrap() error {
	return ErrEncodeFailed
}
