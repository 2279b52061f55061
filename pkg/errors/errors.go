// Package errors provides the typed errors used across pricemap.
//
// Adapter failures are contained inside a refresh run and surface as
// AdapterError entries in the run report. Publish failures are MergeError
// values. Readers of the catalog see NotFoundError and NotReadyError, which
// the query service maps to 404 and 503 respectively.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Aliases for the standard library helpers so callers need one import.
var (
	New = errors.New
	Is  = errors.Is
	As  = errors.As
)

// Sentinel errors.
var (
	// ErrNotFound indicates that a requested key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotReady indicates that no catalog has been published yet.
	ErrNotReady = errors.New("not ready")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAPIKeyRequired indicates that a source needs credentials.
	ErrAPIKeyRequired = errors.New("API key required")

	// ErrProviderUnavailable indicates a 5xx or unreachable source.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimited indicates a 429 from a source.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation hit its deadline.
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = errors.New("operation canceled")

	// ErrRefreshInProgress is returned when a refresh is requested while
	// another one holds the gate.
	ErrRefreshInProgress = errors.New("refresh already running")
)

// AdapterError records one adapter's failure inside a refresh run.
type AdapterError struct {
	Provider string
	Op       string // "fetch", "parse", "panic"
	Err      error
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	op := e.Op
	if op == "" {
		op = "fetch"
	}
	return fmt.Sprintf("adapter %s failed during %s: %v", e.Provider, op, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Is maps context errors onto ErrTimeout and ErrCanceled.
func (e *AdapterError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return errors.Is(e.Err, context.DeadlineExceeded)
	case ErrCanceled:
		return errors.Is(e.Err, context.Canceled)
	}
	return false
}

// NewAdapterError creates a new AdapterError.
func NewAdapterError(provider, op string, err error) *AdapterError {
	return &AdapterError{Provider: provider, Op: op, Err: err}
}

// MergeError is fatal to a refresh run: the previous catalog stays active.
type MergeError struct {
	Stage string // "aggregate", "encode", "persist"
	Path  string
	Err   error
}

// Error implements the error interface.
func (e *MergeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("merge failed at %s (%s): %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("merge failed at %s: %v", e.Stage, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *MergeError) Unwrap() error {
	return e.Err
}

// NewMergeError creates a new MergeError.
func NewMergeError(stage, path string, err error) *MergeError {
	return &MergeError{Stage: stage, Path: path, Err: err}
}

// NotFoundError represents a lookup for a key that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NotReadyError is returned by reads before any catalog was published.
type NotReadyError struct {
	Resource string
}

// Error implements the error interface.
func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s not ready", e.Resource)
}

// Is implements errors.Is support.
func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}

// NewNotReadyError creates a new NotReadyError.
func NewNotReadyError(resource string) *NotReadyError {
	return &NotReadyError{Resource: resource}
}

// ValidationError represents invalid input or configuration.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents a non-2xx response from a source.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Provider, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == 429:
		return target == ErrRateLimited
	case e.StatusCode == 401 || e.StatusCode == 403:
		return target == ErrAPIKeyRequired
	case e.StatusCode >= 500:
		return target == ErrProviderUnavailable
	}
	return false
}

// ConfigError represents a configuration problem.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError represents a failure decoding JSON, YAML or HTML.
type ParseError struct {
	Format  string
	File    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents a filesystem or network read/write failure.
type IOError struct {
	Operation string
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *IOError) Unwrap() error {
	return e.Err
}

// ResourceError represents a failed operation on a named resource.
type ResourceError struct {
	Operation string
	Resource  string
	ID        string
	Err       error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %v", e.Operation, e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Resource, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNotReady checks if an error means nothing has been published.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsTimeout checks if an error is a timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsCanceled checks if an error is a cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// IsRateLimited checks if an error is a rate limit error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsProviderUnavailable checks if an error indicates source unavailability.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// IsRefreshInProgress checks if a refresh was rejected by the gate.
func IsRefreshInProgress(err error) bool {
	return errors.Is(err, ErrRefreshInProgress)
}

// WrapIO wraps err as an IOError. A nil err returns nil.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps err as a ParseError. A nil err returns nil.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapResource wraps err as a ResourceError. A nil err returns nil.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Err: err}
}

// WrapAPI wraps err as an APIError. A nil err returns nil.
func WrapAPI(provider string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{Provider: provider, StatusCode: statusCode, Message: err.Error(), Err: err}
}
