package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the gxref search engine
type ErrorType string

const (
	// Construction errors (fatal)
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeCapacity ErrorType = "capacity"

	// Per-item resource errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeIO           ErrorType = "io"

	// Traversal integrity (symlink loops, paths outside the root)
	ErrorTypeIntegrity ErrorType = "integrity"
)

// ConfigError represents a configuration error: a malformed skip glob,
// an invalid pattern list or an out-of-range setting. Always fatal.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config error for %s: %v", e.Field, e.Underlying)
	}
	return fmt.Sprintf("config error for %s (value %q): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// CapacityError is returned when a pattern set needs more automaton nodes
// than the configured budget.
type CapacityError struct {
	Limit     int
	Word      string
	Timestamp time.Time
}

// NewCapacityError creates a new capacity error
func NewCapacityError(limit int, word string) *CapacityError {
	return &CapacityError{
		Limit:     limit,
		Word:      word,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *CapacityError) Error() string {
	return fmt.Sprintf("pattern set too large: node budget of %d exhausted while adding %q", e.Limit, e.Word)
}

// FileError represents a resource error on a single file or directory
// (open, stat, map, read, list). Recoverable errors are reported as
// warnings and the item is skipped.
type FileError struct {
	Type        ErrorType
	Path        string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewFileError creates a new file error. The type is derived from the
// underlying error.
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeIO
	switch {
	case isPermissionError(err):
		errorType = ErrorTypePermission
	case stderrors.Is(err, fs.ErrNotExist):
		errorType = ErrorTypeFileNotFound
	}

	return &FileError{
		Type:        errorType,
		Path:        path,
		Operation:   op,
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: true,
	}
}

// WithRecoverable marks the error as recoverable or fatal
func (e *FileError) WithRecoverable(recoverable bool) *FileError {
	e.Recoverable = recoverable
	return e
}

// isPermissionError checks if the error is a permission error
func isPermissionError(err error) bool {
	return stderrors.Is(err, fs.ErrPermission)
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether the item can be skipped and the search continued
func (e *FileError) IsRecoverable() bool {
	return e.Recoverable
}

// IntegrityError reports a traversal hazard: a symlink loop or a path that
// resolves outside the traversal root. The offending entry is skipped.
type IntegrityError struct {
	Path      string
	Resolved  string
	Reason    string
	Timestamp time.Time
}

// NewIntegrityError creates a new integrity error
func NewIntegrityError(path, resolved, reason string) *IntegrityError {
	return &IntegrityError{
		Path:      path,
		Resolved:  resolved,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *IntegrityError) Error() string {
	if e.Resolved != "" {
		return fmt.Sprintf("%s: %s (resolves to %s)", e.Reason, e.Path, e.Resolved)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Path)
}

// IsFatal reports whether err must abort the whole search.
// Config and capacity errors always do; file errors only when promoted.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var cfgErr *ConfigError
	if stderrors.As(err, &cfgErr) {
		return true
	}
	var capErr *CapacityError
	if stderrors.As(err, &capErr) {
		return true
	}
	var fileErr *FileError
	if stderrors.As(err, &fileErr) {
		return !fileErr.Recoverable
	}
	var intErr *IntegrityError
	if stderrors.As(err, &intErr) {
		return false
	}
	return true
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
