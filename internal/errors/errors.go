// Package errors provides the typed errors shared by the catalog loader,
// the page handlers and the CLI.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ContentError describes a problem with one content record or file.
type ContentError struct {
	File      string
	RecordID  string
	Field     string
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// Error implements the error interface
func (ce *ContentError) Error() string {
	var loc []string
	if ce.File != "" {
		loc = append(loc, ce.File)
	}
	if ce.RecordID != "" {
		loc = append(loc, fmt.Sprintf("record %q", ce.RecordID))
	}
	if ce.Field != "" {
		loc = append(loc, ce.Field)
	}
	if len(loc) == 0 {
		return fmt.Sprintf("%s: %s", ce.Severity, ce.Message)
	}
	return fmt.Sprintf("%s: %s: %s", strings.Join(loc, ": "), ce.Severity, ce.Message)
}

// NotFoundError reports a content identifier that is not in the catalog.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content %q not found", e.ID)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

// ErrorCollector collects content errors
type ErrorCollector struct {
	contentErrors []ContentError
	mutex         sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		contentErrors: make([]ContentError, 0),
	}
}

// Add adds a content error to the collector
func (ec *ErrorCollector) Add(err ContentError) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	ec.contentErrors = append(ec.contentErrors, err)
}

// HasErrors returns true if anything at error severity or above was collected.
// Warnings alone do not count.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	for _, ce := range ec.contentErrors {
		if ce.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// GetErrorsByFile returns errors for a specific file
func (ec *ErrorCollector) GetErrorsByFile(file string) []ContentError {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var out []ContentError
	for _, ce := range ec.contentErrors {
		if ce.File == file {
			out = append(out, ce)
		}
	}
	return out
}

// Err joins everything at error severity or above into one error, or
// returns nil.
func (ec *ErrorCollector) Err() error {
	if !ec.HasErrors() {
		return nil
	}

	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var errs []error
	for i := range ec.contentErrors {
		if ec.contentErrors[i].Severity < ErrorSeverityError {
			continue
		}
		ce := ec.contentErrors[i]
		errs = append(errs, &ce)
	}
	return stderrors.Join(errs...)
}
