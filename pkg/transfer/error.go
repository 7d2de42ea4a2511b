package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/David-Botos/sales-etl/pkg/cleaner"
	"github.com/David-Botos/sales-etl/pkg/model"
)

// ErrorCategory classifies pipeline errors by how the caller should react
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	// ErrorCategoryTransient is an external failure that may succeed if the step is repeated
	ErrorCategoryTransient
	// ErrorCategoryRowDefect is an unrecoverable row; handled by dropping it, never returned
	ErrorCategoryRowDefect
	// ErrorCategorySchema is malformed input; repeating the step cannot help
	ErrorCategorySchema
	// ErrorCategoryRejected is a request the remote side refused outright
	ErrorCategoryRejected
	// ErrorCategoryDownstream is an execution error reported by the loader
	ErrorCategoryDownstream
	// ErrorCategoryCancelled means the caller abandoned the run
	ErrorCategoryCancelled
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryTransient:
		return "Transient"
	case ErrorCategoryRowDefect:
		return "RowDefect"
	case ErrorCategorySchema:
		return "Schema"
	case ErrorCategoryRejected:
		return "Rejected"
	case ErrorCategoryDownstream:
		return "Downstream"
	case ErrorCategoryCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// downstream is implemented by errors reported by the remote loader
type downstream interface {
	Downstream() bool
}

// temporary is implemented by errors that know whether a repeat may succeed
type temporary interface {
	Temporary() bool
}

// Categorize determines the category of an error
func Categorize(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var (
		ds  downstream
		tmp temporary
	)
	switch {
	case errors.Is(err, context.Canceled):
		return ErrorCategoryCancelled
	case errors.Is(err, model.ErrSchema), errors.Is(err, cleaner.ErrEmptyDistribution):
		return ErrorCategorySchema
	case errors.As(err, &ds) && ds.Downstream():
		return ErrorCategoryDownstream
	case errors.As(err, &tmp) && !tmp.Temporary():
		return ErrorCategoryRejected
	default:
		// network, timeout and storage failures
		return ErrorCategoryTransient
	}
}

// IsRetryableError checks if a step that failed with err may be repeated
func IsRetryableError(err error) bool {
	return Categorize(err) == ErrorCategoryTransient
}

// UploadError reports a staging upload that failed and so failed the join
type UploadError struct {
	Table string
	Key   string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %s to %s failed: %v", e.Table, e.Key, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
