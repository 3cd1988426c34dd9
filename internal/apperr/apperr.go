// Package apperr defines the error taxonomy shared across the pipeline.
// Callers classify with errors.Is; packages wrap these sentinels with
// fmt.Errorf("...: %w", ...) to add context.
package apperr

import "errors"

var (
	// ErrInvalidConfiguration means bad chunking or pipeline parameters.
	// Caller error, never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidArgument means a bad request value such as an out-of-range
	// top_k or a missing owner.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound means the document or session does not exist for the
	// requesting owner.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable means the vector index backend failed.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrServiceUnavailable means an external model service failed.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRateLimited means an external model service rejected the call
	// with a rate limit. Transient, eligible for bounded retry.
	ErrRateLimited = errors.New("rate limited")

	// ErrGenerationFailed means answer synthesis failed. Terminal for the
	// request; no conversation turn is appended.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrUnsupportedFormat means the uploaded file type cannot be ingested.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptFile means the uploaded file could not be parsed.
	ErrCorruptFile = errors.New("corrupt file")
)

// Transient reports whether err is worth a bounded retry.
func Transient(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrStorageUnavailable)
}
