// Package apperr defines the sentinel application errors shared across the
// service layer. The HTTP edge maps them to status codes; everything below
// wraps them with %w and context.
package apperr

import "errors"

var (
	// ErrInvalidFileID marks a malformed uploaded-file identifier.
	ErrInvalidFileID = errors.New("invalid file id")

	// ErrFileNotFound marks a file id that has no uploaded CSV behind it.
	ErrFileNotFound = errors.New("file not found")

	// ErrMatchesNotComputed marks an apply request for a file or secret
	// whose matches were never previewed.
	ErrMatchesNotComputed = errors.New("matches not computed")

	// ErrInvalidMatchSelection marks an apply selection that does not
	// resolve to exactly one match.
	ErrInvalidMatchSelection = errors.New("invalid match selection")

	// ErrTransactionNotFound marks a transaction id absent from the
	// computed match set.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrSecretNotFound marks a secret id with no stored secret behind it.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrInvalidSecretID marks a malformed secret identifier.
	ErrInvalidSecretID = errors.New("invalid secret id")

	// ErrJobNotFound marks an apply-job id with no registered job.
	ErrJobNotFound = errors.New("job not found")

	// ErrExternalServiceFailed marks an upstream collaborator failure.
	ErrExternalServiceFailed = errors.New("external service failed")
)
