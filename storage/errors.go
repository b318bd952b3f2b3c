package storage

import "errors"

// Errors returned by persona repositories. Callers match them with errors.Is;
// implementations wrap them with the offending persona id.
var (
	ErrNotFound            = errors.New("persona not found")
	ErrDuplicateKey        = errors.New("persona id already stored")
	ErrSerializationFailed = errors.New("persona encoding failed")
	ErrTruncatedData       = errors.New("persona record truncated")
)
