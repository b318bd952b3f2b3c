package core

import "errors"

// Data integrity errors
var (
	// ErrMissingVector indicates a persona lacks the embedding required by an operation.
	ErrMissingVector = errors.New("persona is missing embedding vector")

	// ErrMalformedStore indicates the persona store is not a list of well-formed records.
	ErrMalformedStore = errors.New("malformed persona store")

	// ErrDimensionMismatch indicates vectors of inconsistent length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidPersona indicates a Persona failed validation.
	ErrInvalidPersona = errors.New("invalid persona")

	// ErrEmptyID indicates the persona Id field is empty.
	ErrEmptyID = errors.New("persona id cannot be empty")
)
