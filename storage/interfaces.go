package storage

import (
	"context"

	"github.com/poiesic/cohort/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// PersonaRepository provides operations for managing personas.
// Personas are kept in insertion order; updating a persona keeps its position.
type PersonaRepository interface {
	Repository

	// AddPersonas adds new personas in the given order.
	// Returns ErrDuplicateKey if any persona id already exists.
	AddPersonas(ctx context.Context, personas ...*core.Persona) ([]*core.Persona, error)

	// UpdatePersonas replaces existing personas.
	// Returns ErrNotFound if any persona doesn't exist.
	UpdatePersonas(ctx context.Context, personas ...*core.Persona) ([]*core.Persona, error)

	// SavePersonas updates personas that exist and adds the rest.
	SavePersonas(ctx context.Context, personas ...*core.Persona) ([]*core.Persona, error)

	// DeletePersonas removes personas by id.
	// Returns ErrNotFound if any persona doesn't exist.
	DeletePersonas(ctx context.Context, ids ...string) error

	// GetPersona retrieves a single persona by id.
	// Returns ErrNotFound if the persona doesn't exist.
	GetPersona(ctx context.Context, id string) (*core.Persona, error)

	// GetPersonas retrieves multiple personas by id.
	// Returns only the personas that exist (no error for missing personas).
	GetPersonas(ctx context.Context, ids ...string) ([]*core.Persona, error)

	// GetAllPersonas retrieves every persona in insertion order.
	GetAllPersonas(ctx context.Context) ([]*core.Persona, error)

	// CountPersonas returns the number of stored personas.
	CountPersonas(ctx context.Context) (int, error)
}
