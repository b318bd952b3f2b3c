package badger

import "github.com/poiesic/cohort/storage"

// NewMemoryRepository creates an in-memory persona repository for testing.
// Caller must close both the repository and the backend when done.
func NewMemoryRepository() (storage.PersonaRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	repo, err := NewPersonaRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repo, backend, nil
}
