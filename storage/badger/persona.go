package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/cohort/core"
	"github.com/poiesic/cohort/storage"
)

// PersonaRepository implements storage.PersonaRepository for BadgerDB.
// Each persona is stored under its insertion sequence number, with a
// secondary index from persona id to sequence.
type PersonaRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.PersonaRepository = (*PersonaRepository)(nil)

// NewPersonaRepository creates a new PersonaRepository.
func NewPersonaRepository(backend *Backend) (*PersonaRepository, error) {
	seq, err := backend.GetSequence(personaSeq)
	if err != nil {
		return nil, err
	}

	return &PersonaRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the sequence.
func (r *PersonaRepository) Close() error {
	return r.seq.Release()
}

// WithTransaction delegates to the backend.
func (r *PersonaRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddPersonas adds new personas in the given order.
func (r *PersonaRepository) AddPersonas(ctx context.Context, personas ...*core.Persona) ([]*core.Persona, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, p := range personas {
			if err := core.ValidatePersona(p); err != nil {
				return err
			}
			_, found, err := lookupSeq(tx, p.Id)
			if err != nil {
				return err
			}
			if found {
				return fmt.Errorf("%w: persona %q", storage.ErrDuplicateKey, p.Id)
			}
			if err := r.insert(tx, p); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return personas, nil
}

// UpdatePersonas replaces existing personas, keeping their position.
func (r *PersonaRepository) UpdatePersonas(ctx context.Context, personas ...*core.Persona) ([]*core.Persona, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, p := range personas {
			if err := core.ValidatePersona(p); err != nil {
				return err
			}
			seq, found, err := lookupSeq(tx, p.Id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: persona %q", storage.ErrNotFound, p.Id)
			}
			if err := writePersona(tx, seq, p); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return personas, nil
}

// SavePersonas updates personas that exist and appends the rest.
func (r *PersonaRepository) SavePersonas(ctx context.Context, personas ...*core.Persona) ([]*core.Persona, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, p := range personas {
			if err := core.ValidatePersona(p); err != nil {
				return err
			}
			seq, found, err := lookupSeq(tx, p.Id)
			if err != nil {
				return err
			}
			if found {
				err = writePersona(tx, seq, p)
			} else {
				err = r.insert(tx, p)
			}
			if err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return personas, nil
}

// DeletePersonas removes personas by id.
func (r *PersonaRepository) DeletePersonas(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			seq, found, err := lookupSeq(tx, id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: persona %q", storage.ErrNotFound, id)
			}
			if err := tx.Delete(makePersonaRecordKey(seq)); err != nil {
				return err
			}
			if err := tx.Delete(makePersonaIDKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetPersona retrieves a single persona by id.
func (r *PersonaRepository) GetPersona(ctx context.Context, id string) (*core.Persona, error) {
	var result *core.Persona
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seq, found, err := lookupSeq(tx, id)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		result, err = readPersona(tx, seq)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetPersonas retrieves multiple personas by id, skipping missing ones.
func (r *PersonaRepository) GetPersonas(ctx context.Context, ids ...string) ([]*core.Persona, error) {
	var result []*core.Persona
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			seq, found, err := lookupSeq(tx, id)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			p, err := readPersona(tx, seq)
			if err != nil {
				return err
			}
			if p != nil {
				result = append(result, p)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetAllPersonas retrieves every persona in insertion order.
func (r *PersonaRepository) GetAllPersonas(ctx context.Context) ([]*core.Persona, error) {
	var result []*core.Persona
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(personaRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var p *core.Persona
			err := iter.Item().Value(func(val []byte) error {
				var err error
				p, err = storage.UnmarshalPersona(val)
				return err
			})
			if err != nil {
				return err
			}
			result = append(result, p)
		}
		return nil
	}, false)
	return result, err
}

// CountPersonas returns the number of stored personas.
func (r *PersonaRepository) CountPersonas(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(personaIDPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// insert stores p under the next sequence number.
func (r *PersonaRepository) insert(tx *badger.Txn, p *core.Persona) error {
	seq, err := r.seq.Next()
	if err != nil {
		return err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if seq == 0 {
		seq, err = r.seq.Next()
		if err != nil {
			return err
		}
	}
	if err := writePersona(tx, seq, p); err != nil {
		return err
	}
	return tx.Set(makePersonaIDKey(p.Id), encodeSeq(seq))
}

func writePersona(tx *badger.Txn, seq uint64, p *core.Persona) error {
	value, err := storage.MarshalPersona(p)
	if err != nil {
		return err
	}
	return tx.Set(makePersonaRecordKey(seq), value)
}

// lookupSeq resolves a persona id to its sequence number.
func lookupSeq(tx *badger.Txn, id string) (uint64, bool, error) {
	item, err := tx.Get(makePersonaIDKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	var seq uint64
	var ok bool
	if err := item.Value(func(val []byte) error {
		seq, ok = decodeSeq(val)
		return nil
	}); err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, fmt.Errorf("%w: id index for %q", storage.ErrSerializationFailed, id)
	}
	return seq, true, nil
}

// readPersona reads the persona stored under seq, or nil if absent.
func readPersona(tx *badger.Txn, seq uint64) (*core.Persona, error) {
	item, err := tx.Get(makePersonaRecordKey(seq))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p *core.Persona
	err = item.Value(func(val []byte) error {
		var err error
		p, err = storage.UnmarshalPersona(val)
		return err
	})
	return p, err
}
