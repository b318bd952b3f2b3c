package badger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const sequenceLease = 100

// Backend owns the badger handle behind a persona store.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// Option tunes how OpenBackend configures badger.
type Option func(*backendConfig)

type backendConfig struct {
	logger     *slog.Logger
	syncWrites bool
	compress   bool
}

// WithBackendLogger routes badger's internal log lines to logger.
func WithBackendLogger(logger *slog.Logger) Option {
	return func(c *backendConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSyncWrites fsyncs every commit. Off by default; the store is rebuilt
// from the source JSON when lost.
func WithSyncWrites(sync bool) Option {
	return func(c *backendConfig) { c.syncWrites = sync }
}

// WithCompression enables snappy block compression for on-disk tables.
func WithCompression(enabled bool) Option {
	return func(c *backendConfig) { c.compress = enabled }
}

// slogBadger satisfies badger.Logger on top of slog.
type slogBadger struct{ log *slog.Logger }

var _ badger.Logger = slogBadger{}

func (s slogBadger) emit(level slog.Level, format string, args []any) {
	s.log.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

func (s slogBadger) Errorf(format string, args ...any)   { s.emit(slog.LevelError, format, args) }
func (s slogBadger) Warningf(format string, args ...any) { s.emit(slog.LevelWarn, format, args) }
func (s slogBadger) Infof(format string, args ...any)    { s.emit(slog.LevelInfo, format, args) }
func (s slogBadger) Debugf(format string, args ...any)   { s.emit(slog.LevelDebug, format, args) }

// ensureDir creates dir when missing and rejects paths that name a file.
func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return os.MkdirAll(dir, 0o755)
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("persona store path %s is not a directory", dir)
	}
	return nil
}

// OpenBackend opens the persona store under dir, creating the directory on
// first use. With inMemory set dir is ignored and nothing touches disk.
func OpenBackend(dir string, inMemory bool, opts ...Option) (*Backend, error) {
	cfg := backendConfig{logger: slog.Default().With("component", "badger")}
	for _, opt := range opts {
		opt(&cfg)
	}

	badgerOpts := badger.DefaultOptions("").WithInMemory(true)
	if !inMemory {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(dir).WithSyncWrites(cfg.syncWrites)
	}
	badgerOpts = badgerOpts.WithLogger(slogBadger{log: cfg.logger})
	if cfg.compress && !inMemory {
		badgerOpts = badgerOpts.WithCompression(options.Snappy)
	} else {
		badgerOpts = badgerOpts.WithCompression(options.None)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open persona store: %w", err)
	}

	cfg.logger.Debug("opened persona store", "dir", dir, "in_memory", inMemory)
	return &Backend{db: db, logger: cfg.logger}, nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn inside a transaction that is always discarded afterwards.
// Writers must commit inside fn; an uncommitted write transaction is dropped.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	txn := b.db.NewTransaction(isWrite)
	defer txn.Discard()
	return fn(txn)
}

// GetSequence leases ids from the named monotonic counter.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), sequenceLease)
}

// WithTransaction runs fn and commits a write transaction when it succeeds.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.WithTx(func(txn *badger.Txn) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return txn.Commit()
	}, true)
}
