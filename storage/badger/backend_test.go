package badger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend(t *testing.T) {
	tests := []struct {
		name     string
		dir      func(t *testing.T) string
		inMemory bool
		opts     []Option
		wantErr  bool
	}{
		{name: "in memory", dir: func(*testing.T) string { return "" }, inMemory: true},
		{name: "existing dir", dir: func(t *testing.T) string { return t.TempDir() }},
		{name: "missing dir is created", dir: func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "nested", "store")
		}},
		{name: "sync writes and compression", dir: func(t *testing.T) string { return t.TempDir() },
			opts: []Option{WithSyncWrites(true), WithCompression(true)}},
		{name: "path is a file", dir: func(t *testing.T) string {
			p := filepath.Join(t.TempDir(), "personas.json")
			require.NoError(t, os.WriteFile(p, []byte("[]"), 0o644))
			return p
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.dir(t)
			backend, err := OpenBackend(dir, tt.inMemory, tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer backend.Close()
			assert.False(t, backend.IsClosed())

			if !tt.inMemory {
				info, err := os.Stat(dir)
				require.NoError(t, err)
				assert.True(t, info.IsDir())
			}
		})
	}
}

func TestOpenBackend_LoggerReceivesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	backend, err := OpenBackend("", true, WithBackendLogger(logger))
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	assert.Contains(t, buf.String(), "opened persona store")
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestWithTx_UncommittedWriteIsDropped(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	key := []byte("scratch")
	require.NoError(t, backend.WithTx(func(tx *badger.Txn) error {
		return tx.Set(key, []byte("v"))
	}, true))

	err = backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		return err
	}, false)
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestWithTransaction(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	assert.NoError(t, backend.WithTransaction(ctx, func(context.Context) error { return nil }))

	err = backend.WithTransaction(ctx, func(context.Context) error { return assert.AnError })
	assert.Equal(t, assert.AnError, err)
}

func TestGetSequence(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	seq, err := backend.GetSequence("persona_seq_test")
	require.NoError(t, err)
	defer seq.Release()

	first, err := seq.Next()
	require.NoError(t, err)
	second, err := seq.Next()
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}
