package checkpoint

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func TestFileStoreSaveAndLoad(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "ckpt"))
	require.NoError(t, err)

	path, err := store.Save(50, writeString("weights-50"))
	require.NoError(t, err)
	assert.Equal(t, "policy_50.msgpack", filepath.Base(path))

	var got []byte
	require.NoError(t, store.Load(50, func(r io.Reader) error {
		got, err = io.ReadAll(r)
		return err
	}))
	assert.Equal(t, "weights-50", string(got))
}

func TestFileStoreFailedWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Save(100, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreLatest(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Latest()
	assert.ErrorIs(t, err, ErrNotFound)

	for _, ep := range []int{50, 150, 100} {
		_, err := store.Save(ep, writeString("x"))
		require.NoError(t, err)
	}
	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, 150, latest)

	episodes, err := store.Episodes()
	require.NoError(t, err)
	assert.Equal(t, []int{50, 100, 150}, episodes)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = store.Load(7, func(io.Reader) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewFileStoreRequiresDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}
