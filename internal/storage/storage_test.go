package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestLoadMissingKeyKeepsFallback(t *testing.T) {
	s := newStore(t)

	rows := []string{"fallback"}
	ok := s.Load("missing_key", &rows)

	assert.False(t, ok)
	assert.Equal(t, []string{"fallback"}, rows)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	s := newStore(t)

	s.Save("orders", map[string]int{"count": 3})

	var got map[string]int
	ok := s.Load("orders", &got)
	assert.True(t, ok)
	assert.Equal(t, map[string]int{"count": 3}, got)
}

func TestLoadCorruptEntryKeepsFallback(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{{{"), 0o644))

	value := 42
	ok := s.Load("bad", &value)
	assert.False(t, ok)
	assert.Equal(t, 42, value)
}

func TestSaveUnserializableValueDoesNotPanic(t *testing.T) {
	s := newStore(t)

	// channels cannot be marshaled; the failure must stay internal
	assert.NotPanics(t, func() {
		s.Save("bad_value", make(chan int))
	})

	var anything interface{}
	assert.False(t, s.Load("bad_value", &anything))
}

func TestSaveOverwritesPreviousValue(t *testing.T) {
	s := newStore(t)

	s.Save("k", 1)
	s.Save("k", 2)

	var got int
	require.True(t, s.Load("k", &got))
	assert.Equal(t, 2, got)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newStore(t)

	s.Save("k", "v")
	s.Delete("k")
	s.Delete("k")

	var got string
	assert.False(t, s.Load("k", &got))
}

func TestKeysAreSanitizedToFilenames(t *testing.T) {
	s := newStore(t)

	s.Save("weird/../key name", "v")

	var got string
	assert.True(t, s.Load("weird/../key name", &got))
	assert.Equal(t, "v", got)
}
