package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	first := VersionKey("VUTTO_MARGINS", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	second := VersionKey("VUTTO_MARGINS", time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC))

	require.NoError(t, s.Put(ctx, second, []byte(`[2]`), &Metadata{Source: "api"}))
	require.NoError(t, s.Put(ctx, first, []byte(`[1]`), nil))
	require.NoError(t, s.Put(ctx, "config/OTHER/x.json", []byte(`{}`), nil))

	keys, err := s.List(ctx, "config/VUTTO_MARGINS/")
	require.NoError(t, err)
	assert.Equal(t, []string{first, second}, keys)

	got, err := s.Get(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))

	ok, err := s.Exists(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, first))
	ok, err = s.Exists(ctx, first)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, first)
	assert.Error(t, err)
}

func TestLocalStorage_KeyTraversal(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "../../escape.json", []byte("x"), nil))
	ok, err := s.Exists(context.Background(), "escape.json")
	require.NoError(t, err)
	assert.True(t, ok)
}
