package prefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "prefs.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	_, err = s.Get(ctx, EffectKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, EffectKey, "Anime"))
	require.NoError(t, s.Set(ctx, EffectKey, "Vintage"))
	require.NoError(t, s.Close())

	// Value survives a reopen.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(ctx, EffectKey)
	require.NoError(t, err)
	assert.Equal(t, "Vintage", v)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "")
	require.NoError(t, err)

	_, err = s.Get(ctx, EffectKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, EffectKey, "Anime"))
	v, err := s.Get(ctx, EffectKey)
	require.NoError(t, err)
	assert.Equal(t, "Anime", v)
	assert.NoError(t, s.Close())
}
