package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-summary-webapp/internal/domain"
)

func TestMemoryStorageIsolatesClients(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "a", domain.StorageKeyIdentity, "42"))

	v, ok, err := s.Get(ctx, "a", domain.StorageKeyIdentity)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok, err = s.Get(ctx, "b", domain.StorageKeyIdentity)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remove(ctx, "a", domain.StorageKeyIdentity))
	_, ok, _ = s.Get(ctx, "a", domain.StorageKeyIdentity)
	assert.False(t, ok)
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "webapp:client:abc:locale", storageKey("abc", domain.StorageKeyLocale))
}
