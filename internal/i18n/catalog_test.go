package i18n

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/infra/cache"
)

func TestCatalogT(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Профиль", c.T("ru", "profile.title"))
	assert.Equal(t, "Sign in", c.T("en", "login.title"))
	assert.Equal(t, "so'm", c.T("en", "plans.soums"), "missing key falls back to uz")
	assert.Equal(t, "Yangiliklar yo'q", c.T("en", "breaking.empty"), "empty value falls back to uz")
	assert.Equal(t, "nonexistent.key", c.T("en", "nonexistent.key"))
	assert.Equal(t, "profile", c.T("ru", "profile"), "non-string leaf yields the key")
	assert.Equal(t, "profile.title.deeper", c.T("ru", "profile.title.deeper"))
	assert.Equal(t, "Kirish", c.T("de", "login.title"))
}

func TestLocaleStore(t *testing.T) {
	ctx := context.Background()
	storage := cache.NewMemory()
	s := NewStore(storage, "fr")

	locale, err := s.Locale(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, "uz", locale)

	require.NoError(t, s.SetLocale(ctx, "client", "ru"))
	locale, err = s.Locale(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, "ru", locale)

	assert.ErrorIs(t, s.SetLocale(ctx, "client", "de"), domain.ErrUnsupportedLocale)

	require.NoError(t, storage.Set(ctx, "client", domain.StorageKeyLocale, "xx"))
	locale, err = s.Locale(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, "uz", locale)
}
