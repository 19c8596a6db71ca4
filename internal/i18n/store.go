package i18n

import (
	"context"
	"fmt"

	"tg-summary-webapp/internal/domain"
)

// Store хранит выбранный язык в долговременном хранилище клиента.
type Store struct {
	storage  domain.ClientStorage
	fallback string
}

// NewStore создаёт хранилище языка. Неподдерживаемый defaultLocale заменяется на uz.
func NewStore(storage domain.ClientStorage, defaultLocale string) *Store {
	if !IsSupported(defaultLocale) {
		defaultLocale = FallbackLocale
	}
	return &Store{storage: storage, fallback: defaultLocale}
}

// Locale возвращает сохранённый язык клиента или язык по умолчанию.
func (s *Store) Locale(ctx context.Context, client string) (string, error) {
	saved, ok, err := s.storage.Get(ctx, client, domain.StorageKeyLocale)
	if err != nil {
		return s.fallback, fmt.Errorf("read locale: %w", err)
	}
	if ok && IsSupported(saved) {
		return saved, nil
	}
	return s.fallback, nil
}

// SetLocale сохраняет язык клиента.
func (s *Store) SetLocale(ctx context.Context, client, locale string) error {
	if !IsSupported(locale) {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedLocale, locale)
	}
	if err := s.storage.Set(ctx, client, domain.StorageKeyLocale, locale); err != nil {
		return fmt.Errorf("store locale: %w", err)
	}
	return nil
}
