package cache

import (
	"context"
	"sync"

	"tg-summary-webapp/internal/domain"
)

// MemoryStorage хранит данные клиентов в памяти процесса.
// Используется, когда Redis не настроен, и в тестах.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ domain.ClientStorage = (*MemoryStorage)(nil)

// NewMemory создаёт пустое хранилище.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

func (s *MemoryStorage) Get(_ context.Context, client, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[storageKey(client, key)]
	return value, ok, nil
}

func (s *MemoryStorage) Set(_ context.Context, client, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[storageKey(client, key)] = value
	return nil
}

func (s *MemoryStorage) Remove(_ context.Context, client, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, storageKey(client, key))
	return nil
}
