package webapp

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/usecase/breaking"
	"tg-summary-webapp/internal/usecase/profile"
	"tg-summary-webapp/internal/usecase/summaries"
)

const (
	defaultSessionIdleTTL = 30 * time.Minute
	defaultMaxSessions    = 10000
)

// Backend — всё, что мини-приложению нужно от REST бэкенда.
type Backend interface {
	domain.UserAPI
	domain.SubscriptionAPI
	domain.ChannelAPI
	domain.SummaryAPI
	domain.BreakingNewsAPI
}

// Session — контейнеры состояния одного пользователя.
type Session struct {
	Profile   *profile.Store
	Summaries *summaries.Store
	Breaking  *breaking.Store

	lastSeen time.Time
}

// Sessions выдаёт контейнеры по telegram_id, создавая их при первом обращении.
// Сессии живут в LRU ограниченного размера и забываются после простоя дольше idleTTL.
type Sessions struct {
	backend Backend
	loc     *time.Location
	log     zerolog.Logger
	idleTTL time.Duration
	now     func() time.Time

	mu    sync.Mutex
	items *lru.Cache
}

type SessionsOption func(*Sessions)

// WithIdleTTL задаёт время простоя, после которого сессия забывается.
func WithIdleTTL(ttl time.Duration) SessionsOption {
	return func(s *Sessions) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

func withClock(now func() time.Time) SessionsOption {
	return func(s *Sessions) { s.now = now }
}

// NewSessions создаёт реестр сессий. maxSessions <= 0 означает размер по умолчанию.
func NewSessions(backend Backend, loc *time.Location, logger zerolog.Logger, maxSessions int, opts ...SessionsOption) *Sessions {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	items, err := lru.New(maxSessions)
	if err != nil {
		panic(err)
	}
	s := &Sessions{
		backend: backend,
		loc:     loc,
		log:     logger,
		idleTTL: defaultSessionIdleTTL,
		now:     time.Now,
		items:   items,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get возвращает сессию пользователя telegramID. Простаивавшая сессия создаётся заново.
func (s *Sessions) Get(telegramID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if v, ok := s.items.Get(telegramID); ok {
		sess := v.(*Session)
		if now.Sub(sess.lastSeen) <= s.idleTTL {
			sess.lastSeen = now
			return sess
		}
	}
	logger := s.log.With().Str("telegram_id", telegramID).Logger()
	sess := &Session{
		Profile:   profile.NewStore(s.backend, s.backend, s.backend, logger.With().Str("store", "profile").Logger()),
		Summaries: summaries.NewStore(s.backend, s.loc, logger.With().Str("store", "summaries").Logger()),
		Breaking:  breaking.NewStore(s.backend, logger.With().Str("store", "breaking").Logger()),
		lastSeen:  now,
	}
	s.items.Add(telegramID, sess)
	return sess
}

// Drop забывает сессию, например после выхода.
func (s *Sessions) Drop(telegramID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Remove(telegramID)
}

// Sweep удаляет простаивающие сессии и возвращает их число.
// Ключи LRU идут от давно использованных к свежим, поэтому обход останавливается на первой живой.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for _, key := range s.items.Keys() {
		v, ok := s.items.Peek(key)
		if !ok {
			continue
		}
		if now.Sub(v.(*Session).lastSeen) <= s.idleTTL {
			break
		}
		s.items.Remove(key)
		removed++
	}
	return removed
}

// Run периодически вызывает Sweep, пока ctx не отменён.
func (s *Sessions) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = s.idleTTL / 2
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug().Int("removed", n).Msg("sessions: удалены простаивающие сессии")
			}
		}
	}
}

// Len возвращает число активных сессий.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Len()
}
