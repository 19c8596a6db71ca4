package profile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/usecase/async"
)

const defaultMaxChannels = 3

// Store хранит профиль пользователя: самого пользователя, подписку и каналы.
type Store struct {
	users    domain.UserAPI
	subs     domain.SubscriptionAPI
	channels domain.ChannelAPI
	runner   *async.Runner
	log      zerolog.Logger

	mu           sync.RWMutex
	user         *domain.User
	subscription *domain.SubscriptionInfo
	channelList  []domain.Channel
}

// NewStore создаёт контейнер профиля.
func NewStore(users domain.UserAPI, subs domain.SubscriptionAPI, channels domain.ChannelAPI, logger zerolog.Logger) *Store {
	return &Store{
		users:       users,
		subs:        subs,
		channels:    channels,
		runner:      async.NewRunner(logger),
		log:         logger,
		channelList: []domain.Channel{},
	}
}

// ParseHour проверяет время рассылки в формате HH:MM и приводит его к виду 09:05.
func ParseHour(input string) (string, error) {
	tm, err := time.Parse("15:04", strings.TrimSpace(input))
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidHour, input)
	}
	return tm.Format("15:04"), nil
}

// LoadUser загружает пользователя; при ошибке кэш не меняется.
func (s *Store) LoadUser(ctx context.Context, telegramID string) bool {
	user, ok := async.Execute(ctx, s.runner, func(ctx context.Context) (domain.User, error) {
		return s.users.GetUser(ctx, telegramID)
	})
	if !ok {
		return false
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return true
}

// LoadSubscription загружает подписку и возможности пользователя.
func (s *Store) LoadSubscription(ctx context.Context, telegramID string) bool {
	info, ok := async.Execute(ctx, s.runner, func(ctx context.Context) (domain.SubscriptionInfo, error) {
		return s.subs.GetUserSubscription(ctx, telegramID)
	})
	if !ok {
		return false
	}
	s.mu.Lock()
	s.subscription = &info
	s.mu.Unlock()
	return true
}

// LoadChannels загружает каналы пользователя.
func (s *Store) LoadChannels(ctx context.Context, telegramID string) bool {
	list, ok := async.Execute(ctx, s.runner, func(ctx context.Context) ([]domain.Channel, error) {
		return s.channels.GetUserChannels(ctx, telegramID)
	})
	if !ok {
		return false
	}
	s.mu.Lock()
	s.channelList = list
	s.mu.Unlock()
	return true
}

// UpdateLanguage сразу меняет язык в кэше и затем сохраняет его на бэкенде.
func (s *Store) UpdateLanguage(ctx context.Context, telegramID, language string) bool {
	s.patchUser(func(u *domain.User) { u.Language = language })
	return async.Do(ctx, s.runner, func(ctx context.Context) error {
		return s.users.UpdateUserLanguage(ctx, telegramID, language)
	})
}

// UpdateTime сразу меняет час рассылки в кэше и затем сохраняет его на бэкенде.
// Некорректное время логируется, и ничего не отправляется.
func (s *Store) UpdateTime(ctx context.Context, telegramID, hour string) bool {
	normalized, err := ParseHour(hour)
	if err != nil {
		s.log.Warn().Err(err).Msg("profile: некорректное время рассылки")
		return false
	}
	s.patchUser(func(u *domain.User) { u.Hour = normalized })
	return async.Do(ctx, s.runner, func(ctx context.Context) error {
		return s.users.UpdateUserTime(ctx, telegramID, normalized)
	})
}

// RemoveChannel отвязывает канал и перечитывает каналы и подписку.
func (s *Store) RemoveChannel(ctx context.Context, telegramID, channelID string) bool {
	ok := async.Do(ctx, s.runner, func(ctx context.Context) error {
		return s.channels.RemoveChannel(ctx, telegramID, channelID)
	})
	s.LoadChannels(ctx, telegramID)
	s.LoadSubscription(ctx, telegramID)
	return ok
}

func (s *Store) patchUser(fn func(u *domain.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		fn(s.user)
	}
}

// User возвращает копию пользователя из кэша.
func (s *Store) User() (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Subscription возвращает копию подписки из кэша.
func (s *Store) Subscription() (domain.SubscriptionInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.subscription == nil {
		return domain.SubscriptionInfo{}, false
	}
	return *s.subscription, true
}

// Channels возвращает копию списка каналов.
func (s *Store) Channels() []domain.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Channel{}, s.channelList...)
}

// ChannelCount — текущее число каналов по данным подписки, 0 без подписки.
func (s *Store) ChannelCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.subscription == nil {
		return 0
	}
	return s.subscription.CurrentChannelCount
}

// MaxChannels — лимит каналов по подписке, 3 если подписка не загружена или лимит нулевой.
func (s *Store) MaxChannels() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.subscription == nil || s.subscription.MaxChannels == 0 {
		return defaultMaxChannels
	}
	return s.subscription.MaxChannels
}

func (s *Store) Loading() bool { return s.runner.Loading() }

func (s *Store) Err() *domain.APIError { return s.runner.Err() }
