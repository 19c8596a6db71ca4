package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-summary-webapp/internal/domain"
)

type stubBackend struct {
	user         domain.User
	userErr      error
	subscription domain.SubscriptionInfo
	channels     []domain.Channel
	updateErr    error
	removed      []string
	hours        []string
	gate         chan struct{}
	entered      chan struct{}
	channelLoads int
}

func (s *stubBackend) GetUser(context.Context, string) (domain.User, error) {
	return s.user, s.userErr
}
func (s *stubBackend) CheckUserExists(context.Context, string) (bool, error) { return true, nil }
func (s *stubBackend) UpdateUserLanguage(context.Context, string, string) error {
	if s.entered != nil {
		close(s.entered)
	}
	if s.gate != nil {
		<-s.gate
	}
	return s.updateErr
}
func (s *stubBackend) UpdateUserTime(_ context.Context, _ string, hour string) error {
	s.hours = append(s.hours, hour)
	return s.updateErr
}
func (s *stubBackend) GetUserSubscription(context.Context, string) (domain.SubscriptionInfo, error) {
	return s.subscription, nil
}
func (s *stubBackend) GetSubscriptionPlans(context.Context) ([]domain.SubscriptionPlan, error) {
	return nil, nil
}
func (s *stubBackend) CheckBreakingNewsAccess(context.Context, string) (bool, error) {
	return false, nil
}
func (s *stubBackend) GetUserChannels(context.Context, string) ([]domain.Channel, error) {
	s.channelLoads++
	return s.channels, nil
}
func (s *stubBackend) RemoveChannel(_ context.Context, _ string, channelID string) error {
	s.removed = append(s.removed, channelID)
	kept := []domain.Channel{}
	for _, ch := range s.channels {
		if ch.TelegramID != channelID {
			kept = append(kept, ch)
		}
	}
	s.channels = kept
	s.subscription.CurrentChannelCount = len(kept)
	return nil
}

func newStore(b *stubBackend) *Store {
	return NewStore(b, b, b, zerolog.Nop())
}

func TestLoadUser(t *testing.T) {
	b := &stubBackend{user: domain.User{TelegramID: "42", Language: "uz"}}
	s := newStore(b)

	require.True(t, s.LoadUser(context.Background(), "42"))
	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "uz", user.Language)
}

func TestLoadUserFailureKeepsCache(t *testing.T) {
	b := &stubBackend{user: domain.User{TelegramID: "42", Language: "uz"}}
	s := newStore(b)
	require.True(t, s.LoadUser(context.Background(), "42"))

	b.userErr = &domain.APIError{Err: "gone", Status: 404}
	assert.False(t, s.LoadUser(context.Background(), "42"))

	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "42", user.TelegramID)
	require.NotNil(t, s.Err())
	assert.Equal(t, 404, s.Err().Status)
}

func TestUpdateLanguageIsOptimistic(t *testing.T) {
	b := &stubBackend{
		user:    domain.User{TelegramID: "42", Language: "uz"},
		gate:    make(chan struct{}),
		entered: make(chan struct{}),
	}
	s := newStore(b)
	require.True(t, s.LoadUser(context.Background(), "42"))

	done := make(chan bool)
	go func() { done <- s.UpdateLanguage(context.Background(), "42", "ru") }()

	<-b.entered
	user, _ := s.User()
	assert.Equal(t, "ru", user.Language, "cache is patched before the round-trip completes")

	close(b.gate)
	assert.True(t, <-done)
}

func TestUpdateLanguageFailureKeepsPatch(t *testing.T) {
	b := &stubBackend{user: domain.User{Language: "uz"}, updateErr: errors.New("offline")}
	s := newStore(b)
	require.True(t, s.LoadUser(context.Background(), "42"))

	assert.False(t, s.UpdateLanguage(context.Background(), "42", "en"))
	user, _ := s.User()
	assert.Equal(t, "en", user.Language)
	assert.Equal(t, 500, s.Err().Status)
}

func TestUpdateTime(t *testing.T) {
	b := &stubBackend{user: domain.User{Hour: "08:00"}}
	s := newStore(b)
	require.True(t, s.LoadUser(context.Background(), "42"))

	assert.True(t, s.UpdateTime(context.Background(), "42", " 9:30 "))
	user, _ := s.User()
	assert.Equal(t, "09:30", user.Hour)
	assert.Equal(t, []string{"09:30"}, b.hours)

	assert.False(t, s.UpdateTime(context.Background(), "42", "9-30"))
	user, _ = s.User()
	assert.Equal(t, "09:30", user.Hour, "invalid input leaves the cache untouched")
	assert.Len(t, b.hours, 1)
}

func TestRemoveChannelReloads(t *testing.T) {
	b := &stubBackend{
		channels:     []domain.Channel{{TelegramID: "c1"}, {TelegramID: "c2"}},
		subscription: domain.SubscriptionInfo{CurrentChannelCount: 2, MaxChannels: 5},
	}
	s := newStore(b)
	require.True(t, s.LoadChannels(context.Background(), "42"))
	require.True(t, s.LoadSubscription(context.Background(), "42"))

	assert.True(t, s.RemoveChannel(context.Background(), "42", "c1"))
	assert.Equal(t, []string{"c1"}, b.removed)
	assert.Equal(t, []domain.Channel{{TelegramID: "c2"}}, s.Channels())
	assert.Equal(t, 1, s.ChannelCount())
	assert.Equal(t, 5, s.MaxChannels())
	assert.Equal(t, 2, b.channelLoads)
}

func TestDefaultsWithoutSubscription(t *testing.T) {
	s := newStore(&stubBackend{})
	assert.Equal(t, 0, s.ChannelCount())
	assert.Equal(t, 3, s.MaxChannels())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestParseHour(t *testing.T) {
	got, err := ParseHour("07:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", got)

	_, err = ParseHour("25:00")
	assert.ErrorIs(t, err, domain.ErrInvalidHour)
}
