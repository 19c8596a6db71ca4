package breaking

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-summary-webapp/internal/domain"
)

type stubAPI struct {
	access      []bool
	accessCalls int
	failDates   map[string]bool
	dates       []string
	ranges      int
	rangeErr    error
	rangePosts  []domain.CollectedPost
}

func (s *stubAPI) CheckBreakingNewsAccess(context.Context, string) (bool, error) {
	i := s.accessCalls
	s.accessCalls++
	if i < len(s.access) {
		return s.access[i], nil
	}
	return false, nil
}

func (s *stubAPI) GetBreakingNewsByDate(_ context.Context, date string) ([]domain.CollectedPost, error) {
	s.dates = append(s.dates, date)
	if s.failDates[date] {
		return nil, errors.New("boom")
	}
	return []domain.CollectedPost{{Title: "news " + date}}, nil
}

func (s *stubAPI) GetBreakingNewsRange(_ context.Context, start, end string) ([]domain.CollectedPost, error) {
	if _, err := domain.DayRange(start, end); err != nil {
		return nil, err
	}
	s.ranges++
	return s.rangePosts, s.rangeErr
}

func TestLoadWithoutAccessIsNoop(t *testing.T) {
	api := &stubAPI{access: []bool{false, false}}
	s := NewStore(api, zerolog.Nop())

	assert.False(t, s.CheckAccess(context.Background(), "42"))
	s.LoadBreakingNews(context.Background(), "42", []string{"2024-01-01"})

	assert.Equal(t, 2, api.accessCalls)
	assert.Empty(t, api.dates)
	assert.Empty(t, s.News())
	assert.Nil(t, s.Err())
}

func TestLoadChecksAccessOnce(t *testing.T) {
	api := &stubAPI{access: []bool{true}}
	s := NewStore(api, zerolog.Nop())

	s.LoadBreakingNews(context.Background(), "42", []string{"2024-01-01", "2024-01-02"})
	s.LoadBreakingNews(context.Background(), "42", []string{"2024-01-03"})

	assert.Equal(t, 1, api.accessCalls, "cached access is reused until rechecked")
	assert.True(t, s.HasAccess())
	news := s.News()
	require.Len(t, news, 1)
	assert.Equal(t, "news 2024-01-03", news["2024-01-03"][0].Title)
}

func TestLoadOmitsFailedDates(t *testing.T) {
	api := &stubAPI{access: []bool{true}, failDates: map[string]bool{"2024-01-02": true}}
	s := NewStore(api, zerolog.Nop())

	s.LoadBreakingNews(context.Background(), "42", []string{"2024-01-01", "2024-01-02", "2024-01-03"})

	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, api.dates)
	news := s.News()
	assert.Len(t, news, 2)
	assert.NotContains(t, news, "2024-01-02")
}

func TestLoadRange(t *testing.T) {
	api := &stubAPI{
		access: []bool{true},
		rangePosts: []domain.CollectedPost{
			{Title: "a", PostedDate: "2024-01-01T09:00:00"},
			{Title: "b", PostedDate: "2024-01-03T10:00:00"},
			{Title: "c", PostedDate: "2024-01-03T11:00:00"},
		},
	}
	s := NewStore(api, zerolog.Nop())

	s.LoadRange(context.Background(), "42", "2024-01-01", "2024-01-03")

	assert.Equal(t, 1, api.ranges, "a range is loaded with one call")
	assert.Empty(t, api.dates)
	news := s.News()
	require.Len(t, news, 3)
	assert.Len(t, news["2024-01-01"], 1)
	assert.Empty(t, news["2024-01-02"])
	assert.Len(t, news["2024-01-03"], 2)
}

func TestLoadRangeRejectsBadRanges(t *testing.T) {
	api := &stubAPI{access: []bool{true}}
	s := NewStore(api, zerolog.Nop())

	s.LoadRange(context.Background(), "42", "2024-01-03", "2024-01-01")
	s.LoadRange(context.Background(), "42", "2000-01-01", "2024-12-31")

	assert.Zero(t, api.ranges)
	assert.Zero(t, api.accessCalls)
	assert.Empty(t, s.News())
}

func TestLoadRangeFailureKeepsNews(t *testing.T) {
	api := &stubAPI{access: []bool{true}}
	s := NewStore(api, zerolog.Nop())
	s.LoadBreakingNews(context.Background(), "42", []string{"2024-01-01"})

	api.rangeErr = &domain.APIError{Err: "down", Status: 502}
	s.LoadRange(context.Background(), "42", "2024-01-01", "2024-01-02")

	assert.Len(t, s.News(), 1)
	require.NotNil(t, s.Err())
	assert.Equal(t, 502, s.Err().Status)
}
