package summaries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-summary-webapp/internal/domain"
)

type summaryCall struct {
	start, end string
}

type stubAPI struct {
	channels    []domain.Channel
	channelsErr error
	groups      []domain.SummaryGroup
	groupsErr   error
	calls       []summaryCall
}

func (s *stubAPI) GetUserChannels(context.Context, string) ([]domain.Channel, error) {
	return s.channels, s.channelsErr
}

func (s *stubAPI) GetPostsByChannel(context.Context, string, string, string) ([]domain.Post, error) {
	return nil, nil
}

func (s *stubAPI) GetUserSummaries(_ context.Context, _ string, start, end string) ([]domain.SummaryGroup, error) {
	s.calls = append(s.calls, summaryCall{start: start, end: end})
	return s.groups, s.groupsErr
}

func post(id, posted string) domain.Post {
	return domain.Post{ID: id, PostedDate: posted}
}

func fixture() *stubAPI {
	return &stubAPI{
		channels: []domain.Channel{{TelegramID: "c1", Title: "One"}, {TelegramID: "c2", Title: "Two"}},
		groups: []domain.SummaryGroup{
			{ChannelID: "c1", Posts: []domain.Post{
				post("a", "2024-01-05T08:00:00Z"),
				post("b", "2024-01-04T23:00:00Z"),
			}},
			{ChannelID: "c2", Posts: []domain.Post{
				post("c", "2024-01-03T10:00:00"),
				post("d", ""),
			}},
		},
	}
}

func TestWindowFor(t *testing.T) {
	loc := time.FixedZone("UZT", 5*3600)
	w, err := WindowFor("2024-03-01", loc)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 28, 0, 0, 0, 0, loc), w.Start)
	assert.Equal(t, time.Date(2024, 3, 1, 23, 59, 59, 999_000_000, loc), w.End)
	assert.Equal(t, "2024-02-28", w.StartDay())
	assert.Equal(t, "2024-03-01", w.EndDay())
}

func TestWindowForInvalid(t *testing.T) {
	_, err := WindowFor("01.03.2024", time.UTC)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestFilterByDayIsSubsetOfWindow(t *testing.T) {
	groups := fixture().groups
	for _, day := range []string{"2024-01-03", "2024-01-04", "2024-01-05"} {
		filtered := FilterByDay(groups, day)
		for _, group := range filtered {
			require.NotEmpty(t, group.Posts)
			for _, p := range group.Posts {
				assert.Equal(t, day, p.Day())
			}
		}
	}
	assert.Empty(t, FilterByDay(groups, "2024-01-06"))
}

func TestLoadSummaries(t *testing.T) {
	api := fixture()
	s := NewStore(api, time.UTC, zerolog.Nop())

	s.LoadSummaries(context.Background(), "42", "2024-01-05")

	require.Len(t, api.calls, 1)
	assert.Equal(t, summaryCall{start: "2024-01-03", end: "2024-01-05"}, api.calls[0])
	assert.Equal(t, "2024-01-05", s.SelectedDate())
	assert.Len(t, s.AllChannels(), 2)

	visible := s.Summaries()
	require.Len(t, visible, 1)
	assert.Equal(t, "c1", visible[0].ChannelID)
	require.Len(t, visible[0].Posts, 1)
	assert.Equal(t, "a", visible[0].Posts[0].ID)
}

func TestLoadSummariesInvalidDateKeepsState(t *testing.T) {
	api := fixture()
	s := NewStore(api, time.UTC, zerolog.Nop())
	s.LoadSummaries(context.Background(), "42", "2024-01-05")

	s.LoadSummaries(context.Background(), "42", "not-a-date")

	assert.Len(t, api.calls, 1)
	assert.Equal(t, "2024-01-05", s.SelectedDate())
	assert.Len(t, s.Summaries(), 1)
}

func TestLoadSummariesFailureClears(t *testing.T) {
	api := fixture()
	s := NewStore(api, time.UTC, zerolog.Nop())
	s.LoadSummaries(context.Background(), "42", "2024-01-05")

	api.groupsErr = &domain.APIError{Err: "down", Status: 503}
	s.LoadSummaries(context.Background(), "42", "2024-01-05")

	assert.Empty(t, s.Summaries())
	assert.Empty(t, s.AllSummaries())
	require.NotNil(t, s.Err())
	assert.Equal(t, 503, s.Err().Status)
}

func TestLoadSummariesChannelListFailure(t *testing.T) {
	api := fixture()
	api.channelsErr = errors.New("timeout")
	s := NewStore(api, time.UTC, zerolog.Nop())

	s.LoadSummaries(context.Background(), "42", "2024-01-05")

	assert.Empty(t, s.AllChannels())
	assert.Len(t, s.Summaries(), 1)
}

func TestSetSelectedChannelWithoutDateFiltersLocally(t *testing.T) {
	api := fixture()
	s := NewStore(api, time.UTC, zerolog.Nop())

	c2 := "c2"
	s.SetSelectedChannel(context.Background(), "42", &c2)

	assert.Empty(t, api.calls)
	require.NotNil(t, s.SelectedChannel())
	assert.Equal(t, "c2", *s.SelectedChannel())
	assert.Empty(t, s.Summaries())
}

func TestSetSelectedChannelWithDateReloads(t *testing.T) {
	api := fixture()
	s := NewStore(api, time.UTC, zerolog.Nop())
	s.LoadSummaries(context.Background(), "42", "2024-01-03")
	require.Len(t, s.Summaries(), 1)

	c1 := "c1"
	s.SetSelectedChannel(context.Background(), "42", &c1)

	assert.Len(t, api.calls, 2, "changing the filter re-issues the aggregate fetch")
	assert.Empty(t, s.Summaries(), "c1 has no posts on 2024-01-03")
	assert.Len(t, s.AllSummaries(), 1)

	s.SetSelectedChannel(context.Background(), "42", nil)
	assert.Len(t, api.calls, 3)
	require.Len(t, s.Summaries(), 1)
	assert.Equal(t, "c2", s.Summaries()[0].ChannelID)
}
