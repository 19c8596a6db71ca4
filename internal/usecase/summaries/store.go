package summaries

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/infra/metrics"
	"tg-summary-webapp/internal/usecase/async"
)

// windowDays — сколько дней, включая выбранный, запрашивается у бэкенда.
// Лишние дни нужны только чтобы пережить сдвиг дат и часовых поясов на бэкенде.
const windowDays = 3

// Window — включительный интервал выборки постов.
type Window struct {
	Start time.Time
	End   time.Time
}

// StartDay и EndDay форматируют границы для параметров start_date/end_date.
func (w Window) StartDay() string { return domain.FormatDay(w.Start) }
func (w Window) EndDay() string   { return domain.FormatDay(w.End) }

// WindowFor строит окно [D-2 00:00:00.000, D 23:59:59.999] по границам суток зоны loc.
func WindowFor(date string, loc *time.Location) (Window, error) {
	day, err := domain.ParseDay(date, loc)
	if err != nil {
		return Window{}, err
	}
	start := day.AddDate(0, 0, -(windowDays - 1))
	end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(999*time.Millisecond), day.Location())
	return Window{Start: start, End: end}, nil
}

// FilterByDay оставляет в группах только посты за день day и убирает опустевшие группы.
func FilterByDay(groups []domain.SummaryGroup, day string) []domain.SummaryGroup {
	out := make([]domain.SummaryGroup, 0, len(groups))
	for _, group := range groups {
		posts := make([]domain.Post, 0, len(group.Posts))
		for _, post := range group.Posts {
			if post.PostedDate != "" && post.Day() == day {
				posts = append(posts, post)
			}
		}
		if len(posts) == 0 {
			continue
		}
		group.Posts = posts
		out = append(out, group)
	}
	return out
}

// Store хранит сводки: выбранную дату, фильтр по каналу, полный кэш групп
// и видимый список, который получается фильтром из полного кэша.
type Store struct {
	api    domain.SummaryAPI
	runner *async.Runner
	loc    *time.Location
	log    zerolog.Logger

	mu              sync.RWMutex
	summaries       []domain.SummaryGroup
	allSummaries    []domain.SummaryGroup
	allChannels     []domain.Channel
	selectedDate    string
	selectedChannel *string
}

// NewStore создаёт контейнер сводок. loc задаёт границы суток.
func NewStore(api domain.SummaryAPI, loc *time.Location, logger zerolog.Logger) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		api:          api,
		runner:       async.NewRunner(logger),
		loc:          loc,
		log:          logger,
		summaries:    []domain.SummaryGroup{},
		allSummaries: []domain.SummaryGroup{},
		allChannels:  []domain.Channel{},
	}
}

// LoadSummaries загружает сводки за дату date (YYYY-MM-DD).
// Некорректная дата логируется, и состояние не меняется.
func (s *Store) LoadSummaries(ctx context.Context, telegramID, date string) {
	window, err := WindowFor(date, s.loc)
	if err != nil {
		s.log.Warn().Err(err).Str("date", date).Msg("summaries: некорректная дата")
		return
	}

	s.mu.Lock()
	s.selectedDate = date
	s.mu.Unlock()

	channels, err := s.api.GetUserChannels(ctx, telegramID)
	if err != nil {
		s.log.Error().Err(err).Msg("summaries: не удалось загрузить каналы")
		channels = []domain.Channel{}
	}
	s.mu.Lock()
	s.allChannels = channels
	s.mu.Unlock()

	s.log.Debug().
		Str("selected", date).
		Str("start_date", window.StartDay()).
		Str("end_date", window.EndDay()).
		Msg("summaries: окно выборки")

	groups, ok := async.Execute(ctx, s.runner, func(ctx context.Context) ([]domain.SummaryGroup, error) {
		return s.api.GetUserSummaries(ctx, telegramID, window.StartDay(), window.EndDay())
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.allSummaries = []domain.SummaryGroup{}
		s.summaries = []domain.SummaryGroup{}
		return
	}
	s.allSummaries = FilterByDay(groups, domain.FormatDay(window.End))
	s.applyChannelFilterLocked()
}

// SetSelectedChannel меняет фильтр по каналу (nil — все каналы). Если дата уже выбрана,
// сводки перезагружаются целиком; иначе фильтр применяется к имеющимся данным.
func (s *Store) SetSelectedChannel(ctx context.Context, telegramID string, channelID *string) {
	s.mu.Lock()
	if channelID != nil {
		id := *channelID
		s.selectedChannel = &id
	} else {
		s.selectedChannel = nil
	}
	date := s.selectedDate
	if date == "" || telegramID == "" {
		s.applyChannelFilterLocked()
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.LoadSummaries(ctx, telegramID, date)
}

func (s *Store) applyChannelFilterLocked() {
	if s.selectedChannel == nil {
		s.summaries = s.allSummaries
	} else {
		filtered := make([]domain.SummaryGroup, 0, 1)
		for _, group := range s.allSummaries {
			if group.ChannelID == *s.selectedChannel {
				filtered = append(filtered, group)
			}
		}
		s.summaries = filtered
	}
	metrics.ObserveVisibleGroups(len(s.summaries))
}

// Summaries — видимый список групп.
func (s *Store) Summaries() []domain.SummaryGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SummaryGroup{}, s.summaries...)
}

// AllSummaries — полный кэш групп за выбранную дату без фильтра по каналу.
func (s *Store) AllSummaries() []domain.SummaryGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SummaryGroup{}, s.allSummaries...)
}

// AllChannels — все каналы пользователя для кнопок фильтра.
func (s *Store) AllChannels() []domain.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Channel{}, s.allChannels...)
}

func (s *Store) SelectedDate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedDate
}

func (s *Store) SelectedChannel() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedChannel == nil {
		return nil
	}
	id := *s.selectedChannel
	return &id
}

func (s *Store) Loading() bool { return s.runner.Loading() }

func (s *Store) Err() *domain.APIError { return s.runner.Err() }
