package breaking

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/usecase/async"
)

// Store хранит срочные новости по датам и закэшированный признак доступа к ним.
type Store struct {
	api    domain.BreakingNewsAPI
	runner *async.Runner
	log    zerolog.Logger

	mu        sync.RWMutex
	news      map[string][]domain.CollectedPost
	hasAccess bool
}

// NewStore создаёт контейнер срочных новостей.
func NewStore(api domain.BreakingNewsAPI, logger zerolog.Logger) *Store {
	return &Store{
		api:    api,
		runner: async.NewRunner(logger),
		log:    logger,
		news:   map[string][]domain.CollectedPost{},
	}
}

// CheckAccess заново спрашивает бэкенд о доступе и перезаписывает кэш.
// Ошибка проверки трактуется как отсутствие доступа.
func (s *Store) CheckAccess(ctx context.Context, telegramID string) bool {
	access, _ := async.Execute(ctx, s.runner, func(ctx context.Context) (bool, error) {
		return s.api.CheckBreakingNewsAccess(ctx, telegramID)
	})
	s.mu.Lock()
	s.hasAccess = access
	s.mu.Unlock()
	return access
}

// LoadBreakingNews загружает новости за каждую дату по порядку и заменяет видимый набор.
// Без доступа (после одной повторной проверки) ничего не делает.
func (s *Store) LoadBreakingNews(ctx context.Context, telegramID string, dates []string) {
	if !s.HasAccess() && !s.CheckAccess(ctx, telegramID) {
		s.log.Debug().Str("telegram_id", telegramID).Msg("breaking: нет доступа")
		return
	}

	byDate := make(map[string][]domain.CollectedPost, len(dates))
	for _, date := range dates {
		news, ok := async.Execute(ctx, s.runner, func(ctx context.Context) ([]domain.CollectedPost, error) {
			return s.api.GetBreakingNewsByDate(ctx, date)
		})
		if ok {
			byDate[date] = news
		}
	}

	s.mu.Lock()
	s.news = byDate
	s.mu.Unlock()
}

// LoadRange загружает включительный диапазон дат одним вызовом и раскладывает
// новости по дням публикации. Каждый день диапазона есть в наборе, даже пустой.
// Некорректный диапазон или ошибка бэкенда оставляют видимый набор прежним.
func (s *Store) LoadRange(ctx context.Context, telegramID, startDate, endDate string) {
	days, err := domain.DayRange(startDate, endDate)
	if err != nil {
		s.log.Warn().Err(err).Msg("breaking: некорректный диапазон дат")
		return
	}
	if !s.HasAccess() && !s.CheckAccess(ctx, telegramID) {
		s.log.Debug().Str("telegram_id", telegramID).Msg("breaking: нет доступа")
		return
	}

	posts, ok := async.Execute(ctx, s.runner, func(ctx context.Context) ([]domain.CollectedPost, error) {
		return s.api.GetBreakingNewsRange(ctx, startDate, endDate)
	})
	if !ok {
		return
	}

	byDate := make(map[string][]domain.CollectedPost, len(days))
	for _, day := range days {
		byDate[day] = []domain.CollectedPost{}
	}
	for _, post := range posts {
		day := post.Day()
		if day == "" {
			day = days[0]
		}
		byDate[day] = append(byDate[day], post)
	}

	s.mu.Lock()
	s.news = byDate
	s.mu.Unlock()
}

// News возвращает копию видимого набора новостей по датам.
func (s *Store) News() map[string][]domain.CollectedPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]domain.CollectedPost, len(s.news))
	for date, posts := range s.news {
		out[date] = append([]domain.CollectedPost{}, posts...)
	}
	return out
}

func (s *Store) HasAccess() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasAccess
}

func (s *Store) Loading() bool { return s.runner.Loading() }

func (s *Store) Err() *domain.APIError { return s.runner.Err() }
