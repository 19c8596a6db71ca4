package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"tg-summary-webapp/internal/domain"
)

var (
	_ domain.UserAPI         = (*Client)(nil)
	_ domain.SubscriptionAPI = (*Client)(nil)
	_ domain.ChannelAPI      = (*Client)(nil)
	_ domain.SummaryAPI      = (*Client)(nil)
	_ domain.BreakingNewsAPI = (*Client)(nil)
)

// GetUser возвращает пользователя. Неизвестный пользователь даёт APIError со статусом 404.
func (c *Client) GetUser(ctx context.Context, telegramID string) (domain.User, error) {
	var user domain.User
	err := c.call(ctx, apiRequest{
		operation: "get_user",
		route:     "/api/users/check/{id}/",
		method:    http.MethodGet,
		endpoint:  "/api/users/check/" + url.PathEscape(telegramID) + "/",
	}, &user)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// CheckUserExists проверяет регистрацию пользователя: 404 означает false, прочие ошибки возвращаются.
func (c *Client) CheckUserExists(ctx context.Context, telegramID string) (bool, error) {
	_, err := c.GetUser(ctx, telegramID)
	if err == nil {
		return true, nil
	}
	if domain.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// UpdateUserLanguage меняет язык и уведомляет бота об обновлении кэша.
func (c *Client) UpdateUserLanguage(ctx context.Context, telegramID, language string) error {
	err := c.call(ctx, apiRequest{
		operation: "set_language",
		route:     "/api/users/set_language/",
		method:    http.MethodPost,
		endpoint:  "/api/users/set_language/",
		body:      map[string]any{"telegram_id": telegramID, "language_code": language},
	}, nil)
	if err != nil {
		return err
	}
	c.notifier.Notify(ctx, telegramID)
	return nil
}

// UpdateUserTime меняет час рассылки и уведомляет бота об обновлении кэша.
func (c *Client) UpdateUserTime(ctx context.Context, telegramID, hour string) error {
	err := c.call(ctx, apiRequest{
		operation: "update_time",
		route:     "/api/users/update-time/",
		method:    http.MethodPost,
		endpoint:  "/api/users/update-time/",
		body:      map[string]any{"telegram_id": telegramID, "hour": hour},
	}, nil)
	if err != nil {
		return err
	}
	c.notifier.Notify(ctx, telegramID)
	return nil
}

// RemoveChannel отвязывает канал и уведомляет бота об обновлении кэша.
func (c *Client) RemoveChannel(ctx context.Context, telegramID, channelID string) error {
	err := c.call(ctx, apiRequest{
		operation: "remove_channel",
		route:     "/api/channels/remove/",
		method:    http.MethodPost,
		endpoint:  "/api/channels/remove/",
		body:      map[string]any{"telegram_id": telegramID, "channel_id": channelID},
	}, nil)
	if err != nil {
		return err
	}
	c.notifier.Notify(ctx, telegramID)
	return nil
}

func (c *Client) GetUserSubscription(ctx context.Context, telegramID string) (domain.SubscriptionInfo, error) {
	var info domain.SubscriptionInfo
	err := c.call(ctx, apiRequest{
		operation: "get_subscription",
		route:     "/api/users/subscription/user/{id}/",
		method:    http.MethodGet,
		endpoint:  "/api/users/subscription/user/" + url.PathEscape(telegramID) + "/",
	}, &info)
	if err != nil {
		return domain.SubscriptionInfo{}, err
	}
	return info, nil
}

func (c *Client) GetSubscriptionPlans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	var raw json.RawMessage
	err := c.call(ctx, apiRequest{
		operation: "get_plans",
		route:     "/api/users/subscription/plans/",
		method:    http.MethodGet,
		endpoint:  "/api/users/subscription/plans/",
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.SubscriptionPlan](raw)
}

// CheckBreakingNewsAccess возвращает признак доступа; отсутствующее поле означает false.
func (c *Client) CheckBreakingNewsAccess(ctx context.Context, telegramID string) (bool, error) {
	var resp struct {
		CanAccess *bool `json:"can_access_breaking_news"`
	}
	err := c.call(ctx, apiRequest{
		operation: "check_breaking_news",
		route:     "/api/users/payment/check-breaking-news/",
		method:    http.MethodPost,
		endpoint:  "/api/users/payment/check-breaking-news/",
		body:      map[string]any{"telegram_id": telegramID},
	}, &resp)
	if err != nil {
		return false, err
	}
	return resp.CanAccess != nil && *resp.CanAccess, nil
}

// GetUserChannels возвращает каналы пользователя; ответ не в виде списка даёт пустой список.
func (c *Client) GetUserChannels(ctx context.Context, telegramID string) ([]domain.Channel, error) {
	var raw json.RawMessage
	err := c.call(ctx, apiRequest{
		operation: "get_channels",
		route:     "/api/channels/user/id/{id}/",
		method:    http.MethodGet,
		endpoint:  "/api/channels/user/id/" + url.PathEscape(telegramID) + "/",
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Channel](raw)
}

// GetPostsByChannel возвращает посты канала, опционально ограниченные датами.
func (c *Client) GetPostsByChannel(ctx context.Context, channelID, startDate, endDate string) ([]domain.Post, error) {
	query := url.Values{}
	if startDate != "" {
		query.Set("start_date", startDate)
	}
	if endDate != "" {
		query.Set("end_date", endDate)
	}
	var raw json.RawMessage
	err := c.call(ctx, apiRequest{
		operation: "get_posts",
		route:     "/api/posts/channel/{id}/",
		method:    http.MethodGet,
		endpoint:  "/api/posts/channel/" + url.PathEscape(channelID) + "/",
		query:     query,
	}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeList[domain.Post](raw)
}

// GetUserSummaries собирает посты всех каналов пользователя параллельно.
// Ошибка по одному каналу превращается в пустую группу; пустые группы отбрасываются.
func (c *Client) GetUserSummaries(ctx context.Context, telegramID, startDate, endDate string) ([]domain.SummaryGroup, error) {
	channels, err := c.GetUserChannels(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		c.log.Warn().Str("telegram_id", telegramID).Msg("backend: у пользователя нет каналов")
		return []domain.SummaryGroup{}, nil
	}

	groups := make([]domain.SummaryGroup, len(channels))
	var g errgroup.Group
	for i, ch := range channels {
		i, ch := i, ch
		g.Go(func() error {
			group := domain.GroupFor(ch)
			posts, err := c.GetPostsByChannel(ctx, ch.TelegramID, startDate, endDate)
			if err != nil {
				c.log.Error().Err(err).Str("channel", ch.Title).Msg("backend: не удалось получить посты канала")
			} else {
				group.Posts = posts
			}
			groups[i] = group
			return nil
		})
	}
	_ = g.Wait()

	return nonEmptyGroups(groups), nil
}

func nonEmptyGroups(groups []domain.SummaryGroup) []domain.SummaryGroup {
	out := make([]domain.SummaryGroup, 0, len(groups))
	for _, group := range groups {
		if len(group.Posts) > 0 {
			out = append(out, group)
		}
	}
	return out
}

// GetBreakingNewsByDate возвращает срочные новости за один день.
func (c *Client) GetBreakingNewsByDate(ctx context.Context, date string) ([]domain.CollectedPost, error) {
	var raw json.RawMessage
	err := c.call(ctx, apiRequest{
		operation: "get_breaking_news",
		route:     "/api/important_collected_posts/",
		method:    http.MethodGet,
		endpoint:  "/api/important_collected_posts/",
		query:     url.Values{"date": {date}},
	}, &raw)
	if err != nil {
		return nil, err
	}
	posts, err := decodeList[*domain.CollectedPost](raw)
	if err != nil {
		return nil, err
	}
	return dropNil(posts), nil
}

// rangeConcurrency ограничивает число одновременных запросов по дням диапазона.
const rangeConcurrency = 4

// GetBreakingNewsRange запрашивает каждый день включительного диапазона отдельно
// и склеивает результаты в порядке дат. Ошибка за любой день проваливает весь вызов.
func (c *Client) GetBreakingNewsRange(ctx context.Context, startDate, endDate string) ([]domain.CollectedPost, error) {
	days, err := domain.DayRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	perDay := make([][]domain.CollectedPost, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rangeConcurrency)
	for i, day := range days {
		i, day := i, day
		g.Go(func() error {
			posts, err := c.GetBreakingNewsByDate(gctx, day)
			if err != nil {
				return err
			}
			perDay[i] = posts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := []domain.CollectedPost{}
	for _, posts := range perDay {
		out = append(out, posts...)
	}
	return out, nil
}

func dropNil(posts []*domain.CollectedPost) []domain.CollectedPost {
	out := make([]domain.CollectedPost, 0, len(posts))
	for _, p := range posts {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
