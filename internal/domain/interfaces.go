package domain

import "context"

// Ключи долговременного клиентского хранилища.
const (
	StorageKeyIdentity = "telegram_id"
	StorageKeyLocale   = "locale"
)

// ClientStorage — долговременное хранилище клиента (аналог localStorage).
// client идентифицирует браузер или мини-приложение, key — запись внутри него.
type ClientStorage interface {
	Get(ctx context.Context, client, key string) (string, bool, error)
	Set(ctx context.Context, client, key, value string) error
	Remove(ctx context.Context, client, key string) error
}

// UserAPI — операции бэкенда с пользователем.
type UserAPI interface {
	GetUser(ctx context.Context, telegramID string) (User, error)
	CheckUserExists(ctx context.Context, telegramID string) (bool, error)
	UpdateUserLanguage(ctx context.Context, telegramID, language string) error
	UpdateUserTime(ctx context.Context, telegramID, hour string) error
}

// SubscriptionAPI — операции бэкенда с подпиской.
type SubscriptionAPI interface {
	GetUserSubscription(ctx context.Context, telegramID string) (SubscriptionInfo, error)
	GetSubscriptionPlans(ctx context.Context) ([]SubscriptionPlan, error)
	CheckBreakingNewsAccess(ctx context.Context, telegramID string) (bool, error)
}

// ChannelAPI — операции бэкенда с каналами.
type ChannelAPI interface {
	GetUserChannels(ctx context.Context, telegramID string) ([]Channel, error)
	RemoveChannel(ctx context.Context, telegramID, channelID string) error
}

// SummaryAPI — выборка постов и сводок.
type SummaryAPI interface {
	GetUserChannels(ctx context.Context, telegramID string) ([]Channel, error)
	GetPostsByChannel(ctx context.Context, channelID, startDate, endDate string) ([]Post, error)
	GetUserSummaries(ctx context.Context, telegramID, startDate, endDate string) ([]SummaryGroup, error)
}

// BreakingNewsAPI — лента срочных новостей.
type BreakingNewsAPI interface {
	CheckBreakingNewsAccess(ctx context.Context, telegramID string) (bool, error)
	GetBreakingNewsByDate(ctx context.Context, date string) ([]CollectedPost, error)
	GetBreakingNewsRange(ctx context.Context, startDate, endDate string) ([]CollectedPost, error)
}

// Notifier отправляет best-effort уведомления: не более одного раза, без повторов,
// ошибка только логируется.
type Notifier interface {
	Notify(ctx context.Context, telegramID string)
}

type identityKey struct{}

// WithIdentity кладёт telegram_id текущего клиента в контекст запроса.
func WithIdentity(ctx context.Context, telegramID string) context.Context {
	return context.WithValue(ctx, identityKey{}, telegramID)
}

// IdentityFrom возвращает telegram_id из контекста, если он есть.
func IdentityFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey{}).(string)
	return id, ok && id != ""
}
