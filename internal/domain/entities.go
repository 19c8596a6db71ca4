package domain

import "strings"

// User описывает пользователя Telegram, как его отдаёт бэкенд.
type User struct {
	ID          string `json:"id"`
	TelegramID  string `json:"telegram_id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Language    string `json:"language"`
	Hour        string `json:"hour"`
	DateJoined  string `json:"date_joined"`
}

// PlanType перечисляет типы тарифов.
type PlanType string

const (
	PlanFree    PlanType = "free"
	PlanTrial   PlanType = "trial"
	PlanBasic   PlanType = "basic"
	PlanPremium PlanType = "premium"
)

// SubscriptionPlan описывает тариф.
type SubscriptionPlan struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	PlanType            PlanType `json:"plan_type"`
	PriceSoums          int64    `json:"price_soums"`
	MaxChannels         int      `json:"max_channels"`
	AIChatEnabled       bool     `json:"ai_chat_enabled"`
	BreakingNewsEnabled bool     `json:"breaking_news_enabled"`
	DescriptionUz       string   `json:"description_uz"`
	DescriptionRu       string   `json:"description_ru"`
	IsActive            bool     `json:"is_active"`
}

// UserSubscription хранит состояние подписки и пробного периода.
type UserSubscription struct {
	TelegramID            string            `json:"telegram_id"`
	SubscriptionPlanID    string            `json:"subscription_plan_id"`
	SubscriptionActive    bool              `json:"subscription_active"`
	SubscriptionExpiresAt string            `json:"subscription_expires_at"`
	SubscriptionStartedAt string            `json:"subscription_started_at"`
	TrialActive           bool              `json:"trial_active"`
	TrialExpiresAt        string            `json:"trial_expires_at"`
	TrialStartedAt        string            `json:"trial_started_at"`
	Plan                  *SubscriptionPlan `json:"plan"`
}

// SubscriptionInfo содержит подписку и вычисленные бэкендом возможности.
type SubscriptionInfo struct {
	Subscription          UserSubscription  `json:"subscription"`
	Plan                  *SubscriptionPlan `json:"plan"`
	CanAccessBreakingNews bool              `json:"can_access_breaking_news"`
	CanUseAIChat          bool              `json:"can_use_ai_chat"`
	CanAddChannels        bool              `json:"can_add_channels"`
	CurrentChannelCount   int               `json:"current_channel_count"`
	MaxChannels           int               `json:"max_channels"`
}

// Channel описывает канал, на который подписан пользователь.
type Channel struct {
	ID         string `json:"id"`
	TelegramID string `json:"telegram_id"`
	Title      string `json:"title"`
	Username   string `json:"username"`
}

// Post представляет пост канала с суммаризацией.
type Post struct {
	ID         string `json:"id"`
	Created    string `json:"created"`
	PostedDate string `json:"posted_date"`
	Link       string `json:"link"`
	Text       string `json:"text"`
	Title      string `json:"title"`
	Snapshot   string `json:"snapshot"`
	Summary    string `json:"summary"`
	ChannelID  string `json:"channel_id"`
}

// Day возвращает календарную дату публикации (YYYY-MM-DD) или пустую строку.
func (p Post) Day() string {
	day, _, _ := strings.Cut(strings.TrimSpace(p.PostedDate), "T")
	return day
}

// CollectedPost — пост ленты срочных новостей. Форма отличается от Post.
type CollectedPost struct {
	TelegramID      string  `json:"telegram_id"`
	SourceChannel   string  `json:"source_channel"`
	Title           string  `json:"title"`
	Link            string  `json:"link"`
	Text            string  `json:"text"`
	Summary         string  `json:"summary"`
	Category        string  `json:"category"`
	ImportanceScore float64 `json:"importance_score"`
	PostedDate      string  `json:"posted_date"`
}

// Day возвращает календарную дату публикации (YYYY-MM-DD) или пустую строку.
func (p CollectedPost) Day() string {
	day, _, _ := strings.Cut(strings.TrimSpace(p.PostedDate), "T")
	return day
}

// SummaryGroup объединяет посты одного канала для выбранного окна.
type SummaryGroup struct {
	ChannelID       string `json:"channel_id"`
	ChannelTitle    string `json:"channel_title"`
	ChannelUsername string `json:"channel_username"`
	Posts           []Post `json:"posts"`
}

// GroupFor создаёт пустую группу для канала.
func GroupFor(ch Channel) SummaryGroup {
	return SummaryGroup{
		ChannelID:       ch.TelegramID,
		ChannelTitle:    ch.Title,
		ChannelUsername: ch.Username,
		Posts:           []Post{},
	}
}
