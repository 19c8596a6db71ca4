package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
)

// InitDataHeader — заголовок, в котором мини-приложение передаёт initData.
const InitDataHeader = "X-Telegram-Init-Data"

type ambientUserKey struct{}

// ParseInitData проверяет подпись и свежесть initData и возвращает пользователя мини-приложения.
// Без токена бота подпись не проверяется и данные принимаются как initDataUnsafe.
// maxAge <= 0 отключает проверку auth_date.
func ParseInitData(initData, botToken string, maxAge time.Duration) (tgbotapi.User, error) {
	return parseInitData(initData, botToken, maxAge, time.Now())
}

func parseInitData(initData, botToken string, maxAge time.Duration, now time.Time) (tgbotapi.User, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return tgbotapi.User{}, fmt.Errorf("%w: %v", domain.ErrInvalidInitData, err)
	}
	if botToken != "" && !validateInitData(values, botToken) {
		return tgbotapi.User{}, domain.ErrInvalidInitData
	}
	if maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return tgbotapi.User{}, fmt.Errorf("%w: некорректный auth_date", domain.ErrInvalidInitData)
		}
		if now.Sub(time.Unix(authDate, 0)) > maxAge {
			return tgbotapi.User{}, fmt.Errorf("%w: initData устарела", domain.ErrInvalidInitData)
		}
	}
	raw := values.Get("user")
	if raw == "" {
		return tgbotapi.User{}, fmt.Errorf("%w: user отсутствует", domain.ErrInvalidInitData)
	}
	var user tgbotapi.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return tgbotapi.User{}, fmt.Errorf("%w: %v", domain.ErrInvalidInitData, err)
	}
	if user.ID == 0 {
		return tgbotapi.User{}, fmt.Errorf("%w: пустой id", domain.ErrInvalidInitData)
	}
	return user, nil
}

// SignInitData считает hash для набора полей initData.
func SignInitData(values url.Values, botToken string) string {
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(dataCheckString(values)))
	return hex.EncodeToString(h.Sum(nil))
}

func validateInitData(values url.Values, botToken string) bool {
	expected, err := hex.DecodeString(values.Get("hash"))
	if err != nil || len(expected) == 0 {
		return false
	}
	calc, _ := hex.DecodeString(SignInitData(values, botToken))
	return hmac.Equal(calc, expected)
}

func dataCheckString(values url.Values) string {
	parts := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		parts = append(parts, key+"="+values.Get(key))
	}
	sort.Strings(parts)
	return strings.Join(parts, "\n")
}

// AmbientUserMiddleware кладёт в контекст пользователя из initData, если она есть и валидна.
// Невалидная initData не блокирует запрос: дальше решает гард навигации.
func AmbientUserMiddleware(botToken string, maxAge time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			initData := r.Header.Get(InitDataHeader)
			if initData == "" {
				initData = r.URL.Query().Get("init_data")
			}
			if initData == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := ParseInitData(initData, botToken, maxAge)
			if err != nil {
				logger.Warn().Err(err).Str("request_id", RequestID(r)).Msg("initData отклонена")
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAmbientUser(r.Context(), user)))
		})
	}
}

// WithAmbientUser сохраняет пользователя мини-приложения в контексте.
func WithAmbientUser(ctx context.Context, user tgbotapi.User) context.Context {
	return context.WithValue(ctx, ambientUserKey{}, user)
}

// AmbientUserFrom возвращает пользователя мини-приложения из контекста.
func AmbientUserFrom(ctx context.Context) (tgbotapi.User, bool) {
	user, ok := ctx.Value(ambientUserKey{}).(tgbotapi.User)
	return user, ok
}
