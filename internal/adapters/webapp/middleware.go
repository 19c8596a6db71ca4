package webapp

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tg-summary-webapp/internal/domain"
	httpinfra "tg-summary-webapp/internal/infra/http"
	"tg-summary-webapp/internal/usecase/navigation"
)

type clientKey struct{}

// ClientFrom возвращает идентификатор клиента, выданный ClientMiddleware.
func ClientFrom(ctx context.Context) string {
	id, _ := ctx.Value(clientKey{}).(string)
	return id
}

// ClientMiddleware выдаёт клиенту постоянный идентификатор в cookie.
// По нему адресуется долговременное хранилище клиента.
func ClientMiddleware(cookieName string, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					client = c.Value
				}
			}
			if client == "" {
				client = uuid.NewString()
				cookie := &http.Cookie{
					Name:     cookieName,
					Value:    client,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				}
				// Веб-клиент Telegram открывает мини-приложение во фрейме.
				if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
					cookie.Secure = true
					cookie.SameSite = http.SameSiteNoneMode
				}
				http.SetCookie(w, cookie)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey{}, client)))
		})
	}
}

// guardMiddleware применяет решение охранника навигации: 302 на другой маршрут
// или продолжение с telegram_id в контексте запроса.
func (h *Handler) guardMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nav := navigation.Navigation{
			Path:       r.URL.Path,
			DeepLinkID: r.URL.Query().Get(domain.StorageKeyIdentity),
		}
		if user, ok := httpinfra.AmbientUserFrom(r.Context()); ok && user.ID != 0 {
			nav.AmbientUserID = strconv.FormatInt(user.ID, 10)
		}

		decision, err := h.guard.Before(r.Context(), ClientFrom(r.Context()), nav)
		if err != nil {
			h.log.Error().Err(err).Str("request_id", httpinfra.RequestID(r)).Msg("webapp: guard")
			httpinfra.WriteError(w, http.StatusInternalServerError, err)
			return
		}
		if !decision.Proceed() {
			http.Redirect(w, r, decision.Redirect, http.StatusFound)
			return
		}

		ctx := r.Context()
		if decision.Identity != "" {
			ctx = domain.WithIdentity(ctx, decision.Identity)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
