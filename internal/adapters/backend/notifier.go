package backend

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/infra/metrics"
)

// RefreshNotifier просит бэкенд сбросить кэш настроек пользователя у бота.
// Каждое уведомление отправляется один раз в фоне, без повторов; ошибка только логируется.
type RefreshNotifier struct {
	client  *Client
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ domain.Notifier = (*RefreshNotifier)(nil)

// NewRefreshNotifier создаёт уведомитель поверх клиента бэкенда.
func NewRefreshNotifier(client *Client, timeout time.Duration, logger zerolog.Logger) *RefreshNotifier {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &RefreshNotifier{client: client, timeout: timeout, log: logger}
}

// Notify отправляет уведомление, не дожидаясь ответа. Отмена ctx на отправку не влияет.
func (n *RefreshNotifier) Notify(ctx context.Context, telegramID string) {
	detached := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		sendCtx, cancel := context.WithTimeout(detached, n.timeout)
		defer cancel()
		err := n.client.call(sendCtx, apiRequest{
			operation: "refresh_cache",
			route:     "/api/users/refresh-cache/",
			method:    http.MethodPost,
			endpoint:  "/api/users/refresh-cache/",
			body:      map[string]any{"telegram_id": telegramID},
		}, nil)
		if err != nil {
			metrics.IncNotifyFailure()
			n.log.Warn().Err(err).Str("telegram_id", telegramID).Msg("backend: не удалось уведомить бота об обновлении кэша")
		}
	}()
}

// Wait дожидается завершения уже начатых уведомлений.
func (n *RefreshNotifier) Wait() {
	n.wg.Wait()
}
