package navigation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/infra/metrics"
)

// Decision — результат проверки перехода. Пустой Redirect означает «продолжить».
type Decision struct {
	Redirect string
	Identity string
}

// Proceed сообщает, что переход разрешён без перенаправления.
func (d Decision) Proceed() bool { return d.Redirect == "" }

// Decide — чистая функция охранника: маршрут и наличие личности определяют перенаправление.
func Decide(path string, hasIdentity bool) Decision {
	route := Lookup(path)
	switch {
	case route.RequiresAuth && !hasIdentity:
		return Decision{Redirect: RouteLogin}
	case route.Path == RouteRoot:
		if hasIdentity {
			return Decision{Redirect: LandingRoute}
		}
		return Decision{Redirect: route.Redirect}
	case !route.RequiresAuth && hasIdentity && route.Path == RouteLogin:
		return Decision{Redirect: LandingRoute}
	}
	return Decision{}
}

// Navigation описывает переход: путь и необязательные источники личности.
type Navigation struct {
	Path string
	// DeepLinkID — telegram_id из параметра ссылки.
	DeepLinkID string
	// AmbientUserID — пользователь из проверенного initData мини-приложения.
	AmbientUserID string
}

// Guard сохраняет личность из ссылки или окружения и решает, куда пустить клиента.
type Guard struct {
	storage domain.ClientStorage
	log     zerolog.Logger
}

func NewGuard(storage domain.ClientStorage, logger zerolog.Logger) *Guard {
	return &Guard{storage: storage, log: logger}
}

// Before выполняется перед каждым переходом клиента client.
func (g *Guard) Before(ctx context.Context, client string, nav Navigation) (Decision, error) {
	if nav.DeepLinkID != "" {
		if err := g.storage.Set(ctx, client, domain.StorageKeyIdentity, nav.DeepLinkID); err != nil {
			return Decision{}, fmt.Errorf("store deep link identity: %w", err)
		}
		g.log.Info().Str("telegram_id", nav.DeepLinkID).Msg("guard: личность из ссылки")
		metrics.IncGuardRedirect(LandingRoute)
		return Decision{Redirect: LandingRoute, Identity: nav.DeepLinkID}, nil
	}

	if nav.AmbientUserID != "" {
		if err := g.storage.Set(ctx, client, domain.StorageKeyIdentity, nav.AmbientUserID); err != nil {
			return Decision{}, fmt.Errorf("store ambient identity: %w", err)
		}
	}

	identity, ok, err := g.storage.Get(ctx, client, domain.StorageKeyIdentity)
	if err != nil {
		return Decision{}, fmt.Errorf("read identity: %w", err)
	}
	if !ok {
		identity = ""
	}

	decision := Decide(nav.Path, identity != "")
	decision.Identity = identity
	if !decision.Proceed() {
		g.log.Debug().Str("path", nav.Path).Str("redirect", decision.Redirect).Msg("guard: перенаправление")
		metrics.IncGuardRedirect(decision.Redirect)
	}
	return decision, nil
}
