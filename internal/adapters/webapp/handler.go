package webapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/i18n"
	httpinfra "tg-summary-webapp/internal/infra/http"
	"tg-summary-webapp/internal/usecase/auth"
	"tg-summary-webapp/internal/usecase/navigation"
	"tg-summary-webapp/internal/usecase/profile"
)

// Handler отдаёт JSON-представления экранов мини-приложения.
type Handler struct {
	sessions *Sessions
	plans    domain.SubscriptionAPI
	auth     *auth.Service
	guard    *navigation.Guard
	locales  *i18n.Store
	catalog  *i18n.Catalog
	loc      *time.Location
	log      zerolog.Logger
}

// Deps собирает зависимости обработчиков.
type Deps struct {
	Sessions *Sessions
	Plans    domain.SubscriptionAPI
	Auth     *auth.Service
	Guard    *navigation.Guard
	Locales  *i18n.Store
	Catalog  *i18n.Catalog
	Location *time.Location
	Logger   zerolog.Logger
}

func NewHandler(d Deps) *Handler {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		sessions: d.Sessions,
		plans:    d.Plans,
		auth:     d.Auth,
		guard:    d.Guard,
		locales:  d.Locales,
		catalog:  d.Catalog,
		loc:      loc,
		log:      d.Logger,
	}
}

// Routes регистрирует маршруты. Страницы проходят через охранника навигации,
// служебные маршруты (язык, выход, проверка сессии) нет.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(pages chi.Router) {
		pages.Use(h.guardMiddleware)

		pages.Get(navigation.RouteRoot, h.root)
		pages.Get(navigation.RouteLogin, h.login)
		pages.Get(navigation.RouteRegistrationRequired, h.registrationRequired)

		pages.Get(navigation.RouteProfile, h.profile)
		pages.Post(navigation.RouteProfile+"/language", h.updateLanguage)
		pages.Post(navigation.RouteProfile+"/time", h.updateTime)
		pages.Post(navigation.RouteProfile+"/channels/{channelID}/remove", h.removeChannel)
		pages.Get(navigation.RouteApp+"/plans", h.listPlans)

		pages.Get(navigation.RouteSummaries, h.summaries)
		pages.Post(navigation.RouteSummaries+"/channel", h.selectChannel)

		pages.Get(navigation.RouteBreakingNews, h.breakingNews)
	})

	r.Get("/locale", h.getLocale)
	r.Post("/locale", h.setLocale)
	r.Get("/locale/t", h.translate)
	r.Post("/logout", h.logout)
	r.Get("/session", h.session)
}

func (h *Handler) locale(r *http.Request) string {
	locale, err := h.locales.Locale(r.Context(), ClientFrom(r.Context()))
	if err != nil {
		h.log.Warn().Err(err).Msg("webapp: язык клиента")
	}
	return locale
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	client := ClientFrom(r.Context())
	id, _, _ := h.auth.Identity(r.Context(), client)
	status, err := h.auth.InitAuth(r.Context(), client)
	if err != nil {
		h.log.Error().Err(err).Msg("webapp: init auth")
		httpinfra.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	resp := map[string]any{"status": status}
	if status == auth.StatusAuthenticated {
		resp["telegram_id"] = id
	} else if id != "" {
		h.sessions.Drop(id)
	}
	httpinfra.WriteJSON(w, resp)
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, navigation.LandingRoute, http.StatusFound)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	h.publicPage(w, r, "login.title")
}

func (h *Handler) registrationRequired(w http.ResponseWriter, r *http.Request) {
	h.publicPage(w, r, "registration.title")
}

func (h *Handler) publicPage(w http.ResponseWriter, r *http.Request, titleKey string) {
	locale := h.locale(r)
	botURL, err := h.auth.LoginURL()
	if err != nil && !errors.Is(err, domain.ErrBotNotConfigured) {
		httpinfra.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpinfra.WriteJSON(w, map[string]any{
		"bot_url": botURL,
		"locale":  locale,
		"title":   h.catalog.T(locale, titleKey),
	})
}

type profileView struct {
	User         *domain.User             `json:"user"`
	Subscription *domain.SubscriptionInfo `json:"subscription"`
	Channels     []domain.Channel         `json:"channels"`
	ChannelCount int                      `json:"channel_count"`
	MaxChannels  int                      `json:"max_channels"`
	Loading      bool                     `json:"loading"`
	Error        *domain.APIError         `json:"error"`
}

func renderProfile(store *profile.Store) profileView {
	view := profileView{
		Channels:     store.Channels(),
		ChannelCount: store.ChannelCount(),
		MaxChannels:  store.MaxChannels(),
		Loading:      store.Loading(),
		Error:        store.Err(),
	}
	if user, ok := store.User(); ok {
		view.User = &user
	}
	if sub, ok := store.Subscription(); ok {
		view.Subscription = &sub
	}
	return view
}

// current возвращает telegram_id, положенный охранником, и сессию пользователя.
func (h *Handler) current(r *http.Request) (string, *Session, bool) {
	id, ok := domain.IdentityFrom(r.Context())
	if !ok {
		return "", nil, false
	}
	return id, h.sessions.Get(id), true
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.current(r)
	if !ok {
		httpinfra.WriteError(w, http.StatusUnauthorized, domain.ErrNoIdentity)
		return
	}
	ctx := r.Context()
	sess.Profile.LoadUser(ctx, id)
	sess.Profile.LoadSubscription(ctx, id)
	sess.Profile.LoadChannels(ctx, id)
	httpinfra.WriteJSON(w, renderProfile(sess.Profile))
}

func (h *Handler) updateLanguage(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.current(r)
	if !ok {
		httpinfra.WriteError(w, http.StatusUnauthorized, domain.ErrNoIdentity)
		return
	}
	var req struct {
		Language string `json:"language"`
	}
	if err := decode(r, &req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.locales.SetLocale(r.Context(), ClientFrom(r.Context()), req.Language); err != nil {
		if errors.Is(err, domain.ErrUnsupportedLocale) {
			httpinfra.WriteError(w, http.StatusBadRequest, err)
			return
		}
		h.log.Error().Err(err).Msg("webapp: сохранение языка")
	}
	sess.Profile.UpdateLanguage(r.Context(), id, req.Language)
	httpinfra.WriteJSON(w, renderProfile(sess.Profile))
}

func (h *Handler) updateTime(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.current(r)
	if !ok {
		httpinfra.WriteError(w, http.StatusUnauthorized, domain.ErrNoIdentity)
		return
	}
	var req struct {
		Hour string `json:"hour"`
	}
	if err := decode(r, &req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := profile.ParseHour(req.Hour); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	sess.Profile.UpdateTime(r.Context(), id, req.Hour)
	httpinfra.WriteJSON(w, renderProfile(sess.Profile))
}

func (h *Handler) removeChannel(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.current(r)
	if !ok {
		httpinfra.WriteError(w, http.StatusUnauthorized, domain.ErrNoIdentity)
		return
	}
	sess.Profile.RemoveChannel(r.Context(), id, chi.URLParam(r, "channelID"))
	httpinfra.WriteJSON(w, renderProfile(sess.Profile))
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.GetSubscriptionPlans(r.Context())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	httpinfra.WriteJSON(w, map[string]any{"plans": plans})
}

type summariesView struct {
	Date            string                `json:"date"`
	SelectedChannel *string               `json:"selected_channel"`
	Summaries       []domain.SummaryGroup `json:"summaries"`
	AllChannels     []domain.Channel      `json:"all_channels"`
	Loading         bool                  `json:"loading"`
	Error           *domain.APIError      `json:"error"`
}

func (h *Handler) renderSummaries(w http.ResponseWriter, sess *Session) {
	store := sess.Summaries
	httpinfra.WriteJSON(w, summariesView{
		Date:            store.SelectedDate(),
		SelectedChannel: store.SelectedChannel(),
		Summaries:       store.Summaries(),
		AllChannels:     store.AllChannels(),
		Loading:         store.Loading(),
		Error:           store.Err(),
	})
}

func (h *Handler) today() string {
	return domain.FormatDay(time.Now().In(h.loc))
}

func (h *Handler) summaries(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.current(r)
	if !ok {
		httpinfra.WriteError(w, http.StatusUnauthorized, domain.ErrNoIdentity)
		return
	}
	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	if date == "" {
		date = sess.Summaries.SelectedDate()
	}
	if date == "" {
		date = h.today()
	}
	if _, err := domain.ParseDay(date, h.loc); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if q.Has("channel") {
		// Пустой telegram_id: фильтр меняется без перезагрузки, загрузка ниже.
		sess.Summaries.SetSelectedChannel(r.Context(), "", channelParam(q.Get("channel")))
	}
	sess.Summaries.LoadSummaries(r.Context(), id, date)
	h.renderSummaries(w, sess)
}

func (h *Handler) selectChannel(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.current(r)
	if !ok {
		httpinfra.WriteError(w, http.StatusUnauthorized, domain.ErrNoIdentity)
		return
	}
	var req struct {
		ChannelID *string `json:"channel_id"`
	}
	if err := decode(r, &req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var channel *string
	if req.ChannelID != nil {
		channel = channelParam(*req.ChannelID)
	}
	sess.Summaries.SetSelectedChannel(r.Context(), id, channel)
	h.renderSummaries(w, sess)
}

func channelParam(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "all" {
		return nil
	}
	return &raw
}

func (h *Handler) breakingNews(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.current(r)
	if !ok {
		httpinfra.WriteError(w, http.StatusUnauthorized, domain.ErrNoIdentity)
		return
	}
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	switch {
	case start != "" || end != "":
		if start == "" {
			start = end
		}
		if end == "" {
			end = start
		}
		if _, err := domain.DayRange(start, end); err != nil {
			httpinfra.WriteError(w, http.StatusBadRequest, err)
			return
		}
		sess.Breaking.LoadRange(r.Context(), id, start, end)
	default:
		dates := q["date"]
		if len(dates) == 0 {
			dates = []string{h.today()}
		}
		for _, d := range dates {
			if _, err := domain.ParseDay(d, h.loc); err != nil {
				httpinfra.WriteError(w, http.StatusBadRequest, err)
				return
			}
		}
		sess.Breaking.LoadBreakingNews(r.Context(), id, dates)
	}
	httpinfra.WriteJSON(w, map[string]any{
		"has_access": sess.Breaking.HasAccess(),
		"news":       sess.Breaking.News(),
		"loading":    sess.Breaking.Loading(),
		"error":      sess.Breaking.Err(),
	})
}

func (h *Handler) getLocale(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, map[string]any{
		"locale":    h.locale(r),
		"supported": i18n.SupportedLocales,
	})
}

func (h *Handler) setLocale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Locale string `json:"locale"`
	}
	if err := decode(r, &req); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.locales.SetLocale(r.Context(), ClientFrom(r.Context()), req.Locale); err != nil {
		if errors.Is(err, domain.ErrUnsupportedLocale) {
			httpinfra.WriteError(w, http.StatusBadRequest, err)
			return
		}
		httpinfra.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpinfra.WriteJSON(w, map[string]string{"locale": req.Locale})
}

func (h *Handler) translate(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	locale := h.locale(r)
	httpinfra.WriteJSON(w, map[string]string{
		"key":    key,
		"locale": locale,
		"value":  h.catalog.T(locale, key),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	client := ClientFrom(r.Context())
	if id, ok, err := h.auth.Identity(r.Context(), client); err == nil && ok {
		h.sessions.Drop(id)
	}
	if err := h.auth.Logout(r.Context(), client); err != nil {
		h.log.Error().Err(err).Msg("webapp: выход")
		httpinfra.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	httpinfra.WriteJSON(w, map[string]string{"redirect": navigation.RouteLogin})
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeAPIError отвечает статусом бэкенда и нормализованной ошибкой.
func writeAPIError(w http.ResponseWriter, err error) {
	apiErr := domain.NormalizeError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	_ = json.NewEncoder(w).Encode(apiErr)
}
