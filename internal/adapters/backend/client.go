package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/infra/metrics"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultNotifyTimeout = 10 * time.Second
	identityField        = "telegram_id"
)

// Client — единственный клиент REST бэкенда с фиксированным адресом и таймаутом.
type Client struct {
	baseURL       *url.URL
	httpClient    *http.Client
	log           zerolog.Logger
	notifier      domain.Notifier
	notifyTimeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// WithNotifier подменяет уведомитель об обновлении кэша бота.
func WithNotifier(n domain.Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

func WithNotifyTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.notifyTimeout = timeout
		}
	}
}

// New создаёт клиента. По умолчанию уведомления отправляются через RefreshNotifier.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	client := &Client{
		baseURL:       parsed,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		log:           zerolog.Nop(),
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.notifier == nil {
		client.notifier = NewRefreshNotifier(client, client.notifyTimeout, client.log)
	}
	return client, nil
}

// Wait дожидается отправки начатых уведомлений.
func (c *Client) Wait() {
	if w, ok := c.notifier.(interface{ Wait() }); ok {
		w.Wait()
	}
}

// apiRequest — типизированное описание обращения к бэкенду.
// query == nil у GET означает запрос без параметров: идентификатор в него не добавляется.
type apiRequest struct {
	operation string
	route     string
	method    string
	endpoint  string
	query     url.Values
	body      map[string]any
}

// buildRequest собирает http.Request, явно добавляя идентификатор клиента:
// в query у GET с параметрами и в тело у запросов с телом.
func buildRequest(ctx context.Context, base *url.URL, req apiRequest, identity string) (*http.Request, error) {
	resolved := *base
	basePath := strings.TrimSuffix(base.Path, "/")
	resolved.Path = path.Clean(basePath + req.endpoint)
	if strings.HasSuffix(req.endpoint, "/") && !strings.HasSuffix(resolved.Path, "/") {
		resolved.Path += "/"
	}

	query := cloneValues(req.query)
	if identity != "" && req.method == http.MethodGet && query != nil {
		query.Set(identityField, identity)
	}
	if len(query) > 0 {
		resolved.RawQuery = query.Encode()
	}

	var buf io.Reader
	if req.body != nil {
		body := make(map[string]any, len(req.body)+1)
		for k, v := range req.body {
			body[k] = v
		}
		if identity != "" {
			body[identityField] = identity
		}
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		buf = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, resolved.String(), buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v)+1)
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// call выполняет запрос и нормализует любую ошибку в *domain.APIError.
func (c *Client) call(ctx context.Context, req apiRequest, out any) error {
	identity, _ := domain.IdentityFrom(ctx)
	httpReq, err := buildRequest(ctx, c.baseURL, req, identity)
	if err != nil {
		return domain.NormalizeError(err)
	}
	start := time.Now()
	err = c.do(httpReq, out)
	metrics.ObserveNetworkRequest("backend", req.operation, req.route, start, err)
	if err != nil {
		c.log.Debug().Err(err).Str("operation", req.operation).Msg("backend: запрос завершился ошибкой")
		return err
	}
	return nil
}

type serverError struct {
	Error string `json:"error"`
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.APIError{Err: err.Error(), Status: http.StatusInternalServerError, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("Request failed with status code %d", resp.StatusCode)
		apiErr := &domain.APIError{Err: msg, Status: resp.StatusCode, Message: msg}
		data, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(data) > 0 {
			var payload serverError
			if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
				apiErr.Message = payload.Error
			}
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		msg := fmt.Sprintf("decode response: %v", err)
		return &domain.APIError{Err: msg, Status: http.StatusInternalServerError, Message: msg}
	}
	return nil
}

// decodeList разбирает тело как список; всё, что не похоже на список, даёт пустой результат.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		msg := fmt.Sprintf("decode list: %v", err)
		return nil, &domain.APIError{Err: msg, Status: http.StatusInternalServerError, Message: msg}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
