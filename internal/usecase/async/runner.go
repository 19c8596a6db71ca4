// Package async ведёт учёт загрузки и ошибок вокруг вызовов бэкенда.
//
// Runner хранит один общий флаг загрузки и одну общую ячейку ошибки.
// Пересекающиеся вызовы через один Runner перетирают ошибку друг друга
// (побеждает последний); для изоляции нужны отдельные экземпляры.
package async

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
	"tg-summary-webapp/internal/infra/metrics"
)

// Runner выполняет вызовы, поглощая ошибки в общую ячейку.
type Runner struct {
	log     zerolog.Logger
	mu      sync.Mutex
	loading bool
	err     *domain.APIError
}

// NewRunner создаёт обёртку с логгером.
func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{log: logger}
}

// Loading сообщает, идёт ли сейчас вызов.
func (r *Runner) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Err возвращает копию последней поглощённой ошибки или nil.
func (r *Runner) Err() *domain.APIError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		return nil
	}
	out := *r.err
	return &out
}

func (r *Runner) start() {
	r.mu.Lock()
	r.loading = true
	r.err = nil
	r.mu.Unlock()
}

func (r *Runner) finish() {
	r.mu.Lock()
	r.loading = false
	r.mu.Unlock()
}

func (r *Runner) fail(err error) {
	apiErr := domain.NormalizeError(err)
	r.mu.Lock()
	r.err = apiErr
	r.mu.Unlock()
	metrics.IncAsyncError(apiErr.Status)
	r.log.Error().Err(err).Int("status", apiErr.Status).Msg("API Error")
}

// Execute выполняет fn. При успехе возвращает результат и true; при ошибке
// записывает нормализованную ошибку в Runner и возвращает нулевое значение и false.
// Ошибка наружу не пробрасывается.
func Execute[T any](ctx context.Context, r *Runner, fn func(context.Context) (T, error)) (T, bool) {
	r.start()
	defer r.finish()

	result, err := fn(ctx)
	if err != nil {
		r.fail(err)
		var zero T
		return zero, false
	}
	return result, true
}

// Do — вариант Execute для вызовов без результата.
func Do(ctx context.Context, r *Runner, fn func(context.Context) error) bool {
	_, ok := Execute(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return ok
}
