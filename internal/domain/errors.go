package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidDate возвращается при дате не в формате YYYY-MM-DD или при пустом диапазоне.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidHour возвращается, если время рассылки не в формате HH:MM.
	ErrInvalidHour = errors.New("invalid hour")

	// ErrUnsupportedLocale возвращается для языка вне списка поддерживаемых.
	ErrUnsupportedLocale = errors.New("unsupported locale")

	// ErrNoIdentity возвращается, если у клиента нет сохранённого telegram_id.
	ErrNoIdentity = errors.New("identity is not set")

	// ErrBotNotConfigured возвращается, если не задан username бота для входа.
	ErrBotNotConfigured = errors.New("bot username is not configured")

	// ErrInvalidInitData возвращается при неверной подписи initData мини-приложения.
	ErrInvalidInitData = errors.New("invalid telegram init data")
)

// APIError — нормализованная ошибка обращения к бэкенду.
type APIError struct {
	Err     string `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" && e.Message != e.Err {
		return fmt.Sprintf("%s (status=%d): %s", e.Err, e.Status, e.Message)
	}
	return fmt.Sprintf("%s (status=%d)", e.Err, e.Status)
}

// NormalizeError приводит произвольную ошибку к APIError. Статус по умолчанию 500.
func NormalizeError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		out := *apiErr
		if out.Status == 0 {
			out.Status = http.StatusInternalServerError
		}
		if out.Err == "" {
			out.Err = "An error occurred"
		}
		return &out
	}
	msg := err.Error()
	if msg == "" {
		msg = "An error occurred"
	}
	return &APIError{Err: msg, Status: http.StatusInternalServerError, Message: msg}
}

// IsNotFound сообщает, что бэкенд ответил 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
