package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"tg-summary-webapp/internal/domain"
)

// Status — результат проверки сохранённой личности.
type Status string

const (
	StatusAuthenticated        Status = "authenticated"
	StatusRegistrationRequired Status = "registration_required"
	StatusAnonymous            Status = "anonymous"
)

// Service управляет входом: ссылкой на бота, выходом и проверкой сохранённого telegram_id.
type Service struct {
	users       domain.UserAPI
	storage     domain.ClientStorage
	botUsername string
	log         zerolog.Logger
}

func NewService(users domain.UserAPI, storage domain.ClientStorage, botUsername string, logger zerolog.Logger) *Service {
	return &Service{
		users:       users,
		storage:     storage,
		botUsername: strings.TrimPrefix(strings.TrimSpace(botUsername), "@"),
		log:         logger,
	}
}

// LoginURL возвращает ссылку на бота, через которого пользователь открывает мини-приложение.
func (s *Service) LoginURL() (string, error) {
	if s.botUsername == "" {
		return "", domain.ErrBotNotConfigured
	}
	return fmt.Sprintf("https://t.me/%s", s.botUsername), nil
}

// Identity возвращает сохранённый telegram_id клиента.
func (s *Service) Identity(ctx context.Context, client string) (string, bool, error) {
	id, ok, err := s.storage.Get(ctx, client, domain.StorageKeyIdentity)
	if err != nil {
		return "", false, fmt.Errorf("read identity: %w", err)
	}
	return id, ok && id != "", nil
}

// Logout забывает сохранённую личность клиента.
func (s *Service) Logout(ctx context.Context, client string) error {
	if err := s.storage.Remove(ctx, client, domain.StorageKeyIdentity); err != nil {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}

// InitAuth проверяет, что сохранённый пользователь всё ещё существует на бэкенде.
// Неизвестный или недоступный пользователь приводит к сбросу личности.
func (s *Service) InitAuth(ctx context.Context, client string) (Status, error) {
	id, ok, err := s.Identity(ctx, client)
	if err != nil {
		return StatusAnonymous, err
	}
	if !ok {
		return StatusAnonymous, nil
	}

	exists, err := s.users.CheckUserExists(ctx, id)
	switch {
	case err == nil && exists:
		return StatusAuthenticated, nil
	case err == nil || domain.IsNotFound(err):
		s.log.Info().Str("telegram_id", id).Msg("auth: пользователь не зарегистрирован")
		if rmErr := s.Logout(ctx, client); rmErr != nil {
			return StatusRegistrationRequired, rmErr
		}
		return StatusRegistrationRequired, nil
	default:
		s.log.Error().Err(err).Str("telegram_id", id).Msg("auth: проверка пользователя не удалась")
		if rmErr := s.Logout(ctx, client); rmErr != nil {
			return StatusAnonymous, rmErr
		}
		return StatusAnonymous, nil
	}
}
