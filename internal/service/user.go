package service

import (
	"context"
	"errors"
	"strings"

	"Flow/internal/apperr"
	"Flow/internal/credential"
	"Flow/internal/model"
	"Flow/internal/offload"
	"Flow/internal/repo"

	"go.uber.org/zap"
)

// ErrInvalidCredentials - пароль не совпал с сохранённым.
var ErrInvalidCredentials = &apperr.Error{Kind: apperr.KindUnauthorized, Message: "invalid login or password"}

// UserService - вход с ленивой регистрацией и удаление аккаунта.
type UserService struct {
	users    repo.UserRepository
	items    repo.ItemRepository
	verifier *credential.Verifier
	bodies   *offload.Policy
	logger   *zap.SugaredLogger
}

func NewUserService(
	users repo.UserRepository,
	items repo.ItemRepository,
	verifier *credential.Verifier,
	bodies *offload.Policy,
	logger *zap.SugaredLogger,
) *UserService {
	return &UserService{users: users, items: items, verifier: verifier, bodies: bodies, logger: logger}
}

// Login проверяет пароль; неизвестное имя регистрируется первым входом.
func (s *UserService) Login(ctx context.Context, userName, password string) (*model.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || password == "" {
		return nil, apperr.Validation("login and password are required")
	}

	ok, err := s.verifier.VerifyOrRegister(ctx, userName, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warnw("Login rejected", "login", userName)
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.GetByName(ctx, userName)
	if errors.Is(err, apperr.ErrNotFound) {
		// хеш есть, строки нет: регистрация не завершена, дописываем
		s.logger.Warnw("Completing partial registration", "login", userName)
		if _, err := s.users.CreateIfAbsent(ctx, userName); err != nil {
			return nil, apperr.Wrap(apperr.KindPartialRegistration, "complete registration", err)
		}
		u, err = s.users.GetByName(ctx, userName)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteAccount удаляет записи, пользователя, его учётные данные и файлы тел.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	paths, err := s.items.DeleteAccount(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.verifier.Forget(u.UserName); err != nil {
		// без строки пользователя оставшийся хеш лишь повторно зарегистрирует имя
		s.logger.Errorw("Failed to forget credential", "login", u.UserName, "error", err)
	}
	for _, p := range paths {
		if err := s.bodies.Remove(p); err != nil {
			s.logger.Warnw("Failed to remove body file", "path", p, "error", err)
		}
	}
	s.logger.Infow("Account deleted", "user_id", userID, "login", u.UserName, "files", len(paths))
	return nil
}
