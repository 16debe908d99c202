/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package service

import (
	"context"
	"errors"
	"fmt"
	"messenger/internal/entity"
	"messenger/internal/nlog"
	"messenger/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Register(ctx context.Context, username, password string) (*entity.User, error)
	Login(ctx context.Context, username, password string) (*entity.User, error) // Verifies the credentials and marks the user online
	Logout(ctx context.Context, userUUID string) error                          // Marks the user offline
}

type authService struct {
	userRepository repository.UserRepository
	presence       PresenceService
	logger         nlog.Logger
	staff          map[string]bool // Usernames registered with the staff flag
}

func NewAuthService(userRepo repository.UserRepository, presence PresenceService, logger nlog.Logger, staffUsers ...string) AuthService {
	staff := make(map[string]bool, len(staffUsers))
	for _, name := range staffUsers {
		staff[strings.TrimSpace(name)] = true
	}
	return &authService{
		userRepository: userRepo,
		presence:       presence,
		logger:         logger,
		staff:          staff,
	}
}

func (a *authService) Logf(format string, v ...any) {
	a.logger.Logf(format, v...)
}

func (a *authService) Register(ctx context.Context, username, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if len(password) < 4 {
		return nil, &ValidationError{Field: "password", Reason: "must be at least 4 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		a.Logf("Could not calculate hash{%v}", err)
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	u := &entity.User{
		UUID:      id,
		Username:  username,
		IsStaff:   a.staff[username],
		CreatedAt: now,

		Secret: entity.UserSecret{
			UserUUID: id,
			Hash:     string(hash),
		},
	}
	if err := a.userRepository.Create(ctx, u, now); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ValidationError{Field: "username", Reason: "already taken"}
		}
		return nil, err
	}
	a.Logf("User %s registered {%s}", u.Username, u.UUID)
	return u, nil
}

func (a *authService) Login(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := a.userRepository.GetForLogin(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(u.Secret.Hash), []byte(password)); err != nil {
		a.Logf("Wrong password for %s", username)
		return nil, ErrInvalidCredentials
	}

	if err := a.presence.SetOnline(ctx, u.UUID); err != nil {
		return nil, fmt.Errorf("login of %s could not be completed: %w", username, err)
	}
	a.Logf("User %s logged in", username)
	return u, nil
}

func (a *authService) Logout(ctx context.Context, userUUID string) error {
	if err := a.presence.SetOffline(ctx, userUUID); err != nil {
		return err
	}
	a.Logf("User %s logged out", userUUID)
	return nil
}
