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
	"messenger/internal/entity"
	"messenger/internal/nlog"
	"messenger/internal/repository"
)

// Service for the per user auto responder switch
type SettingsService interface {
	SetBotEnabled(ctx context.Context, userUUID string, enabled bool) error
	Get(ctx context.Context, userUUID string) (*entity.ResponderSettings, error) // Disabled default when the user never changed it
}

type settingsService struct {
	presenceRepository repository.PresenceRepository
	logger             nlog.Logger
}

func NewSettingsService(presenceRepo repository.PresenceRepository, logger nlog.Logger) SettingsService {
	return &settingsService{
		presenceRepository: presenceRepo,
		logger:             logger,
	}
}

func (s *settingsService) Logf(format string, v ...any) {
	s.logger.Logf(format, v...)
}

func (s *settingsService) SetBotEnabled(ctx context.Context, userUUID string, enabled bool) error {
	if err := s.presenceRepository.SetBotEnabled(ctx, userUUID, enabled); err != nil {
		s.Logf("Could not toggle the responder of %s {%v}", userUUID, err)
		return err
	}
	s.Logf("Responder of %s set to %v", userUUID, enabled)
	return nil
}

func (s *settingsService) Get(ctx context.Context, userUUID string) (*entity.ResponderSettings, error) {
	settings, found, err := s.presenceRepository.GetSettings(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &entity.ResponderSettings{UserUUID: userUUID}, nil
	}
	return settings, nil
}
