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
	"messenger/internal/metrics"
	"messenger/internal/nlog"
	"messenger/internal/repository"
	"time"

	"gorm.io/gorm"
)

// Service tracking whether users are online. Every transition refreshes LastOnline.
type PresenceService interface {
	SetOnline(ctx context.Context, userUUID string) error
	SetOffline(ctx context.Context, userUUID string) error
	Get(ctx context.Context, userUUID string) (*entity.PresenceRecord, error) // Never fails because the record is missing, an offline default is returned instead
	List(ctx context.Context) ([]*entity.UserStatus, error)                   // Every user with presence and responder flag, sorted by name
}

type presenceService struct {
	presenceRepository repository.PresenceRepository
	logger             nlog.Logger
	metrics            *metrics.Metrics
	now                func() time.Time
}

func NewPresenceService(presenceRepo repository.PresenceRepository, logger nlog.Logger, m *metrics.Metrics) PresenceService {
	return &presenceService{
		presenceRepository: presenceRepo,
		logger:             logger,
		metrics:            m,
		now:                time.Now,
	}
}

func (p *presenceService) Logf(format string, v ...any) {
	p.logger.Logf(format, v...)
}

func (p *presenceService) SetOnline(ctx context.Context, userUUID string) error {
	return p.set(ctx, userUUID, true)
}

func (p *presenceService) SetOffline(ctx context.Context, userUUID string) error {
	return p.set(ctx, userUUID, false)
}

func (p *presenceService) set(ctx context.Context, userUUID string, online bool) error {
	if err := p.presenceRepository.SetOnline(ctx, userUUID, online, p.now()); err != nil {
		p.Logf("Could not set presence of %s to online=%v {%v}", userUUID, online, err)
		return fmt.Errorf("presence update failed: %w", err)
	}
	p.metrics.PresenceChanged(online)
	p.Logf("Presence of %s set to online=%v", userUUID, online)
	return nil
}

func (p *presenceService) Get(ctx context.Context, userUUID string) (*entity.PresenceRecord, error) {
	record, found, err := p.presenceRepository.Get(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &entity.PresenceRecord{UserUUID: userUUID}, nil
	}
	return record, nil
}

func (p *presenceService) List(ctx context.Context) ([]*entity.UserStatus, error) {
	return p.presenceRepository.ListStatuses(ctx)
}

// notFound maps a missing row to ErrNotFound, leaving other errors untouched
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
