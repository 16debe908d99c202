/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package repository

import (
	"context"
	"errors"
	"messenger/internal/entity"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// This repository holds the presence of each user and the responder settings that depend on it.
// Writes are single upserts, so concurrent login/logout/toggle requests never lose an update on a record.
type PresenceRepository interface {
	SetOnline(ctx context.Context, userUUID string, online bool, at time.Time) error // Upserts the presence record of the user with the given state and timestamp
	Get(ctx context.Context, userUUID string) (*entity.PresenceRecord, bool, error)  // Retrieves the presence record, the bool is false if none exists

	SetBotEnabled(ctx context.Context, userUUID string, enabled bool) error                    // Upserts the responder settings of the user
	GetSettings(ctx context.Context, userUUID string) (*entity.ResponderSettings, bool, error) // Retrieves the responder settings, the bool is false if none exists

	GetStatus(ctx context.Context, userUUID string) (*entity.UserStatus, error) // Reads presence and settings of one user in a single statement
	ListStatuses(ctx context.Context) ([]*entity.UserStatus, error)             // Reads presence and settings of every user
}

// Implementation of the repository using a SQLite DB
type SQLitePresenceRepository struct {
	db *gorm.DB
}

func NewSQLitePresenceRepository(db *gorm.DB) PresenceRepository {
	return &SQLitePresenceRepository{db}
}

func (repo *SQLitePresenceRepository) SetOnline(ctx context.Context, userUUID string, online bool, at time.Time) error {
	record := entity.PresenceRecord{UserUUID: userUUID, IsOnline: online, LastOnline: at.UTC()}
	return repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_online", "last_online"}),
	}).Create(&record).Error
}

func (repo *SQLitePresenceRepository) Get(ctx context.Context, userUUID string) (*entity.PresenceRecord, bool, error) {
	var record entity.PresenceRecord
	err := repo.db.WithContext(ctx).Where("user_uuid = ?", userUUID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &record, true, nil
}

func (repo *SQLitePresenceRepository) SetBotEnabled(ctx context.Context, userUUID string, enabled bool) error {
	settings := entity.ResponderSettings{UserUUID: userUUID, BotEnabled: enabled}
	return repo.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_uuid"}},
		DoUpdates: clause.AssignmentColumns([]string{"bot_enabled"}),
	}).Create(&settings).Error
}

func (repo *SQLitePresenceRepository) GetSettings(ctx context.Context, userUUID string) (*entity.ResponderSettings, bool, error) {
	var settings entity.ResponderSettings
	err := repo.db.WithContext(ctx).Where("user_uuid = ?", userUUID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &settings, true, nil
}

func (repo *SQLitePresenceRepository) GetStatus(ctx context.Context, userUUID string) (*entity.UserStatus, error) {
	var statuses []*entity.UserStatus
	if err := repo.statusQuery(ctx).Where("users.uuid = ?", userUUID).Scan(&statuses).Error; err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return statuses[0], nil
}

func (repo *SQLitePresenceRepository) ListStatuses(ctx context.Context) ([]*entity.UserStatus, error) {
	var statuses []*entity.UserStatus
	err := repo.statusQuery(ctx).Order("users.username ASC").Scan(&statuses).Error
	return statuses, err
}

// statusQuery joins users with their (possibly missing) presence and settings rows
func (repo *SQLitePresenceRepository) statusQuery(ctx context.Context) *gorm.DB {
	return repo.db.WithContext(ctx).Table("users").
		Select(`users.uuid AS user_uuid, users.username AS username,
			COALESCE(presence_records.is_online, false) AS is_online,
			presence_records.last_online AS last_online,
			COALESCE(responder_settings.bot_enabled, false) AS bot_enabled`).
		Joins("LEFT JOIN presence_records ON presence_records.user_uuid = users.uuid").
		Joins("LEFT JOIN responder_settings ON responder_settings.user_uuid = users.uuid")
}
