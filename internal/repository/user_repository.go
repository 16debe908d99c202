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
	"messenger/internal/entity"
	"time"

	"gorm.io/gorm"
)

// This repository is used to manipulate the users in the system. Users are created, read and flagged as staff.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User, createdAt time.Time) error // Inserts a user with its secret and default presence and responder rows, all in one transaction

	GetForLogin(ctx context.Context, username string) (*entity.User, error) // Retrieves the user with the given name, it also returns it's hashed password, hence, used for login.
	GetByUUID(ctx context.Context, uuid string) (*entity.User, error)       // Retrieves the user with the given uuid.
	SetStaff(ctx context.Context, username string, staff bool) error        // Grants or revokes the staff flag, gorm.ErrRecordNotFound if there is no such user
}

// Implementation of the repository using a SQLite DB
type SQLiteUserRepository struct {
	db *gorm.DB
}

func NewSQLiteUserRepository(db *gorm.DB) UserRepository {
	return &SQLiteUserRepository{db}
}

func (repo *SQLiteUserRepository) Create(ctx context.Context, user *entity.User, createdAt time.Time) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if err := tx.Create(&entity.PresenceRecord{UserUUID: user.UUID, IsOnline: false, LastOnline: createdAt}).Error; err != nil {
			return err
		}
		if err := tx.Create(&entity.ResponderSettings{UserUUID: user.UUID, BotEnabled: false}).Error; err != nil {
			return err
		}
		return nil
	})
}

func (repo *SQLiteUserRepository) GetForLogin(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User

	if err := repo.db.WithContext(ctx).Preload("Secret").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (repo *SQLiteUserRepository) GetByUUID(ctx context.Context, uuid string) (*entity.User, error) {
	var user entity.User
	if err := repo.db.WithContext(ctx).Where("uuid = ?", uuid).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (repo *SQLiteUserRepository) SetStaff(ctx context.Context, username string, staff bool) error {
	result := repo.db.WithContext(ctx).Model(&entity.User{}).Where("username = ?", username).Update("is_staff", staff)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
