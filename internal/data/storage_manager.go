/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package data

import (
	"fmt"
	"messenger/internal/entity"
	"messenger/internal/repository"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage manager gathers all the repositories needed for the chat system in a single container.
type StorageManager struct {
	db *gorm.DB // Under the hood we use the SQLite implementation

	// Repositories
	userRepo     repository.UserRepository
	messageRepo  repository.MessageRepository
	presenceRepo repository.PresenceRepository
}

// OpenSQLite opens the database at path. Foreign keys are enforced and gorm only reports warnings and errors.
func OpenSQLite(path string) (*gorm.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := gorm.Open(sqlite.Open(path+sep+"_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true, // Unique violations surface as gorm.ErrDuplicatedKey
		// Timestamps are stored as text and sorted as text, so they all share the UTC offset
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("Database could not be opened correctly: %w", err)
	}
	return db, nil
}

// NewStorageManager migrates the schema on db and builds the repositories on top of it
func NewStorageManager(db *gorm.DB) (*StorageManager, error) {
	err := db.AutoMigrate(
		&entity.User{},
		&entity.UserSecret{},
		&entity.Message{},
		&entity.PresenceRecord{},
		&entity.ResponderSettings{},
	)
	if err != nil {
		return nil, fmt.Errorf("Schema migration failed: %w", err)
	}

	return &StorageManager{
		db:           db,
		userRepo:     repository.NewSQLiteUserRepository(db),
		messageRepo:  repository.NewSQLiteMessageRepository(db),
		presenceRepo: repository.NewSQLitePresenceRepository(db),
	}, nil
}

func (s *StorageManager) GetUserRepository() repository.UserRepository {
	return s.userRepo
}

func (s *StorageManager) GetMessageRepository() repository.MessageRepository {
	return s.messageRepo
}

func (s *StorageManager) GetPresenceRepository() repository.PresenceRepository {
	return s.presenceRepo
}

// DB exposes the underlying handle, for maintenance and tests
func (s *StorageManager) DB() *gorm.DB {
	return s.db
}

// Close releases the underlying connection pool
func (s *StorageManager) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
