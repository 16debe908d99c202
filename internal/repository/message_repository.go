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
	"slices"

	"gorm.io/gorm"
)

// This repository is used to manipulate the direct messages in the system. It allows CR operations plus the read flag update.
// Messages are never deleted.
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error // Inserts a message, filling in its ID

	History(ctx context.Context, chatID string, limit int) ([]*entity.Message, error)            // Retrieves the messages of a chat, oldest first. With limit > 0 only the newest limit messages are returned
	MarkRead(ctx context.Context, senderUUID, receiverUUID string, upToID uint64) (int64, error) // Marks as read the unread messages sent by sender to receiver with id <= upToID, returning how many changed
	CountUnread(ctx context.Context, senderUUID, receiverUUID string) (int64, error)             // Counts the unread messages sent by sender to receiver
	CountUnreadBySender(ctx context.Context, receiverUUID string) (map[string]int64, error)      // Counts the unread messages addressed to receiver, grouped by sender
}

// Implementation of the repository using a SQLite DB
type SQLiteMessageRepository struct {
	db *gorm.DB
}

func NewSQLiteMessageRepository(db *gorm.DB) MessageRepository {
	return &SQLiteMessageRepository{db}
}

func (repo *SQLiteMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if !message.CreatedAt.IsZero() {
		message.CreatedAt = message.CreatedAt.UTC()
	}
	return repo.db.WithContext(ctx).Create(message).Error
}

func (repo *SQLiteMessageRepository) History(ctx context.Context, chatID string, limit int) ([]*entity.Message, error) {
	var messages []*entity.Message

	if limit <= 0 {
		err := repo.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("created_at ASC").Order("id ASC").Find(&messages).Error
		return messages, err
	}

	// Newest first to apply the limit, then back to chronological order
	err := repo.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

func (repo *SQLiteMessageRepository) MarkRead(ctx context.Context, senderUUID, receiverUUID string, upToID uint64) (int64, error) {
	result := repo.db.WithContext(ctx).Model(&entity.Message{}).
		Where("sender_uuid = ? AND receiver_uuid = ? AND is_read = ? AND id <= ?", senderUUID, receiverUUID, false, upToID).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (repo *SQLiteMessageRepository) CountUnread(ctx context.Context, senderUUID, receiverUUID string) (int64, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entity.Message{}).
		Where("sender_uuid = ? AND receiver_uuid = ? AND is_read = ?", senderUUID, receiverUUID, false).
		Count(&count).Error
	return count, err
}

func (repo *SQLiteMessageRepository) CountUnreadBySender(ctx context.Context, receiverUUID string) (map[string]int64, error) {
	var rows []struct {
		SenderUUID string
		Unread     int64
	}
	err := repo.db.WithContext(ctx).Model(&entity.Message{}).
		Select("sender_uuid, COUNT(*) AS unread").
		Where("receiver_uuid = ? AND is_read = ?", receiverUUID, false).
		Group("sender_uuid").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.SenderUUID] = row.Unread
	}
	return counts, nil
}
