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
	"strings"
)

// Service storing and reading the messages exchanged by two users
type ConversationService interface {
	Append(ctx context.Context, senderUUID, receiverUUID, content string, isBot bool) (*entity.Message, error) // Stores a message, rejecting blank content with a ValidationError
	History(ctx context.Context, userA, userB string, limit int) ([]*entity.Message, error)                    // Messages between the two users in both directions, oldest first. limit <= 0 means all
	MarkRead(ctx context.Context, viewerUUID, otherUUID string, upToID uint64) (int64, error)                  // Marks what other sent to viewer as read, up to message upToID included
	UnreadCount(ctx context.Context, viewerUUID, otherUUID string) (int64, error)                              // Unread messages other sent to viewer
	UnreadBySender(ctx context.Context, viewerUUID string) (map[string]int64, error)                           // Unread messages addressed to viewer, per sender
}

type conversationService struct {
	messageRepository repository.MessageRepository
	logger            nlog.Logger
}

func NewConversationService(messageRepo repository.MessageRepository, logger nlog.Logger) ConversationService {
	return &conversationService{
		messageRepository: messageRepo,
		logger:            logger,
	}
}

func (c *conversationService) Logf(format string, v ...any) {
	c.logger.Logf(format, v...)
}

func (c *conversationService) Append(ctx context.Context, senderUUID, receiverUUID, content string, isBot bool) (*entity.Message, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}

	message := &entity.Message{
		ChatID:        entity.ChatID(senderUUID, receiverUUID),
		Content:       content,
		IsRead:        false,
		IsBotResponse: isBot,
		SenderUUID:    senderUUID,
		ReceiverUUID:  receiverUUID,
	}
	if err := c.messageRepository.Create(ctx, message); err != nil {
		c.Logf("Could not store message %s -> %s {%v}", senderUUID, receiverUUID, err)
		return nil, err
	}
	c.Logf("Message %d stored {%s -> %s, bot:%v}", message.ID, senderUUID, receiverUUID, isBot)
	return message, nil
}

func (c *conversationService) History(ctx context.Context, userA, userB string, limit int) ([]*entity.Message, error) {
	return c.messageRepository.History(ctx, entity.ChatID(userA, userB), limit)
}

func (c *conversationService) MarkRead(ctx context.Context, viewerUUID, otherUUID string, upToID uint64) (int64, error) {
	changed, err := c.messageRepository.MarkRead(ctx, otherUUID, viewerUUID, upToID)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		c.Logf("%d messages from %s marked as read by %s", changed, otherUUID, viewerUUID)
	}
	return changed, nil
}

func (c *conversationService) UnreadCount(ctx context.Context, viewerUUID, otherUUID string) (int64, error) {
	return c.messageRepository.CountUnread(ctx, otherUUID, viewerUUID)
}

func (c *conversationService) UnreadBySender(ctx context.Context, viewerUUID string) (map[string]int64, error) {
	return c.messageRepository.CountUnreadBySender(ctx, viewerUUID)
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	return nil
}
