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
	"messenger/internal/entity"
	"messenger/internal/nlog"
	"messenger/internal/repository"
	"strings"

	"gorm.io/gorm"
)

// One entry of a user's contact list
type Contact struct {
	UUID        string `json:"id"`
	Username    string `json:"username"`
	IsOnline    bool   `json:"is_online"`
	UnreadCount int64  `json:"unread_count"`
}

// Service used to look users up
type UserService interface {
	GetByUUID(ctx context.Context, uuid string) (*entity.User, error)        // ErrNotFound when there is no such user
	ListContacts(ctx context.Context, viewerUUID string) ([]*Contact, error) // Every other user with presence and unread count, sorted by name
	PromoteStaff(ctx context.Context, usernames []string) (int, error)       // Flags the existing users among usernames as staff, returning how many were found
}

type userService struct {
	userRepository     repository.UserRepository
	presenceRepository repository.PresenceRepository
	conversations      ConversationService
	logger             nlog.Logger
}

func NewUserService(userRepo repository.UserRepository, presenceRepo repository.PresenceRepository, conversations ConversationService, logger nlog.Logger) UserService {
	return &userService{
		userRepository:     userRepo,
		presenceRepository: presenceRepo,
		conversations:      conversations,
		logger:             logger,
	}
}

func (u *userService) Logf(format string, v ...any) {
	u.logger.Logf(format, v...)
}

func (u *userService) GetByUUID(ctx context.Context, uuid string) (*entity.User, error) {
	user, err := u.userRepository.GetByUUID(ctx, uuid)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (u *userService) ListContacts(ctx context.Context, viewerUUID string) ([]*Contact, error) {
	statuses, err := u.presenceRepository.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}
	unread, err := u.conversations.UnreadBySender(ctx, viewerUUID)
	if err != nil {
		return nil, err
	}

	contacts := make([]*Contact, 0, len(statuses))
	for _, status := range statuses {
		if status.UserUUID == viewerUUID {
			continue
		}
		contacts = append(contacts, &Contact{
			UUID:        status.UserUUID,
			Username:    status.Username,
			IsOnline:    status.IsOnline,
			UnreadCount: unread[status.UserUUID],
		})
	}
	u.Logf("Listed %d contacts for %s", len(contacts), viewerUUID)
	return contacts, nil
}

// PromoteStaff skips names that are not registered yet, registration grants them the flag later
func (u *userService) PromoteStaff(ctx context.Context, usernames []string) (int, error) {
	promoted := 0
	for _, name := range usernames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		err := u.userRepository.SetStaff(ctx, name, true)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			u.Logf("Staff user %s is not registered yet", name)
			continue
		}
		if err != nil {
			return promoted, err
		}
		promoted++
	}
	u.Logf("%d staff users promoted", promoted)
	return promoted, nil
}
