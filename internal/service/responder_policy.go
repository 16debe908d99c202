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
	"messenger/internal/repository"
)

// ResponderPolicy decides whether the auto responder speaks for the recipient of a message
type ResponderPolicy interface {
	ShouldRespond(ctx context.Context, senderUUID, recipientUUID string) (bool, error)
}

type responderPolicy struct {
	presenceRepository repository.PresenceRepository
}

func NewResponderPolicy(presenceRepo repository.PresenceRepository) ResponderPolicy {
	return &responderPolicy{presenceRepo}
}

// ShouldRespond is true only when the recipient is offline and has the responder enabled.
// Presence and settings come from one statement, so a concurrent toggle is seen entirely or not at all.
func (r *responderPolicy) ShouldRespond(ctx context.Context, _, recipientUUID string) (bool, error) {
	status, err := r.presenceRepository.GetStatus(ctx, recipientUUID)
	if err != nil {
		return false, notFound(err)
	}
	return !status.IsOnline && status.BotEnabled, nil
}
