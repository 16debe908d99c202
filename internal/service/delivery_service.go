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
	"messenger/internal/metrics"
	"messenger/internal/nlog"
	"messenger/internal/repository"
	"messenger/internal/responder"
)

// Outcome of a send. BotMessage is nil when no automated reply was produced.
type DeliveryResult struct {
	Message    *entity.Message
	BotMessage *entity.Message
}

// DeliveryService stores a message and, when the recipient asked for it, the automated reply sent on their behalf
type DeliveryService interface {
	Send(ctx context.Context, senderUUID, receiverUUID, content string) (*DeliveryResult, error)
}

type deliveryService struct {
	userRepository repository.UserRepository
	conversations  ConversationService
	policy         ResponderPolicy
	responder      *responder.AutoResponder
	window         int
	logger         nlog.Logger
	metrics        *metrics.Metrics
}

func NewDeliveryService(userRepo repository.UserRepository, conversations ConversationService, policy ResponderPolicy, autoResponder *responder.AutoResponder, window int, logger nlog.Logger, m *metrics.Metrics) DeliveryService {
	if window <= 0 {
		window = responder.DefaultWindow
	}
	return &deliveryService{
		userRepository: userRepo,
		conversations:  conversations,
		policy:         policy,
		responder:      autoResponder,
		window:         window,
		logger:         logger,
		metrics:        m,
	}
}

func (d *deliveryService) Logf(format string, v ...any) {
	d.logger.Logf(format, v...)
}

// Send persists the human message first. Whatever happens to the automated reply afterwards, that message stays.
// Only validation, unknown users and the failure of the first insert are reported to the caller.
func (d *deliveryService) Send(ctx context.Context, senderUUID, receiverUUID, content string) (*DeliveryResult, error) {
	if err := validateContent(content); err != nil {
		return nil, err
	}
	sender, err := d.userRepository.GetByUUID(ctx, senderUUID)
	if err != nil {
		return nil, notFound(err)
	}
	receiver, err := d.userRepository.GetByUUID(ctx, receiverUUID)
	if err != nil {
		return nil, notFound(err)
	}

	message, err := d.conversations.Append(ctx, senderUUID, receiverUUID, content, false)
	if err != nil {
		return nil, err
	}
	d.metrics.MessagePersisted(false)

	result := &DeliveryResult{Message: message}
	result.BotMessage = d.autoReply(ctx, sender, receiver)
	return result, nil
}

// autoReply answers on behalf of receiver when the policy allows it, returning nil on every failure
func (d *deliveryService) autoReply(ctx context.Context, sender, receiver *entity.User) *entity.Message {
	if d.responder == nil {
		return nil
	}

	history, err := d.conversations.History(ctx, sender.UUID, receiver.UUID, d.window)
	if err != nil {
		d.Logf("Could not load the conversation window of %s and %s {%v}", sender.Username, receiver.Username, err)
		return nil
	}

	// Evaluated as late as possible, right before generation
	respond, err := d.policy.ShouldRespond(ctx, sender.UUID, receiver.UUID)
	if err != nil {
		d.Logf("Responder policy lookup for %s failed {%v}", receiver.Username, err)
		return nil
	}
	if !respond {
		return nil
	}

	reply, err := d.responder.GenerateReply(ctx, history, receiver, sender)
	if err != nil {
		if errors.Is(err, responder.ErrUnavailable) {
			d.Logf("No automated reply for %s {%v}", sender.Username, err)
		} else {
			d.Logf("Automated reply for %s failed {%v}", sender.Username, err)
		}
		return nil
	}

	botMessage, err := d.conversations.Append(ctx, receiver.UUID, sender.UUID, reply, true)
	if err != nil {
		d.Logf("Could not store the automated reply of %s {%v}", receiver.Username, err)
		return nil
	}
	d.metrics.MessagePersisted(true)
	d.Logf("Automated reply %d sent on behalf of %s", botMessage.ID, receiver.Username)
	return botMessage
}
