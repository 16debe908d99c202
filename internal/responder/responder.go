/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package responder produces the automated replies sent on behalf of offline users.
//
// The delivery core only sees AutoResponder. How the text is produced is up to
// the Generator picked at startup (see NewGenerator).
package responder

import (
	"context"
	"errors"
	"fmt"
	"messenger/internal/entity"
	"messenger/internal/metrics"
	"messenger/internal/nlog"
	"strings"
	"time"
)

// FallbackReply is sent when the generator produced nothing usable
const FallbackReply = "Sorry, I'm currently unavailable. I'll get back to you soon."

// DefaultWindow is how many of the latest messages of a conversation are shown to the generator
const DefaultWindow = 10

// ErrUnavailable is returned when no reply could be generated at all (backend down, timeout, disabled)
var ErrUnavailable = errors.New("auto responder unavailable")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged line of the transcript handed to a generator
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Prompt is everything a generator gets to write a reply
type Prompt struct {
	Persona string // Name of the offline user the reply is written for
	Partner string // Name of the user that will read the reply
	Turns   []Turn // System instruction first, then the conversation oldest first
}

// LastUserTurn returns the newest line written by the partner, if any
func (p Prompt) LastUserTurn() (string, bool) {
	for i := len(p.Turns) - 1; i >= 0; i-- {
		if p.Turns[i].Role == RoleUser {
			return p.Turns[i].Content, true
		}
	}
	return "", false
}

// Generator turns a prompt into reply text. Implementations must honour ctx.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// AutoResponder wraps a long-lived Generator with the transcript construction, the timeout and the fallback text
type AutoResponder struct {
	generator Generator
	timeout   time.Duration
	logger    nlog.Logger
	metrics   *metrics.Metrics
}

func NewAutoResponder(generator Generator, timeout time.Duration, logger nlog.Logger, m *metrics.Metrics) *AutoResponder {
	return &AutoResponder{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
		metrics:   m,
	}
}

func (a *AutoResponder) Logf(format string, v ...any) {
	a.logger.Logf(format, v...)
}

// BuildPrompt tags actingAs's own messages as the assistant voice and everything else as the user
func BuildPrompt(history []*entity.Message, actingAs, partner *entity.User) Prompt {
	turns := make([]Turn, 0, len(history)+1)
	turns = append(turns, Turn{
		Role:    RoleSystem,
		Content: fmt.Sprintf("You are %s. Reply as if you were them, in a casual conversation style. Keep your response short and conversational.", actingAs.Username),
	})
	for _, msg := range history {
		role := RoleUser
		if msg.SenderUUID == actingAs.UUID {
			role = RoleAssistant
		}
		turns = append(turns, Turn{Role: role, Content: msg.Content})
	}
	return Prompt{Persona: actingAs.Username, Partner: partner.Username, Turns: turns}
}

type generation struct {
	text string
	err  error
}

// GenerateReply writes a reply on behalf of actingAs to partner, given their latest messages oldest first.
// Empty generations become FallbackReply. Generator failures and timeouts are reported as ErrUnavailable.
func (a *AutoResponder) GenerateReply(ctx context.Context, history []*entity.Message, actingAs, partner *entity.User) (string, error) {
	prompt := BuildPrompt(history, actingAs, partner)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan generation, 1)
	go func() {
		text, err := a.generator.Generate(ctx, prompt)
		done <- generation{text, err}
	}()

	var result generation
	select {
	case result = <-done:
	case <-ctx.Done():
		result = generation{err: ctx.Err()}
	}
	took := time.Since(start)

	if result.err != nil {
		a.Logf("Generation for %s failed after %v {%v}", actingAs.Username, took, result.err)
		a.metrics.ResponderInvoked(metrics.OutcomeUnavailable, took)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, result.err)
	}

	reply := cleanReply(result.text)
	if reply == "" {
		a.Logf("Generation for %s was empty, using the fallback reply", actingAs.Username)
		a.metrics.ResponderInvoked(metrics.OutcomeFallback, took)
		return FallbackReply, nil
	}

	a.metrics.ResponderInvoked(metrics.OutcomeReply, took)
	return reply, nil
}

// cleanReply keeps only what follows the last "assistant:" marker, for generators that echo the transcript
func cleanReply(text string) string {
	const marker = "assistant:"
	if idx := strings.LastIndex(text, marker); idx >= 0 {
		text = text[idx+len(marker):]
	}
	return strings.TrimSpace(text)
}
