/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package responder

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Kinds of generator accepted by NewGenerator
const (
	KindTemplate        = "template"
	KindChatCompletions = "chat-completions"
	KindNone            = "none"
)

// Config selects and parametrizes the generator built at startup
type Config struct {
	Kind       string        // One of the Kind* constants, empty means KindTemplate
	Endpoint   string        // Chat completions URL, e.g. https://openrouter.ai/api/v1/chat/completions
	Model      string        // Model name sent with each request
	APIKey     string        // Bearer token, optional for local servers
	MaxRetries int           // Attempts on retriable failures, at least 1
	Backoff    time.Duration // First retry delay, doubled on each attempt
}

// NewGenerator checks cfg and returns the generator it describes.
// It is meant to be called once, the returned value is safe for concurrent use.
func NewGenerator(cfg Config) (Generator, error) {
	switch cfg.Kind {
	case "", KindTemplate:
		return TemplateGenerator{}, nil
	case KindNone:
		return DisabledGenerator{}, nil
	case KindChatCompletions:
		if cfg.Endpoint == "" || cfg.Model == "" {
			return nil, fmt.Errorf("The %s responder needs both an endpoint and a model", KindChatCompletions)
		}
		return NewChatCompletionGenerator(cfg, &http.Client{}), nil
	default:
		return nil, fmt.Errorf("Unknown responder kind {%s}", cfg.Kind)
	}
}

// DisabledGenerator never produces anything, used when no backend is configured on purpose
type DisabledGenerator struct{}

func (DisabledGenerator) Generate(context.Context, Prompt) (string, error) {
	return "", fmt.Errorf("no generator configured")
}
