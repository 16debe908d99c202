/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// statusError is a non-200 answer from the backend
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.code, e.body)
}

// ChatCompletionGenerator talks to an OpenAI compatible /chat/completions endpoint (OpenRouter, LM Studio, ...)
type ChatCompletionGenerator struct {
	endpoint   string
	model      string
	apiKey     string
	maxRetries int
	backoff    time.Duration
	client     *http.Client
}

func NewChatCompletionGenerator(cfg Config, client *http.Client) *ChatCompletionGenerator {
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &ChatCompletionGenerator{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		maxRetries: retries,
		backoff:    backoff,
		client:     client,
	}
}

func (g *ChatCompletionGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	payload, err := json.Marshal(chatRequest{Model: g.model, Messages: prompt.Turns})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var reply string
	err = g.retryWithBackoff(ctx, func() error {
		reply, err = g.call(ctx, payload)
		return err
	})
	return reply, err
}

// call performs a single request
func (g *ChatCompletionGenerator) call(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{resp.StatusCode, string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.Error.Message != "" {
		return "", fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

// retryWithBackoff runs fn up to maxRetries times, doubling the wait each time, as long as the error is retriable and ctx is alive
func (g *ChatCompletionGenerator) retryWithBackoff(ctx context.Context, fn func() error) error {
	var err error
	wait := g.backoff
	for i := 0; i < g.maxRetries; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isRetriable(err) || i == g.maxRetries-1 {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
	return err
}

// isRetriable is true for overload/unavailability answers and transport failures, never for a dead context
func isRetriable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}
