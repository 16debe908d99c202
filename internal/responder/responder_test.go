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
	"encoding/json"
	"errors"
	"messenger/internal/entity"
	"messenger/internal/metrics"
	"messenger/internal/nlog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	text  string
	err   error
	delay time.Duration
	seen  Prompt
}

func (s *stubGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	s.seen = prompt
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

var (
	alice = &entity.User{UUID: "a-uuid", Username: "alice"}
	bob   = &entity.User{UUID: "b-uuid", Username: "bob"}
)

// outcomeCount reads messenger_responder_invocations_total{outcome} from the registry
func outcomeCount(t *testing.T, m *metrics.Metrics, outcome string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "messenger_responder_invocations_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func sampleHistory() []*entity.Message {
	return []*entity.Message{
		{ID: 1, SenderUUID: alice.UUID, ReceiverUUID: bob.UUID, Content: "hi bob"},
		{ID: 2, SenderUUID: bob.UUID, ReceiverUUID: alice.UUID, Content: "hey alice"},
		{ID: 3, SenderUUID: alice.UUID, ReceiverUUID: bob.UUID, Content: "are you there?"},
	}
}

func TestBuildPromptTagsRoles(t *testing.T) {
	prompt := BuildPrompt(sampleHistory(), bob, alice)

	require.Len(t, prompt.Turns, 4)
	assert.Equal(t, RoleSystem, prompt.Turns[0].Role)
	assert.Contains(t, prompt.Turns[0].Content, "You are bob.")
	assert.Equal(t, Turn{RoleUser, "hi bob"}, prompt.Turns[1])
	assert.Equal(t, Turn{RoleAssistant, "hey alice"}, prompt.Turns[2])
	assert.Equal(t, Turn{RoleUser, "are you there?"}, prompt.Turns[3])
	assert.Equal(t, "bob", prompt.Persona)
	assert.Equal(t, "alice", prompt.Partner)

	last, ok := prompt.LastUserTurn()
	assert.True(t, ok)
	assert.Equal(t, "are you there?", last)
}

func TestGenerateReplyReturnsGeneratedText(t *testing.T) {
	m := metrics.New()
	gen := &stubGenerator{text: "  brb, in a meeting  "}
	r := NewAutoResponder(gen, time.Second, nlog.Discard(), m)

	reply, err := r.GenerateReply(context.Background(), sampleHistory(), bob, alice)
	require.NoError(t, err)
	assert.Equal(t, "brb, in a meeting", reply)
	assert.Len(t, gen.seen.Turns, 4)
	assert.Equal(t, 1.0, outcomeCount(t, m, metrics.OutcomeReply))
}

func TestGenerateReplyFallsBackOnEmptyText(t *testing.T) {
	for _, text := range []string{"", "   \n\t", "user: hi\nassistant:   "} {
		r := NewAutoResponder(&stubGenerator{text: text}, time.Second, nlog.Discard(), nil)
		reply, err := r.GenerateReply(context.Background(), sampleHistory(), bob, alice)
		require.NoError(t, err)
		assert.Equal(t, FallbackReply, reply, "generated %q", text)
	}
}

func TestGenerateReplyKeepsTextAfterLastMarker(t *testing.T) {
	gen := &stubGenerator{text: "user: hi\nassistant: first\nuser: again\nassistant: second one "}
	r := NewAutoResponder(gen, time.Second, nlog.Discard(), nil)

	reply, err := r.GenerateReply(context.Background(), sampleHistory(), bob, alice)
	require.NoError(t, err)
	assert.Equal(t, "second one", reply)
}

func TestGenerateReplyGeneratorFailureIsUnavailable(t *testing.T) {
	r := NewAutoResponder(&stubGenerator{err: errors.New("model crashed")}, time.Second, nlog.Discard(), nil)

	reply, err := r.GenerateReply(context.Background(), sampleHistory(), bob, alice)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, reply)
}

func TestGenerateReplyTimeoutIsUnavailable(t *testing.T) {
	r := NewAutoResponder(&stubGenerator{text: "too late", delay: time.Second}, 20*time.Millisecond, nlog.Discard(), nil)

	start := time.Now()
	_, err := r.GenerateReply(context.Background(), sampleHistory(), bob, alice)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestTemplateGenerator(t *testing.T) {
	gen := TemplateGenerator{}
	ctx := context.Background()

	reply, err := gen.Generate(ctx, BuildPrompt(nil, bob, alice))
	require.NoError(t, err)
	assert.Empty(t, reply, "no partner message means nothing to answer")

	reply, err = gen.Generate(ctx, BuildPrompt(sampleHistory()[:1], bob, alice))
	require.NoError(t, err)
	assert.Contains(t, reply, "Hey alice")

	reply, err = gen.Generate(ctx, BuildPrompt(sampleHistory(), bob, alice))
	require.NoError(t, err)
	assert.Contains(t, reply, "Good question")
}

func TestNewGenerator(t *testing.T) {
	gen, err := NewGenerator(Config{})
	require.NoError(t, err)
	assert.IsType(t, TemplateGenerator{}, gen)

	gen, err = NewGenerator(Config{Kind: KindNone})
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), Prompt{})
	assert.Error(t, err)

	_, err = NewGenerator(Config{Kind: KindChatCompletions})
	assert.Error(t, err)

	_, err = NewGenerator(Config{Kind: "telepathy"})
	assert.Error(t, err)
}

func TestChatCompletionGenerator(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tiny-model", req.Model)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)

		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "on my way"}}},
		})
	}))
	defer srv.Close()

	gen, err := NewGenerator(Config{
		Kind:       KindChatCompletions,
		Endpoint:   srv.URL,
		Model:      "tiny-model",
		APIKey:     "secret",
		MaxRetries: 3,
		Backoff:    time.Millisecond,
	})
	require.NoError(t, err)

	reply, err := gen.Generate(context.Background(), BuildPrompt(sampleHistory(), bob, alice))
	require.NoError(t, err)
	assert.Equal(t, "on my way", reply)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatCompletionGeneratorDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	gen := NewChatCompletionGenerator(Config{Endpoint: srv.URL, Model: "m", MaxRetries: 3, Backoff: time.Millisecond}, srv.Client())
	_, err := gen.Generate(context.Background(), Prompt{})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
