/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersByLabel(t *testing.T) {
	m := New()

	m.MessagePersisted(false)
	m.MessagePersisted(false)
	m.MessagePersisted(true)
	m.ResponderInvoked(OutcomeFallback, 20*time.Millisecond)
	m.PresenceChanged(true)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.messages.WithLabelValues("human")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.messages.WithLabelValues("bot")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.responder.WithLabelValues(OutcomeFallback)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.transitions.WithLabelValues("online")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MessagePersisted(true)
		m.ResponderInvoked(OutcomeReply, time.Second)
		m.PresenceChanged(false)
	})
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New()
	m.MessagePersisted(false)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "messenger_messages_persisted_total"))
}
