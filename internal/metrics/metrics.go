/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package metrics exposes the counters of the delivery core in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes of an auto responder invocation
const (
	OutcomeReply       = "reply"
	OutcomeFallback    = "fallback"
	OutcomeUnavailable = "unavailable"
)

// Metrics holds every collector of the server. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	messages    *prometheus.CounterVec
	responder   *prometheus.CounterVec
	generation  prometheus.Histogram
	transitions *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go runtime collectors, on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messenger",
			Name:      "messages_persisted_total",
			Help:      "Messages persisted, split between human and bot authored.",
		}, []string{"kind"}),
		responder: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messenger",
			Name:      "responder_invocations_total",
			Help:      "Auto responder invocations by outcome.",
		}, []string{"outcome"}),
		generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "messenger",
			Name:      "responder_generation_seconds",
			Help:      "Time spent generating automated replies.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "messenger",
			Name:      "presence_transitions_total",
			Help:      "Presence updates by target state.",
		}, []string{"state"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messages,
		m.responder,
		m.generation,
		m.transitions,
	)
	return m
}

// MessagePersisted counts one stored message
func (m *Metrics) MessagePersisted(bot bool) {
	if m == nil {
		return
	}
	kind := "human"
	if bot {
		kind = "bot"
	}
	m.messages.WithLabelValues(kind).Inc()
}

// ResponderInvoked counts one auto responder run with its outcome and duration
func (m *Metrics) ResponderInvoked(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.responder.WithLabelValues(outcome).Inc()
	m.generation.Observe(took.Seconds())
}

// PresenceChanged counts one presence update
func (m *Metrics) PresenceChanged(online bool) {
	if m == nil {
		return
	}
	state := "offline"
	if online {
		state = "online"
	}
	m.transitions.WithLabelValues(state).Inc()
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
