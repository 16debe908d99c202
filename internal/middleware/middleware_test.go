/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loggedInRequest builds a request carrying the cookie a login would have set
func loggedInRequest(t *testing.T, store *sessions.CookieStore, values map[any]any) *http.Request {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := store.Get(req, SessionName)
	require.NoError(t, err)
	for k, v := range values {
		session.Values[k] = v
	}
	require.NoError(t, session.Save(req, rr))

	out := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		out.AddCookie(c)
	}
	return out
}

func TestAuthMiddlewareRejectsAnonymous(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret"))
	called := false
	h := AuthMiddleware(store, func(w http.ResponseWriter, r *http.Request) { called = true })

	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, called)
}

func TestAuthMiddlewarePassesUser(t *testing.T) {
	store := sessions.NewCookieStore([]byte("test-secret"))
	req := loggedInRequest(t, store, map[any]any{SessionUserUUID: "u1", SessionUsername: "gina"})

	var got SessionUser
	h := AuthMiddleware(store, func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserFrom(r.Context())
	})
	rr := httptest.NewRecorder()
	h(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, SessionUser{UUID: "u1", Username: "gina"}, got)
}

func TestStaffOnly(t *testing.T) {
	h := StaffOnly(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h(rr, req.WithContext(WithUser(req.Context(), SessionUser{UUID: "u1"})))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	h(rr, req.WithContext(WithUser(req.Context(), SessionUser{UUID: "u2", IsStaff: true})))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRateLimiterPerUser(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	h := limiter.Limit(func(w http.ResponseWriter, r *http.Request) {})

	send := func(user string) int {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		h(rr, req.WithContext(WithUser(req.Context(), SessionUser{UUID: user})))
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
	assert.Equal(t, http.StatusOK, send("b"), "buckets are per user")
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 2)
	limiter.now = func() time.Time { return clock }

	assert.True(t, limiter.Allow("idle"))
	assert.True(t, limiter.Allow("busy"))
	assert.Equal(t, 2, limiter.Size())

	clock = clock.Add(limiterIdleTTL / 2)
	assert.True(t, limiter.Allow("busy"))

	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	assert.True(t, limiter.Allow("busy"))
	assert.Equal(t, 1, limiter.Size(), "only the bucket seen within the ttl survives")

	clock = clock.Add(2 * limiterIdleTTL)
	assert.True(t, limiter.Allow("fresh"))
	assert.Equal(t, 1, limiter.Size())
}

func TestRateLimiterKeepsSlowBucketsUntilRefilled(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	assert.Greater(t, limiter.ttl, limiterIdleTTL, "a drained bucket is kept until it would be full again")
}
