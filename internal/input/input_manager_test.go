/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package input

import (
	"context"
	"encoding/json"
	"messenger/internal/data/datatest"
	"messenger/internal/metrics"
	"messenger/internal/nlog"
	"messenger/internal/responder"
	"messenger/internal/service"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPauseMiddlewareOn(t *testing.T) {
	i := NewInputManager()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Called despite being paused!")
	})

	toTest := i.PauseMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	i.SetPause(true)

	toTest.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rr.Code)
	}
}

func TestPauseMiddlewareOff(t *testing.T) {
	i := NewInputManager()

	called := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	toTest := i.PauseMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	toTest.ServeHTTP(rr, req)

	if rr.Code == http.StatusServiceUnavailable {
		t.Errorf("Got 503, expected 200")
	}
	if !called {
		t.Errorf("Pause middleware blocked the request despite not being paused")
	}
}

func TestRunRequiresServices(t *testing.T) {
	i := NewInputManager()
	i.SetLogger(nlog.Discard())
	assert.False(t, i.IsReady())
	assert.Error(t, i.Run(context.Background(), &IptConfig{}))
}

func TestRunAndStop(t *testing.T) {
	i := readyManager(t)
	done := make(chan error, 1)
	go func() {
		done <- i.Run(context.Background(), &IptConfig{ServerPort: 0, SecretKey: "test-secret"})
	}()

	require.Eventually(t, i.IsRunning, time.Second, 5*time.Millisecond)
	i.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.False(t, i.IsRunning())
	assert.True(t, i.IsPaused(), "requests are refused once shutdown began")
}

// testServer wires the whole stack over a throwaway database, staff names register as staff
func testServer(t *testing.T, staff ...string) (*httptest.Server, service.PresenceService) {
	t.Helper()
	i := readyManager(t, staff...)
	srv := httptest.NewServer(i.Router(&IptConfig{SecretKey: "test-secret", RateRPS: 100, RateBurst: 100}))
	t.Cleanup(srv.Close)
	return srv, i.presenceService
}

// readyManager builds a manager with every service set
func readyManager(t *testing.T, staff ...string) *InputManager {
	t.Helper()
	storage := datatest.NewStorage(t)
	logger := nlog.Discard()
	m := metrics.New()

	presence := service.NewPresenceService(storage.GetPresenceRepository(), logger, m)
	conversations := service.NewConversationService(storage.GetMessageRepository(), logger)
	users := service.NewUserService(storage.GetUserRepository(), storage.GetPresenceRepository(), conversations, logger)
	auto := responder.NewAutoResponder(responder.TemplateGenerator{}, time.Second, logger, m)
	policy := service.NewResponderPolicy(storage.GetPresenceRepository())

	i := NewInputManager()
	i.SetLogger(logger)
	i.SetMetrics(m)
	i.SetAuthService(service.NewAuthService(storage.GetUserRepository(), presence, logger, staff...))
	i.SetUserService(users)
	i.SetPresenceService(presence)
	i.SetConversationService(conversations)
	i.SetSettingsService(service.NewSettingsService(storage.GetPresenceRepository(), logger))
	i.SetDeliveryService(service.NewDeliveryService(storage.GetUserRepository(), conversations, policy, auto, responder.DefaultWindow, logger, m))
	require.True(t, i.IsReady())
	return i
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path, contentType, body string) (int, map[string]any) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, strings.NewReader(body))
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var payload map[string]any
	json.NewDecoder(resp.Body).Decode(&payload)
	return resp.StatusCode, payload
}

func (c *client) form(path string, values url.Values) (int, map[string]any) {
	return c.do(http.MethodPost, path, "application/x-www-form-urlencoded", values.Encode())
}

func (c *client) json(method, path, body string) (int, map[string]any) {
	return c.do(method, path, "application/json", body)
}

// signup registers and logs in name, returning its id
func (c *client) signup(name string) string {
	c.t.Helper()
	code, body := c.form("/register", url.Values{"username": {name}, "password": {"secret-pw"}})
	require.Equal(c.t, http.StatusCreated, code, "%v", body)
	code, body = c.form("/login", url.Values{"username": {name}, "password": {"secret-pw"}})
	require.Equal(c.t, http.StatusOK, code, "%v", body)
	return body["id"].(string)
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)

	code, _ := c.json(http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = c.json(http.MethodPost, "/conversation/someone/send", `{"content":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSendWithAutoReply(t *testing.T) {
	srv, _ := testServer(t)
	x := newClient(t, srv)
	y := newClient(t, srv)

	y.signup("yara")
	code, body := y.json(http.MethodPost, "/settings/bot", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"status": "success", "enabled": true}, body)
	code, _ = y.json(http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, code)

	x.signup("xavi")
	code, body = x.json(http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, code)
	users := body["users"].([]any)
	require.Len(t, users, 1)
	yID := users[0].(map[string]any)["id"].(string)
	assert.Equal(t, false, users[0].(map[string]any)["is_online"])

	code, body = x.json(http.MethodPost, "/conversation/"+yID+"/send", `{"content":"hi"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	message := body["message"].(map[string]any)
	assert.Equal(t, "hi", message["content"])
	assert.Equal(t, "xavi", message["sender"])
	assert.Equal(t, true, message["is_self"])

	bot, ok := body["bot_response"].(map[string]any)
	require.True(t, ok, "expected a bot_response in %v", body)
	assert.Equal(t, "yara", bot["sender"])
	assert.Equal(t, true, bot["is_bot_response"])
	assert.Equal(t, false, bot["is_self"])
	assert.Len(t, bot["timestamp"], 5)
}

func TestSendWithoutAutoReply(t *testing.T) {
	srv, presence := testServer(t)
	x := newClient(t, srv)
	y := newClient(t, srv)

	yID := y.signup("yusuf")
	x.signup("xena")

	// Responder disabled
	code, body := x.json(http.MethodPost, "/conversation/"+yID+"/send", `{"content":"hi"}`)
	require.Equal(t, http.StatusOK, code)
	_, present := body["bot_response"]
	assert.False(t, present)

	// Responder enabled but the recipient is online
	code, _ = y.json(http.MethodPost, "/settings/bot", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, presence.SetOnline(context.Background(), yID))
	code, body = x.json(http.MethodPost, "/conversation/"+yID+"/send", `{"content":"still there?"}`)
	require.Equal(t, http.StatusOK, code)
	_, present = body["bot_response"]
	assert.False(t, present)
}

func TestSendValidation(t *testing.T) {
	srv, _ := testServer(t)
	x := newClient(t, srv)
	y := newClient(t, srv)
	yID := y.signup("yan")
	x.signup("xiu")

	for _, payload := range []string{`{"content":""}`, `{"content":"   "}`, `{}`, ``} {
		code, body := x.json(http.MethodPost, "/conversation/"+yID+"/send", payload)
		assert.Equal(t, http.StatusBadRequest, code, payload)
		assert.Equal(t, map[string]any{"status": "error", "message": "Message content is required"}, body)
	}

	code, body := x.json(http.MethodGet, "/conversation/"+yID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["messages"], "nothing must have been stored")

	code, _ = x.json(http.MethodPost, "/conversation/ghost/send", `{"content":"hello?"}`)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = x.json(http.MethodGet, "/conversation/ghost", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestConversationMarksRead(t *testing.T) {
	srv, _ := testServer(t)
	a := newClient(t, srv)
	b := newClient(t, srv)
	aID := a.signup("ada")
	bID := b.signup("ben")

	for _, content := range []string{"one", "two"} {
		code, _ := b.json(http.MethodPost, "/conversation/"+aID+"/send", `{"content":"`+content+`"}`)
		require.Equal(t, http.StatusOK, code)
	}

	unread := func() float64 {
		_, body := a.json(http.MethodGet, "/users", "")
		return body["users"].([]any)[0].(map[string]any)["unread_count"].(float64)
	}
	assert.Equal(t, 2.0, unread())

	code, body := a.json(http.MethodGet, "/conversation/"+bID, "")
	require.Equal(t, http.StatusOK, code)
	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].(map[string]any)["content"])
	assert.Equal(t, "ben", messages[0].(map[string]any)["sender"])
	assert.Equal(t, false, messages[0].(map[string]any)["is_self"])

	assert.Zero(t, unread())
}

func TestAdminRoutesNeedStaff(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)
	id := c.signup("plain")

	code, _ := c.json(http.MethodGet, "/admin/sessions", "")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = c.json(http.MethodPost, "/admin/sessions/"+id+"/offline", "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestStaffForcesUserOffline(t *testing.T) {
	srv, presence := testServer(t, "warden")
	target := newClient(t, srv)
	targetID := target.signup("tenant")
	staff := newClient(t, srv)
	staff.signup("warden")

	record, err := presence.Get(context.Background(), targetID)
	require.NoError(t, err)
	require.True(t, record.IsOnline)

	code, body := staff.json(http.MethodGet, "/admin/sessions", "")
	require.Equal(t, http.StatusOK, code, "%v", body)
	assert.Len(t, body["sessions"], 2)

	code, body = staff.json(http.MethodPost, "/admin/sessions/"+targetID+"/offline", "")
	require.Equal(t, http.StatusOK, code, "%v", body)
	assert.Equal(t, targetID, body["id"])

	record, err = presence.Get(context.Background(), targetID)
	require.NoError(t, err)
	assert.False(t, record.IsOnline)

	code, _ = staff.json(http.MethodPost, "/admin/sessions/nobody/offline", "")
	assert.Equal(t, http.StatusNotFound, code)

	// Staff rights come from the login, not from the route
	code, _ = target.json(http.MethodGet, "/admin/sessions", "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
