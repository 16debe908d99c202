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
	"fmt"
	"messenger/internal/handler"
	"messenger/internal/metrics"
	"messenger/internal/middleware"
	"messenger/internal/nlog"
	"messenger/internal/service"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

type IptConfig struct {
	ServerPort   uint16
	ReadTimeout  int64 // Seconds
	WriteTimeout int64 // Seconds
	SecretKey    string
	RateRPS      float64 // Sends per second allowed to each user
	RateBurst    int
}

type InputManager struct { // Manages the HTTP input of the server
	running atomic.Bool
	paused  atomic.Bool

	logger  nlog.Logger
	server  *http.Server
	metrics *metrics.Metrics

	stopFromOutsideChan chan struct{}
	doneFromInsideChan  chan struct{}

	authService         service.AuthService
	userService         service.UserService
	presenceService     service.PresenceService
	conversationService service.ConversationService
	settingsService     service.SettingsService
	deliveryService     service.DeliveryService
}

func NewInputManager() *InputManager {
	return &InputManager{
		running:             atomic.Bool{},
		paused:              atomic.Bool{},
		stopFromOutsideChan: make(chan struct{}),
		doneFromInsideChan:  make(chan struct{}),
	}
}

func (i *InputManager) IsReady() bool {
	return i.logger != nil &&
		i.authService != nil &&
		i.userService != nil &&
		i.presenceService != nil &&
		i.conversationService != nil &&
		i.settingsService != nil &&
		i.deliveryService != nil
}

func (i *InputManager) IsRunning() bool {
	return i.running.Load()
}

func (i *InputManager) SetLogger(l nlog.Logger) {
	i.logger = l
}

func (i *InputManager) SetMetrics(m *metrics.Metrics) {
	i.metrics = m
}

func (i *InputManager) SetAuthService(as service.AuthService) {
	i.authService = as
}

func (i *InputManager) SetUserService(us service.UserService) {
	i.userService = us
}

func (i *InputManager) SetPresenceService(ps service.PresenceService) {
	i.presenceService = ps
}

func (i *InputManager) SetConversationService(cs service.ConversationService) {
	i.conversationService = cs
}

func (i *InputManager) SetSettingsService(ss service.SettingsService) {
	i.settingsService = ss
}

func (i *InputManager) SetDeliveryService(ds service.DeliveryService) {
	i.deliveryService = ds
}

func (i *InputManager) Logf(format string, a ...any) {
	i.logger.Logf(format, a...)
}

func (i *InputManager) SetPause(paused bool) {
	i.paused.Store(paused)
}

func (i *InputManager) IsPaused() bool {
	return i.paused.Load()
}

// PauseMiddleware answers 503 to everything while the manager is paused
func (i *InputManager) PauseMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if i.IsPaused() {
			http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// logRequests writes one line per request on the manager's logger
func (i *InputManager) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		i.Logf("%s %s served in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func newCookieStore(secretKey string) *sessions.CookieStore {
	cookieStore := sessions.NewCookieStore([]byte(secretKey))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(7 * 24 * time.Hour.Seconds()),
	}
	return cookieStore
}

// Router builds every route of the server on top of the configured services
func (i *InputManager) Router(cfg *IptConfig) http.Handler {
	cookieStore := newCookieStore(cfg.SecretKey)
	limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst)
	auth := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.AuthMiddleware(cookieStore, h)
	}

	// Handlers
	authHandler := handler.NewAuthHandler(i.authService, cookieStore)
	messageHandler := handler.NewMessageHandler(i.userService, i.conversationService, i.deliveryService)
	userHandler := handler.NewUserHandler(i.userService)
	settingsHandler := handler.NewSettingsHandler(i.settingsService)
	adminHandler := handler.NewAdminHandler(i.presenceService, i.userService)

	// Router
	r := mux.NewRouter()
	r.Use(i.PauseMiddleware, i.logRequests)

	// Authentication routes
	r.HandleFunc("/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", auth(authHandler.Logout)).Methods("POST")

	// Conversations
	r.HandleFunc("/conversation/{otherUserId}", auth(messageHandler.Conversation)).Methods("GET")
	r.HandleFunc("/conversation/{otherUserId}/send", auth(limiter.Limit(messageHandler.Send))).Methods("POST")

	// Users and settings
	r.HandleFunc("/users", auth(userHandler.ListUsers)).Methods("GET")
	r.HandleFunc("/settings/bot", auth(settingsHandler.ToggleBot)).Methods("POST")

	// Staff
	r.HandleFunc("/admin/sessions", auth(middleware.StaffOnly(adminHandler.Sessions))).Methods("GET")
	r.HandleFunc("/admin/sessions/{userId}/offline", auth(middleware.StaffOnly(adminHandler.ForceOffline))).Methods("POST")

	if i.metrics != nil {
		r.Handle("/metrics", i.metrics.Handler()).Methods("GET")
	}
	return r
}

func (i *InputManager) Run(ctx context.Context, cfg *IptConfig) error {
	i.Logf("Input service started...")

	if !i.IsReady() {
		return fmt.Errorf("The Input manager is not ready... Missing components")
	}

	i.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:        i.Router(cfg),
		ReadTimeout:    time.Duration(cfg.ReadTimeout * int64(time.Second)),
		WriteTimeout:   time.Duration(cfg.WriteTimeout * int64(time.Second)),
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		select {
		case <-ctx.Done():
			i.Logf("Received stop signal. Shutting down...")
		case <-i.stopFromOutsideChan:
			i.Logf("Server was asked to stop. Shutting down...")
		}
		// New requests are turned away while in-flight ones complete
		i.SetPause(true)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := i.server.Shutdown(shutdownCtx); err != nil {
			i.Logf("Error during shutdown... %v", err)
		}
		close(i.doneFromInsideChan)
	}()

	i.running.Store(true)
	i.Logf("Http server starting on port {%d}", cfg.ServerPort)

	if err := i.server.ListenAndServe(); err != http.ErrServerClosed {
		i.Logf("FATAL: HTTP Server error{%v}", err)
		i.running.Store(false)
		return err
	}

	<-i.doneFromInsideChan
	i.running.Store(false)
	return nil
}

func (i *InputManager) Stop() {
	close(i.stopFromOutsideChan)
	<-i.doneFromInsideChan
}
