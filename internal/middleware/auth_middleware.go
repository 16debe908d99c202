/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionName is the cookie holding the authenticated user
const SessionName = "auth-session"

// Keys of the session values written at login
const (
	SessionUserUUID = "user_uuid"
	SessionUsername = "username"
	SessionIsStaff  = "is_staff"
)

type contextKey struct{}

// Identity of the caller as stored in the session
type SessionUser struct {
	UUID     string
	Username string
	IsStaff  bool
}

// UserFrom returns the caller placed in the context by AuthMiddleware
func UserFrom(ctx context.Context) (SessionUser, bool) {
	u, ok := ctx.Value(contextKey{}).(SessionUser)
	return u, ok
}

// WithUser stores u the same way AuthMiddleware does
func WithUser(ctx context.Context, u SessionUser) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// AuthMiddleware rejects requests without a valid session with 401 and hands the caller to next through the request context
func AuthMiddleware(store sessions.Store, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := store.Get(r, SessionName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid session")
			return
		}

		userUUID, ok1 := session.Values[SessionUserUUID].(string)
		username, ok2 := session.Values[SessionUsername].(string)
		if !(ok1 && ok2) {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		isStaff, _ := session.Values[SessionIsStaff].(bool)

		ctx := WithUser(r.Context(), SessionUser{UUID: userUUID, Username: username, IsStaff: isStaff})
		next(w, r.WithContext(ctx))
	}
}

// StaffOnly lets through only callers flagged as staff, it must run after AuthMiddleware
func StaffOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !u.IsStaff {
			writeError(w, http.StatusForbidden, "Staff only")
			return
		}
		next(w, r)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": message})
}
