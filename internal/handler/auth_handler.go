/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package handler

import (
	"messenger/internal/middleware"
	"messenger/internal/service"
	"net/http"

	"github.com/gorilla/sessions"
)

type AuthHandler struct {
	authService service.AuthService
	cookieStore sessions.Store
}

func NewAuthHandler(authService service.AuthService, cookieStore sessions.Store) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookieStore: cookieStore,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Error occurred while parsing the form")
		return
	}

	user, err := h.authService.Register(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "success", "id": user.UUID})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	user, err := h.authService.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	session, _ := h.cookieStore.Get(r, middleware.SessionName)
	session.Values[middleware.SessionUserUUID] = user.UUID
	session.Values[middleware.SessionUsername] = user.Username
	session.Values[middleware.SessionIsStaff] = user.IsStaff
	if err := session.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "id": user.UUID, "username": user.Username})
}

// Logout must run behind the auth middleware
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFrom(r.Context())
	if err := h.authService.Logout(r.Context(), caller.UUID); err != nil {
		writeServiceError(w, err)
		return
	}

	session, _ := h.cookieStore.Get(r, middleware.SessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
