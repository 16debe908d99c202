/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package handler

import (
	"messenger/internal/service"
	"net/http"

	"github.com/gorilla/mux"
)

// AdminHandler serves the staff views over everybody's presence
type AdminHandler struct {
	presenceService service.PresenceService
	userService     service.UserService
}

func NewAdminHandler(presenceService service.PresenceService, userService service.UserService) *AdminHandler {
	return &AdminHandler{presenceService, userService}
}

func (a *AdminHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	statuses, err := a.presenceService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": statuses})
}

// ForceOffline marks {userId} offline. Its cookie stays valid until the next login or logout.
func (a *AdminHandler) ForceOffline(w http.ResponseWriter, r *http.Request) {
	user, err := a.userService.GetByUUID(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := a.presenceService.SetOffline(r.Context(), user.UUID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "id": user.UUID})
}
