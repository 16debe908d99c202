/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package handler

import (
	"encoding/json"
	"messenger/internal/middleware"
	"messenger/internal/service"
	"net/http"
)

type botReqFields struct {
	Enabled *bool `json:"enabled"`
}

type SettingsHandler struct {
	settingsService service.SettingsService
}

func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService}
}

// ToggleBot switches the caller's own auto responder
func (s *SettingsHandler) ToggleBot(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFrom(r.Context())

	var request botReqFields
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Enabled == nil {
		writeError(w, http.StatusBadRequest, "Field enabled is required")
		return
	}

	if err := s.settingsService.SetBotEnabled(r.Context(), caller.UUID, *request.Enabled); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "enabled": *request.Enabled})
}
