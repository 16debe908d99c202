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
	"errors"
	"messenger/internal/entity"
	"messenger/internal/service"
	"net/http"
)

// Layout of the message timestamps shown to clients
const timeLayout = "15:04"

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"status": "error", "message": message})
}

// writeServiceError maps the service error taxonomy onto status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var validation *service.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
	default:
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// Message as shown inside a conversation
type messageView struct {
	ID            uint64 `json:"id"`
	Sender        string `json:"sender"`
	Content       string `json:"content"`
	Timestamp     string `json:"timestamp"`
	IsBotResponse bool   `json:"is_bot_response"`
	IsSelf        bool   `json:"is_self"`
}

// newMessageView renders m for viewer. names maps the two participants' uuids to their usernames.
func newMessageView(m *entity.Message, viewerUUID string, names map[string]string) messageView {
	return messageView{
		ID:            m.ID,
		Sender:        names[m.SenderUUID],
		Content:       m.Content,
		Timestamp:     m.CreatedAt.Local().Format(timeLayout),
		IsBotResponse: m.IsBotResponse,
		IsSelf:        m.SenderUUID == viewerUUID,
	}
}
