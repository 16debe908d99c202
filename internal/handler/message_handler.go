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
	"messenger/internal/middleware"
	"messenger/internal/service"
	"net/http"

	"github.com/gorilla/mux"
)

type msgReqFields struct {
	Content string `json:"content"`
}

type MessageHandler struct {
	userService         service.UserService
	conversationService service.ConversationService
	deliveryService     service.DeliveryService
}

func NewMessageHandler(userService service.UserService, conversationService service.ConversationService, deliveryService service.DeliveryService) *MessageHandler {
	return &MessageHandler{
		userService:         userService,
		conversationService: conversationService,
		deliveryService:     deliveryService,
	}
}

// Conversation lists the messages exchanged with {otherUserId}, then marks the incoming ones as read
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFrom(r.Context())
	other, err := h.userService.GetByUUID(r.Context(), mux.Vars(r)["otherUserId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	messages, err := h.conversationService.History(r.Context(), caller.UUID, other.UUID, 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	names := map[string]string{caller.UUID: caller.Username, other.UUID: other.Username}
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, newMessageView(m, caller.UUID, names))
	}

	// Only what is being returned is marked, a message arriving meanwhile stays unread
	if len(messages) > 0 {
		lastID := messages[len(messages)-1].ID
		if _, err := h.conversationService.MarkRead(r.Context(), caller.UUID, other.UUID, lastID); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": views})
}

// Send delivers the JSON body {content} to {otherUserId}
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.UserFrom(r.Context())

	// A body that does not decode counts as missing content
	var request msgReqFields
	json.NewDecoder(r.Body).Decode(&request)

	result, err := h.deliveryService.Send(r.Context(), caller.UUID, mux.Vars(r)["otherUserId"], request.Content)
	if err != nil {
		var validation *service.ValidationError
		if errors.As(err, &validation) {
			writeError(w, http.StatusBadRequest, "Message content is required")
			return
		}
		writeServiceError(w, err)
		return
	}

	names := map[string]string{caller.UUID: caller.Username}
	if result.BotMessage != nil {
		other, err := h.userService.GetByUUID(r.Context(), result.BotMessage.SenderUUID)
		if err == nil {
			names[other.UUID] = other.Username
		}
	}

	response := map[string]any{
		"status":  "success",
		"message": newMessageView(result.Message, caller.UUID, names),
	}
	if result.BotMessage != nil {
		response["bot_response"] = newMessageView(result.BotMessage, caller.UUID, names)
	}
	writeJSON(w, http.StatusOK, response)
}
