/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package entity

import "time"

// Represents a direct message sent from one user to another.
// Messages are never deleted, the only field that changes after creation is IsRead.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`              // Monotonic identifier, also breaks ties between equal timestamps
	ChatID    string    `gorm:"not null;index:idx_chat_order" json:"chat-id"`    // Identifier of the chat, it's <user1-uuid>:<user2-uuid> with the two uuids sorted
	Content   string    `gorm:"not null" json:"content"`                         // Actual content of the message
	CreatedAt time.Time `gorm:"not null;index:idx_chat_order" json:"created-at"` // Time of creation, taken from the store's clock

	IsRead        bool `gorm:"not null;default:false" json:"is_read"`         // Set once the receiver opened the conversation
	IsBotResponse bool `gorm:"not null;default:false" json:"is_bot_response"` // The message was produced by the auto responder on behalf of the sender

	SenderUUID   string `gorm:"not null;index" json:"sender"`   // UUID of the user that sent the message
	ReceiverUUID string `gorm:"not null;index" json:"receiver"` // UUID of the user that received it
}

// ChatID returns the identifier shared by every message between a and b, regardless of direction.
func ChatID(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}
