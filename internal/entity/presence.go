/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package entity

import "time"

// Online/offline state of a user. There is at most one record per user.
// A missing record means the user was never seen online.
type PresenceRecord struct {
	UserUUID   string    `gorm:"primaryKey" json:"user"`
	IsOnline   bool      `gorm:"not null;default:false" json:"is_online"`
	LastOnline time.Time `json:"last_online"` // Refreshed on every transition, both ways
}

// Per user switch for the offline auto responder.
type ResponderSettings struct {
	UserUUID   string `gorm:"primaryKey" json:"user"`
	BotEnabled bool   `gorm:"not null;default:false" json:"bot_enabled"`
}

// Read model joining a user with its presence and responder settings.
// Missing presence or settings rows read as their defaults.
type UserStatus struct {
	UserUUID   string     `json:"id"`
	Username   string     `json:"username"`
	IsOnline   bool       `json:"is_online"`
	LastOnline *time.Time `json:"last_online"` // nil when the user has no presence record yet
	BotEnabled bool       `json:"bot_enabled"`
}

func (PresenceRecord) TableName() string { return "presence_records" }

func (ResponderSettings) TableName() string { return "responder_settings" }
