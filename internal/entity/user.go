/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package entity

import "time"

// A registered user of the chat. Users are referenced by UUID everywhere else.
type User struct {
	UUID      string    `gorm:"primaryKey" json:"uuid"`
	Username  string    `gorm:"not null;uniqueIndex" json:"username"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"` // Staff users can see and reset everybody's presence
	CreatedAt time.Time `gorm:"not null;index" json:"created-at"`

	Secret UserSecret `gorm:"foreignKey:UserUUID;references:UUID" json:"-"`
}
