/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package datatest builds throwaway storage for tests.
package datatest

import (
	"messenger/internal/data"
	"testing"

	"github.com/google/uuid"
)

// NewStorage returns a storage manager over a private in-memory database, closed when t ends.
// A single connection is used, so writes coming from different goroutines are serialized.
func NewStorage(t testing.TB) *data.StorageManager {
	t.Helper()

	db, err := data.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Could not open the test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Could not reach the test connection pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	storage, err := data.NewStorageManager(db)
	if err != nil {
		t.Fatalf("Could not migrate the test database: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}
