//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: In-memory session store.
//

package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the record in process memory. It does not survive a
// restart and is meant for tests and one-off runs.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Read returns a copy of the stored record, or nil if none is stored.
func (m *MemoryStore) Read(ctx context.Context) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rec == nil {
		return nil, nil
	}
	return copyRecord(*m.rec), nil
}

// Write replaces the stored record.
func (m *MemoryStore) Write(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rec = copyRecord(rec)
	return nil
}

// Clear drops the stored record.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rec = nil
	return nil
}

func copyRecord(rec Record) *Record {
	out := rec
	if rec.User != nil {
		u := *rec.User
		if rec.User.Email != nil {
			email := *rec.User.Email
			u.Email = &email
		}
		out.User = &u
	}
	return &out
}
