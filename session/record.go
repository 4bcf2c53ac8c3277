//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Session record and cached user profile types.
//

// Package session holds the client side of a BeatPace login: the persisted
// session record, the guard that validates it before privileged calls, and
// the receiver that ingests a token handed back by the backend redirect.
package session

import (
	"context"
	"time"

	"github.com/zmb3/spotify/v2"
)

// User is the cached profile returned by the backend identity endpoint.
// It is advisory only and never used for access decisions.
type User struct {
	ID            string     `json:"id"`
	SpotifyUserID spotify.ID `json:"spotify_user_id"`
	Email         *string    `json:"email,omitempty"`
}

// Record is the single persisted session entity. Token, ExpiresAt and User
// are always written and cleared together.
type Record struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Valid reports whether the record carries a token and an expiry.
func (r *Record) Valid() bool {
	return r != nil && r.Token != "" && !r.ExpiresAt.IsZero()
}

// Expired reports whether the record's expiry is at or before now.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Store persists the session record. Implementations must write and clear
// all fields as a unit.
type Store interface {
	Read(ctx context.Context) (*Record, error)
	Write(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

// Writer is anything a fresh record can be written through.
type Writer interface {
	Write(ctx context.Context, rec Record) error
}
