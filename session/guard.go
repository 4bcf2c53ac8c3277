//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Session guard. Validates the stored session before every
// privileged backend call and tears it down when it is no longer good.
//

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the guard's view of who is logged in.
type State int

const (
	StateUnknown State = iota
	StateLoggedIn
	StateLoggedOut
)

// String returns a human readable state name.
func (s State) String() string {
	switch s {
	case StateLoggedIn:
		return "logged in"
	case StateLoggedOut:
		return "logged out"
	default:
		return "unknown"
	}
}

// Backend is the part of the BeatPace API the guard talks to.
type Backend interface {
	Me(ctx context.Context, token string) (*User, error)
	SignOut(ctx context.Context, token string) error
}

// Action is a privileged backend call made with the session token.
type Action func(ctx context.Context, token string) error

// Guard owns the session state machine. It is safe for concurrent use.
type Guard struct {
	store   Store
	backend Backend
	logger  *zap.Logger
	now     func() time.Time

	// checkMu serializes verifications; mu guards everything below and
	// every store write or clear made by the guard.
	checkMu sync.Mutex
	mu      sync.Mutex
	state   State
	user    *User
	gen     uint64
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger used by the guard.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGuard returns a guard in StateUnknown.
func NewGuard(store Store, backend Backend, opts ...Option) *Guard {
	g := &Guard{
		store:   store,
		backend: backend,
		logger:  zap.NewNop(),
		now:     time.Now,
		state:   StateUnknown,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current state without touching the store.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// User returns the cached profile of the logged in user, or nil.
func (g *Guard) User() *User {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.user == nil {
		return nil
	}
	return copyRecord(Record{User: g.user}).User
}

// Check reads the stored session, drops it if it has expired, and
// otherwise verifies it against the backend. Any verification failure logs
// the user out; errors never leave this method.
func (g *Guard) Check(ctx context.Context) State {
	g.checkMu.Lock()
	defer g.checkMu.Unlock()

	g.mu.Lock()
	rec, err := g.store.Read(ctx)
	switch {
	case err != nil:
		g.logger.Warn("session store unreadable, logging out", zap.Error(err))
		g.clearLocked(ctx)
		g.mu.Unlock()
		return StateLoggedOut
	case rec == nil:
		g.state = StateLoggedOut
		g.user = nil
		g.mu.Unlock()
		return StateLoggedOut
	case rec.Expired(g.now()):
		g.logger.Info("session expired locally", zap.Time("expires_at", rec.ExpiresAt))
		g.clearLocked(ctx)
		g.mu.Unlock()
		return StateLoggedOut
	}

	// Optimistically logged in with the cached profile until the backend answers.
	g.state = StateLoggedIn
	g.user = rec.User
	gen := g.gen
	g.mu.Unlock()

	user, err := g.backend.Me(ctx, rec.Token)

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.gen != gen {
		g.logger.Debug("discarding stale verification result")
		return g.state
	}

	if err != nil {
		if ctx.Err() != nil {
			// The caller gave up; that is not a verdict on the token.
			g.state = StateLoggedOut
			g.user = nil
			return StateLoggedOut
		}
		g.logger.Warn("session verification failed, logging out", zap.Error(err))
		g.clearLocked(ctx)
		return StateLoggedOut
	}

	cur, err := g.store.Read(ctx)
	switch {
	case err != nil:
		g.logger.Warn("session store unreadable, logging out", zap.Error(err))
		g.clearLocked(ctx)
		return StateLoggedOut
	case cur == nil:
		g.state = StateLoggedOut
		g.user = nil
		return StateLoggedOut
	case cur.Token != rec.Token:
		// Replaced by another process; that session still needs checking.
		g.state = StateUnknown
		g.user = cur.User
		return StateUnknown
	}

	cur.User = user
	if err := g.store.Write(ctx, *cur); err != nil {
		g.logger.Warn("failed to cache user profile", zap.Error(err))
	}
	g.state = StateLoggedIn
	g.user = user
	g.logger.Debug("session verified", zap.String("user_id", user.ID))
	return StateLoggedIn
}

// Do runs a privileged action with the stored token. It never calls the
// action when logged out or when the session has expired locally. An
// unauthorized response clears the session.
func (g *Guard) Do(ctx context.Context, action Action) error {
	if g.State() == StateUnknown {
		g.Check(ctx)
	}

	g.mu.Lock()
	if g.state != StateLoggedIn {
		g.mu.Unlock()
		return ErrMissingCredentials
	}

	rec, err := g.store.Read(ctx)
	switch {
	case err != nil:
		g.clearLocked(ctx)
		g.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrMissingCredentials, err)
	case rec == nil:
		g.state = StateLoggedOut
		g.user = nil
		g.mu.Unlock()
		return ErrMissingCredentials
	case rec.Expired(g.now()):
		g.clearLocked(ctx)
		g.mu.Unlock()
		return ErrExpiredLocally
	}
	gen := g.gen
	g.mu.Unlock()

	err = action(ctx, rec.Token)
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrUnauthorized) {
		g.mu.Lock()
		if g.gen == gen {
			g.logger.Info("backend rejected session, logging out")
			g.clearLocked(ctx)
		}
		g.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrRejectedRemotely, err)
	}

	// Transport and server errors leave the session alone; the token may
	// still be good.
	return err
}

// Write stores a freshly handed off record. Verifications still in flight
// for the previous session are discarded.
func (g *Guard) Write(ctx context.Context, rec Record) error {
	if !rec.Valid() {
		return errors.New("session: record needs a token and an expiry")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.Write(ctx, rec); err != nil {
		return err
	}
	g.gen++
	g.state = StateUnknown
	g.user = rec.User
	return nil
}

// Invalidate clears the session, e.g. after an unauthorized response seen
// outside Do.
func (g *Guard) Invalidate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clearLocked(ctx)
}

// SignOut tells the backend to revoke the session and then clears it
// locally whatever the backend said. Only a local failure is returned.
func (g *Guard) SignOut(ctx context.Context) error {
	g.mu.Lock()
	rec, err := g.store.Read(ctx)
	g.mu.Unlock()
	if err != nil {
		g.logger.Warn("session store unreadable during sign-out", zap.Error(err))
	}

	if rec != nil && rec.Token != "" {
		if err := g.backend.SignOut(ctx, rec.Token); err != nil {
			g.logger.Warn("remote sign-out failed, clearing local session anyway", zap.Error(err))
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clearLocked(ctx)
}

// clearLocked drops the stored session. The in-memory state ends logged
// out even if the store could not be cleared. Callers hold g.mu.
func (g *Guard) clearLocked(ctx context.Context) error {
	g.gen++
	g.state = StateLoggedOut
	g.user = nil

	if err := g.store.Clear(ctx); err != nil {
		g.logger.Error("failed to clear session store", zap.Error(err))
		return err
	}
	return nil
}
