//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Handoff receiver. Ingests the token the backend hands back
// through redirect query parameters.
//

package session

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Redirect query parameters set by the backend callback.
const (
	ParamToken   = "token"
	ParamExpires = "expires"
)

// goTimeLayout is time.Time.String() without the monotonic clock suffix.
const goTimeLayout = "2006-01-02 15:04:05.999999999 -0700 MST"

// Receiver turns a redirect URL carrying token and expires parameters into
// a stored session. It is safe for concurrent use.
type Receiver struct {
	sessions  Writer
	onHandoff func(Record)
	logger    *zap.Logger

	mu       sync.Mutex
	consumed string
}

// ReceiverOption configures a Receiver.
type ReceiverOption func(*Receiver)

// OnHandoff registers fn to be called once per ingested token.
func OnHandoff(fn func(Record)) ReceiverOption {
	return func(r *Receiver) {
		r.onHandoff = fn
	}
}

// WithReceiverLogger sets the receiver's logger.
func WithReceiverLogger(logger *zap.Logger) ReceiverOption {
	return func(r *Receiver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReceiver returns a receiver writing through sessions. Pass the Guard
// so in-flight checks of an older session are discarded.
func NewReceiver(sessions Writer, opts ...ReceiverOption) *Receiver {
	r := &Receiver{
		sessions: sessions,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Receive ingests the handoff parameters in u, if any. It returns the URL
// to show the user with the sensitive parameters removed, and whether a new
// session was stored. A URL without the parameters is returned untouched.
func (r *Receiver) Receive(ctx context.Context, u *url.URL) (*url.URL, bool, error) {
	q := u.Query()
	if !q.Has(ParamToken) && !q.Has(ParamExpires) {
		return u, false, nil
	}

	token := q.Get(ParamToken)
	expires := q.Get(ParamExpires)
	clean := ScrubURL(u)

	if token == "" || expires == "" {
		return clean, false, fmt.Errorf("%w: token and expires are both required", ErrInvalidHandoff)
	}

	expiresAt, err := ParseExpiry(expires)
	if err != nil {
		return clean, false, fmt.Errorf("%w: %v", ErrInvalidHandoff, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if token == r.consumed {
		return clean, false, nil
	}

	if !expiresAt.After(time.Now()) {
		r.logger.Warn("handoff token already expired", zap.Time("expires_at", expiresAt))
	}

	rec := Record{Token: token, ExpiresAt: expiresAt}
	if err := r.sessions.Write(ctx, rec); err != nil {
		return clean, false, fmt.Errorf("session: failed to store handoff: %w", err)
	}
	r.consumed = token

	r.logger.Info("session handoff received", zap.Time("expires_at", expiresAt))
	if r.onHandoff != nil {
		r.onHandoff(rec)
	}
	return clean, true, nil
}

// ScrubURL returns a copy of u without the handoff parameters.
func ScrubURL(u *url.URL) *url.URL {
	clean := *u
	q := u.Query()
	q.Del(ParamToken)
	q.Del(ParamExpires)
	clean.RawQuery = q.Encode()
	return &clean
}

// ParseExpiry accepts RFC 3339, the output of time.Time.String() (what the
// backend emits, monotonic suffix included) and Unix seconds.
func ParseExpiry(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(goTimeLayout, s); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized expiry %q", s)
}
