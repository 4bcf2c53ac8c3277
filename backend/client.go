//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: HTTP client for the BeatPace backend API.
//

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/cloudmanic/beatpace/session"
)

const (
	mePath       = "/api/me"
	signOutPath  = "/api/signout"
	playlistPath = "/api/generate-playlist"

	defaultTimeout = 15 * time.Second
	maxErrorBody   = 4 << 10
)

// Client talks to the BeatPace backend. Every call carries the session
// token as a bearer header.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *zap.Logger
}

var _ session.Backend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base url %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Me fetches the profile of the user the token belongs to.
func (c *Client) Me(ctx context.Context, token string) (*session.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, mePath, token, nil, &raw); err != nil {
		return nil, err
	}

	// The profile comes either wrapped as {"user": {...}} or bare.
	var envelope struct {
		User *session.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("backend: failed to decode profile: %w", err)
	}

	user := envelope.User
	if user == nil {
		user = &session.User{}
		if err := json.Unmarshal(raw, user); err != nil {
			return nil, fmt.Errorf("backend: failed to decode profile: %w", err)
		}
	}

	if user.ID == "" {
		return nil, errors.New("backend: profile has no user id")
	}
	return user, nil
}

// SignOut asks the backend to revoke the session token.
func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, signOutPath, token, nil, nil)
}

// GeneratePlaylist asks the backend for a playlist matching the pace.
func (c *Client) GeneratePlaylist(ctx context.Context, token string, req PlaylistRequest) (*Playlist, error) {
	var playlist Playlist
	if err := c.do(ctx, http.MethodPost, playlistPath, token, req, &playlist); err != nil {
		return nil, err
	}
	if playlist.URL == "" {
		return nil, errors.New("backend: playlist response has no url")
	}
	return &playlist, nil
}

// do sends one request and decodes a JSON response into out. A 401 wraps
// session.ErrUnauthorized, a failed round trip wraps session.ErrTransport
// and any other non-2xx status is a *StatusError.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return fmt.Errorf("backend: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", session.ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s %s", session.ErrUnauthorized, method, path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: failed to decode %s response: %w", path, err)
	}
	return nil
}

// StatusError is a non-success response other than 401.
type StatusError struct {
	StatusCode int
	Message    string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, e.Message)
}

func newStatusError(resp *http.Response) *StatusError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
