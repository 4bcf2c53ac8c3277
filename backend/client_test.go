//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Unit tests for the backend client.
//

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"

	"github.com/cloudmanic/beatpace/session"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(server.URL + "/")
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	for _, in := range []string{"", "localhost", "://nope"} {
		_, err := New(in)
		assert.Error(t, err, "base url %q", in)
	}
}

func TestMe(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "envelope", body: `{"user":{"id":"u1","spotify_user_id":"s1","email":"runner@example.com"}}`},
		{name: "bare", body: `{"id":"u1","spotify_user_id":"s1","email":"runner@example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/me", r.URL.Path)
				assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			})

			user, err := c.Me(context.Background(), "abc123")
			require.NoError(t, err)
			assert.Equal(t, "u1", user.ID)
			assert.Equal(t, spotify.ID("s1"), user.SpotifyUserID)
			require.NotNil(t, user.Email)
			assert.Equal(t, "runner@example.com", *user.Email)
		})
	}
}

func TestMe_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
	})

	_, err := c.Me(context.Background(), "abc123")
	assert.ErrorIs(t, err, session.ErrUnauthorized)
	assert.False(t, errors.Is(err, session.ErrTransport))
}

func TestMe_MissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"spotify_user_id":"s1"}}`))
	})

	_, err := c.Me(context.Background(), "abc123")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, session.ErrUnauthorized))
}

func TestMe_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})

	_, err := c.Me(context.Background(), "abc123")
	assert.Error(t, err)
}

func TestMe_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	_, err = c.Me(context.Background(), "abc123")
	assert.ErrorIs(t, err, session.ErrTransport)
	assert.False(t, errors.Is(err, session.ErrUnauthorized))
}

func TestMe_Timeout(t *testing.T) {
	done := make(chan struct{})
	t.Cleanup(func() { close(done) })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)

	c, err := New(server.URL, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	require.NoError(t, err)

	_, err = c.Me(context.Background(), "abc123")
	assert.ErrorIs(t, err, session.ErrTransport)
}

func TestSignOut(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/signout", r.URL.Path)
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"message":"Signed out successfully"}`))
	})

	require.NoError(t, c.SignOut(context.Background(), "abc123"))
	assert.True(t, called)
}

func TestGeneratePlaylist(t *testing.T) {
	created := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate-playlist", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(330), body["paceInSeconds"])
		assert.Equal(t, "km", body["paceUnit"])
		assert.Equal(t, "female", body["gender"])
		assert.Equal(t, float64(170), body["height"])

		json.NewEncoder(w).Encode(map[string]any{
			"url":        "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc",
			"tracks":     []string{"spotify:track:1", "spotify:track:2"},
			"created_at": created,
		})
	})

	playlist, err := c.GeneratePlaylist(context.Background(), "abc123", PlaylistRequest{
		PaceInSeconds: 330,
		PaceUnit:      "km",
		Gender:        "female",
		Height:        170,
	})
	require.NoError(t, err)
	assert.Len(t, playlist.Tracks, 2)
	assert.True(t, created.Equal(playlist.CreatedAt))
	assert.Equal(t, spotify.ID("37i9dQZF1DXcBWIGoYBM5M"), playlist.ID())
	assert.Equal(t, "https://open.spotify.com/embed/playlist/37i9dQZF1DXcBWIGoYBM5M", playlist.EmbedURL())
}

func TestGeneratePlaylist_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to generate playlist"}`))
	})

	_, err := c.GeneratePlaylist(context.Background(), "abc123", PlaylistRequest{PaceInSeconds: 300})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "Failed to generate playlist", statusErr.Message)
	assert.False(t, errors.Is(err, session.ErrUnauthorized))
	assert.Equal(t, "Something went wrong. Please try again.", session.Message(err))
}

func TestGeneratePlaylist_PlainTextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.GeneratePlaylist(context.Background(), "abc123", PlaylistRequest{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "bad gateway", statusErr.Message)
	assert.Equal(t, "backend: status 502: bad gateway", statusErr.Error())
}

func TestGeneratePlaylist_MissingURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tracks":[]}`))
	})

	_, err := c.GeneratePlaylist(context.Background(), "abc123", PlaylistRequest{})
	assert.Error(t, err)
}

func TestGeneratePlaylist_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GeneratePlaylist(context.Background(), "expired", PlaylistRequest{})
	assert.ErrorIs(t, err, session.ErrUnauthorized)
}

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{input: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{input: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=xyz", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{input: "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M/", want: "37i9dQZF1DXcBWIGoYBM5M"},
		{input: "37i9dQZF1DXcBWIGoYBM5M", want: "37i9dQZF1DXcBWIGoYBM5M"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractPlaylistID(tt.input), tt.input)
	}
}
