//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Playlist request and response types.
//

package backend

import (
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
)

// PlaylistRequest is the body of a playlist generation call. Height is in
// centimetres and pace in seconds per PaceUnit.
type PlaylistRequest struct {
	PaceInSeconds int    `json:"paceInSeconds"`
	PaceUnit      string `json:"paceUnit,omitempty"`
	Gender        string `json:"gender"`
	Height        int    `json:"height"`
}

// Playlist is what the backend returns for a generated playlist.
type Playlist struct {
	URL       string    `json:"url"`
	Tracks    []string  `json:"tracks"`
	CreatedAt time.Time `json:"created_at"`
}

// ID returns the Spotify playlist ID behind the playlist URL.
func (p *Playlist) ID() spotify.ID {
	return spotify.ID(ExtractPlaylistID(p.URL))
}

// EmbedURL returns the Spotify embed player URL for the playlist.
func (p *Playlist) EmbedURL() string {
	return "https://open.spotify.com/embed/playlist/" + string(p.ID())
}

// ExtractPlaylistID extracts the playlist ID from a Spotify URL or URI, or
// returns the input as-is if it's already just an ID.
func ExtractPlaylistID(input string) string {
	// A URI like spotify:playlist:37i9dQZF1DXcBWIGoYBM5M
	if strings.HasPrefix(input, "spotify:playlist:") {
		return strings.TrimPrefix(input, "spotify:playlist:")
	}

	// A full URL like https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=xxx
	if strings.Contains(input, "/playlist/") {
		parts := strings.Split(input, "/playlist/")
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimSuffix(id, "/")
	}

	return input
}
