//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Playlist generation input handling and the privileged call.
//

package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cloudmanic/beatpace/backend"
	"github.com/cloudmanic/beatpace/session"
)

// paceInput is the raw form input for a playlist request.
type paceInput struct {
	Pace       string
	PaceUnit   string
	Gender     string
	Height     float64
	HeightUnit string
}

// parsePace converts "M:SS" or whole minutes into seconds.
func parsePace(pace string) (int, error) {
	pace = strings.TrimSpace(pace)
	if pace == "" {
		return 0, fmt.Errorf("pace is required")
	}

	minStr, secStr, hasSeconds := strings.Cut(pace, ":")
	minutes, err := strconv.Atoi(minStr)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("invalid pace minutes %q", minStr)
	}

	seconds := 0
	if hasSeconds {
		seconds, err = strconv.Atoi(secStr)
		if err != nil || seconds < 0 || seconds > 59 {
			return 0, fmt.Errorf("invalid pace seconds %q", secStr)
		}
	}

	total := minutes*60 + seconds
	if total <= 0 {
		return 0, fmt.Errorf("pace must be greater than zero")
	}
	return total, nil
}

// buildPlaylistRequest validates the input and converts it to what the
// backend expects: pace in seconds and height in whole centimetres.
func buildPlaylistRequest(in paceInput) (backend.PlaylistRequest, error) {
	paceSeconds, err := parsePace(in.Pace)
	if err != nil {
		return backend.PlaylistRequest{}, err
	}

	switch in.PaceUnit {
	case "km", "mile":
	default:
		return backend.PlaylistRequest{}, fmt.Errorf("pace unit must be km or mile, got %q", in.PaceUnit)
	}

	switch in.Gender {
	case "male", "female":
	default:
		return backend.PlaylistRequest{}, fmt.Errorf("gender must be male or female, got %q", in.Gender)
	}

	if in.Height <= 0 {
		return backend.PlaylistRequest{}, fmt.Errorf("height must be greater than zero")
	}

	heightCm := in.Height
	switch in.HeightUnit {
	case "cm":
	case "in":
		heightCm = in.Height * 2.54
	default:
		return backend.PlaylistRequest{}, fmt.Errorf("height unit must be cm or in, got %q", in.HeightUnit)
	}

	return backend.PlaylistRequest{
		PaceInSeconds: paceSeconds,
		PaceUnit:      in.PaceUnit,
		Gender:        in.Gender,
		Height:        int(math.Round(heightCm)),
	}, nil
}

// generatePlaylist runs the playlist call through the guard so it only
// happens with a live session and a rejected token logs the user out.
func generatePlaylist(ctx context.Context, guard *session.Guard, client BackendClient, req backend.PlaylistRequest) (*backend.Playlist, error) {
	var playlist *backend.Playlist
	err := guard.Do(ctx, func(ctx context.Context, token string) error {
		p, err := client.GeneratePlaylist(ctx, token, req)
		if err != nil {
			return err
		}
		playlist = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return playlist, nil
}
