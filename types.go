//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Type definitions and interfaces for the BeatPace CLI.
//

package main

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/cloudmanic/beatpace/backend"
	"github.com/cloudmanic/beatpace/session"
)

// BackendClient defines the BeatPace API operations the CLI uses.
// This allows for mocking in tests.
type BackendClient interface {
	session.Backend
	GeneratePlaylist(ctx context.Context, token string, req backend.PlaylistRequest) (*backend.Playlist, error)
}

// app is the wired set of dependencies shared by every command.
type app struct {
	cfg     *Config
	logger  *zap.Logger
	backend BackendClient
	store   session.Store
	guard   *session.Guard
	closers []io.Closer
}
