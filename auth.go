//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Login flow. Sends the user to Spotify and waits for the
// backend to hand a session token back to the local callback server.
//

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/zap"

	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/cloudmanic/beatpace/session"
)

// authorizeURL builds the Spotify authorization URL. Spotify redirects to
// the backend's callback, which exchanges the code and then redirects the
// browser to our callback server with the session token.
func authorizeURL(cfg *Config, state string) (string, error) {
	if cfg.SpotifyClientID == "" {
		return "", errors.New("SPOTIFY_CLIENT_ID is required to log in")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.SpotifyClientID),
		spotifyauth.WithRedirectURL(cfg.SpotifyRedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
		),
	)
	return auth.AuthURL(state, spotifyauth.ShowDialog), nil
}

// login runs the full handoff: start the callback server, print the
// authorization URL, wait for the token, then verify it.
func (a *app) login(ctx context.Context) (*session.User, error) {
	authURL, err := authorizeURL(a.cfg, uuid.NewString())
	if err != nil {
		return nil, err
	}

	addr, err := callbackAddr(a.cfg.FrontendURL)
	if err != nil {
		return nil, err
	}

	received := make(chan struct{}, 1)
	receiver := session.NewReceiver(a.guard,
		session.WithReceiverLogger(a.logger.Named("handoff")),
		session.OnHandoff(func(session.Record) {
			select {
			case received <- struct{}{}:
			default:
			}
		}),
	)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           newCallbackHandler(receiver, a.logger.Named("callback")),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("callback server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Println("Please visit this URL to log in with Spotify:")
	fmt.Println(authURL)

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.LoginTimeout)
	defer cancel()

	// Wait for the handoff before the first check so a just-delivered
	// token is never missed.
	select {
	case <-received:
		color.Green("✓ Successfully logged in")
	case <-waitCtx.Done():
		return nil, fmt.Errorf("login did not complete: %w", waitCtx.Err())
	}

	if state := a.guard.Check(ctx); state != session.StateLoggedIn {
		return nil, errors.New("the backend did not accept the new session, please log in again")
	}
	return a.guard.User(), nil
}
