//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Session error taxonomy and user facing messages.
//

package session

import "errors"

var (
	// ErrMissingCredentials means no session is stored.
	ErrMissingCredentials = errors.New("session: not logged in")

	// ErrExpiredLocally means the stored expiry has elapsed.
	ErrExpiredLocally = errors.New("session: expired")

	// ErrRejectedRemotely means the backend refused a token that looked valid locally.
	ErrRejectedRemotely = errors.New("session: rejected by backend")

	// ErrUnauthorized is wrapped by backend calls that received a 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport is wrapped by backend calls that never got a response.
	ErrTransport = errors.New("backend unreachable")

	// ErrInvalidHandoff means redirect parameters were present but unusable.
	ErrInvalidHandoff = errors.New("session: invalid handoff parameters")
)

// NeedsLogin reports whether err should send the user back to log in.
func NeedsLogin(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrExpiredLocally) ||
		errors.Is(err, ErrRejectedRemotely) ||
		errors.Is(err, ErrUnauthorized)
}

// Message turns a privileged action error into the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials):
		return "Please log in again"
	case NeedsLogin(err):
		return "Session expired, please log in again"
	case errors.Is(err, ErrTransport):
		return "Could not reach BeatPace. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
