//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Local callback server that receives the session handoff
// redirect from the backend.
//

package main

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cloudmanic/beatpace/session"
)

// loggingResponseWriter wraps http.ResponseWriter to capture the status code.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it.
func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs each request. Only the path is logged; the query
// may carry a token.
func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(lrw, r)

			logger.Debug("callback request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", lrw.statusCode),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}

// newCallbackHandler routes the backend's redirect into the receiver.
func newCallbackHandler(receiver *session.Receiver, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(logger))
	r.Get("/", handleCallback(receiver, logger))
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// handleCallback ingests a handoff and immediately redirects the browser to
// the same address without the token, so it is not left in the address bar
// or history. Requests without handoff parameters get a plain status page.
func handleCallback(receiver *session.Receiver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Referrer-Policy", "no-referrer")

		clean, _, err := receiver.Receive(r.Context(), r.URL)
		if err != nil {
			logger.Warn("session handoff rejected", zap.Error(err))
			q := clean.Query()
			q.Set("error", "invalid_handoff")
			clean.RawQuery = q.Encode()
		}

		if clean.RawQuery != r.URL.RawQuery {
			http.Redirect(w, r, clean.RequestURI(), http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if r.URL.Query().Get("error") != "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "BeatPace login failed. Please return to the terminal and try again.")
			return
		}
		fmt.Fprint(w, "BeatPace login received. You can close this window and return to the terminal.")
	}
}

// callbackAddr returns the host:port the callback server listens on for
// the configured frontend URL.
func callbackAddr(frontendURL string) (string, error) {
	u, err := url.Parse(frontendURL)
	if err != nil {
		return "", fmt.Errorf("invalid frontend url: %w", err)
	}
	if u.Scheme != "http" {
		return "", fmt.Errorf("frontend url must use http for the local callback server, got %q", u.Scheme)
	}

	port := u.Port()
	if port == "" {
		port = "80"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
