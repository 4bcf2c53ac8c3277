//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Wiring of logger, session store, backend client and guard.
//

package main

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cloudmanic/beatpace/backend"
	"github.com/cloudmanic/beatpace/logger"
	"github.com/cloudmanic/beatpace/session"
)

// newApp builds the dependencies for one CLI invocation.
func newApp(cfg *Config) (*app, error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	a.store = store

	client, err := backend.New(cfg.BackendURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		backend.WithLogger(log.Named("backend")),
	)
	if err != nil {
		return nil, err
	}
	a.backend = client

	a.guard = session.NewGuard(store, client, session.WithLogger(log.Named("session")))
	return a, nil
}

// openStore picks the session store configured for this origin.
func (a *app) openStore() (session.Store, error) {
	switch a.cfg.Store {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		a.closers = append(a.closers, client)
		return session.NewRedisStore(client, a.cfg.FrontendURL)
	case "file", "":
		return session.NewFileStore(a.cfg.SessionDir, a.cfg.FrontendURL)
	default:
		return nil, fmt.Errorf("unknown session store %q", a.cfg.Store)
	}
}

// close releases connections and flushes the logger.
func (a *app) close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
