//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Configuration loading from .env, environment, config file and flags.
//

package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultBackendURL  = "http://localhost:3001"
	defaultFrontendURL = "http://127.0.0.1:3000"
	defaultRedirectURI = "http://localhost:3001/api/callback"
	defaultSessionDir  = "~/.beatpace/sessions"
)

// Config holds everything the CLI needs to reach the backend and keep the session.
type Config struct {
	BackendURL         string        `mapstructure:"backend_url"`
	FrontendURL        string        `mapstructure:"frontend_url"`
	SpotifyClientID    string        `mapstructure:"spotify_client_id"`
	SpotifyRedirectURI string        `mapstructure:"spotify_redirect_uri"`
	Store              string        `mapstructure:"store"`
	SessionDir         string        `mapstructure:"session_dir"`
	RedisAddr          string        `mapstructure:"redis_addr"`
	RedisPassword      string        `mapstructure:"redis_password"`
	RedisDB            int           `mapstructure:"redis_db"`
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`
	LoginTimeout       time.Duration `mapstructure:"login_timeout"`
	LogLevel           string        `mapstructure:"log_level"`
	LogFormat          string        `mapstructure:"log_format"`
}

// setConfigDefaults registers every key so AutomaticEnv can see it on Unmarshal.
func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("backend_url", defaultBackendURL)
	v.SetDefault("frontend_url", defaultFrontendURL)
	v.SetDefault("spotify_client_id", "")
	v.SetDefault("spotify_redirect_uri", defaultRedirectURI)
	v.SetDefault("store", "file")
	v.SetDefault("session_dir", defaultSessionDir)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("http_timeout", "15s")
	v.SetDefault("login_timeout", "5m")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// loadConfig reads .env (if present), BEATPACE_* environment variables, an
// optional ~/.beatpace/config.yaml and any flags already bound to v.
func loadConfig(v *viper.Viper) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	setConfigDefaults(v)
	v.SetEnvPrefix("BEATPACE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// The Spotify client ID is commonly exported without our prefix.
	if err := v.BindEnv("spotify_client_id", "BEATPACE_SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_ID"); err != nil {
		return nil, err
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.beatpace")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	dir, err := expandHome(cfg.SessionDir)
	if err != nil {
		return nil, err
	}
	cfg.SessionDir = dir

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks the URLs and the store kind.
func (c *Config) validate() error {
	for name, raw := range map[string]string{
		"backend_url":  c.BackendURL,
		"frontend_url": c.FrontendURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	switch c.Store {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("store must be file, redis or memory, got %q", c.Store)
	}

	if c.HTTPTimeout <= 0 {
		return errors.New("http_timeout must be positive")
	}
	if c.LoginTimeout <= 0 {
		return errors.New("login_timeout must be positive")
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
