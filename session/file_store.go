//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: File backed session store, one JSON document per origin.
//

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// fileRecord is the on-disk layout. Field names match the keys the web
// front end keeps in local storage.
type fileRecord struct {
	Token        string    `json:"token"`
	TokenExpires time.Time `json:"tokenExpires"`
	User         *User     `json:"user,omitempty"`
}

// FileStore persists the record as a JSON file named after the origin it
// belongs to, so sessions for different origins never mix.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store for origin rooted at dir.
func NewFileStore(dir, origin string) (*FileStore, error) {
	key, err := OriginKey(origin)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, errors.New("session: file store directory is required")
	}

	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, key)

	return &FileStore{path: filepath.Join(dir, name+".json")}, nil
}

// Path returns the file the record is kept in.
func (f *FileStore) Path() string {
	return f.path
}

// Read loads the record from disk. A missing file, or one without a token
// and expiry, reads as no record.
func (f *FileStore) Read(ctx context.Context) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: failed to read %s: %w", f.path, err)
	}

	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("session: failed to decode %s: %w", f.path, err)
	}

	rec := &Record{Token: fr.Token, ExpiresAt: fr.TokenExpires, User: fr.User}
	if !rec.Valid() {
		return nil, nil
	}
	return rec, nil
}

// Write replaces the file atomically via a temp file and rename.
func (f *FileStore) Write(ctx context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(fileRecord{
		Token:        rec.Token,
		TokenExpires: rec.ExpiresAt.UTC(),
		User:         rec.User,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("session: failed to encode record: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("session: failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("session: failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("session: failed to write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: failed to write record: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("session: failed to replace %s: %w", f.path, err)
	}
	return nil
}

// Clear removes the file. Clearing a missing file is not an error.
func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: failed to remove %s: %w", f.path, err)
	}
	return nil
}

// OriginKey normalizes an origin URL to scheme://host[:port].
func OriginKey(origin string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return "", fmt.Errorf("session: invalid origin %q: %w", origin, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("session: invalid origin %q", origin)
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), nil
}
