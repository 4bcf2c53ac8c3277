//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Tests shared by every session store plus store specific cases.
//

package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory returns a store for origin. Stores built by the same factory
// in one test share their backing storage.
type storeFactory func(origin string) Store

func storeFactories(t *testing.T) map[string]func(t *testing.T) storeFactory {
	t.Helper()
	return map[string]func(t *testing.T) storeFactory{
		"memory": func(t *testing.T) storeFactory {
			stores := map[string]*MemoryStore{}
			return func(origin string) Store {
				if s, ok := stores[origin]; ok {
					return s
				}
				stores[origin] = NewMemoryStore()
				return stores[origin]
			}
		},
		"file": func(t *testing.T) storeFactory {
			dir := t.TempDir()
			return func(origin string) Store {
				s, err := NewFileStore(dir, origin)
				require.NoError(t, err)
				return s
			}
		},
		"redis": func(t *testing.T) storeFactory {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return func(origin string) Store {
				s, err := NewRedisStore(client, origin)
				require.NoError(t, err)
				return s
			}
		},
	}
}

func testRecord() Record {
	email := "runner@example.com"
	return Record{
		Token:     "abc123",
		ExpiresAt: time.Date(2026, 10, 19, 13, 0, 0, 500, time.UTC),
		User:      &User{ID: "u1", SpotifyUserID: "s1", Email: &email},
	}
}

func TestStores(t *testing.T) {
	const origin = "http://127.0.0.1:3000"

	for name, newFactory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("empty read", func(t *testing.T) {
				store := newFactory(t)(origin)
				rec, err := store.Read(context.Background())
				require.NoError(t, err)
				assert.Nil(t, rec)
			})

			t.Run("round trip", func(t *testing.T) {
				ctx := context.Background()
				store := newFactory(t)(origin)
				want := testRecord()

				require.NoError(t, store.Write(ctx, want))
				got, err := store.Read(ctx)
				require.NoError(t, err)
				require.NotNil(t, got)
				if diff := cmp.Diff(want, *got); diff != "" {
					t.Errorf("record mismatch (-want +got):\n%s", diff)
				}
			})

			t.Run("overwrite drops user", func(t *testing.T) {
				ctx := context.Background()
				store := newFactory(t)(origin)

				require.NoError(t, store.Write(ctx, testRecord()))
				next := Record{Token: "def456", ExpiresAt: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)}
				require.NoError(t, store.Write(ctx, next))

				got, err := store.Read(ctx)
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, "def456", got.Token)
				assert.True(t, next.ExpiresAt.Equal(got.ExpiresAt))
				assert.Nil(t, got.User)
			})

			t.Run("clear", func(t *testing.T) {
				ctx := context.Background()
				store := newFactory(t)(origin)

				require.NoError(t, store.Write(ctx, testRecord()))
				require.NoError(t, store.Clear(ctx))
				require.NoError(t, store.Clear(ctx), "clearing twice is not an error")

				got, err := store.Read(ctx)
				require.NoError(t, err)
				assert.Nil(t, got)
			})

			t.Run("origins are isolated", func(t *testing.T) {
				ctx := context.Background()
				factory := newFactory(t)
				a := factory(origin)
				b := factory("https://beatpace.example.com")

				require.NoError(t, a.Write(ctx, testRecord()))

				got, err := b.Read(ctx)
				require.NoError(t, err)
				assert.Nil(t, got)

				require.NoError(t, b.Clear(ctx))
				got, err = a.Read(ctx)
				require.NoError(t, err)
				assert.NotNil(t, got)
			})

			t.Run("read returns a copy", func(t *testing.T) {
				ctx := context.Background()
				store := newFactory(t)(origin)
				require.NoError(t, store.Write(ctx, testRecord()))

				got, err := store.Read(ctx)
				require.NoError(t, err)
				got.User.ID = "changed"

				again, err := store.Read(ctx)
				require.NoError(t, err)
				assert.Equal(t, "u1", again.User.ID)
			})
		})
	}
}

func TestFileStore_Layout(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "sessions")
	store, err := NewFileStore(dir, "http://127.0.0.1:3000")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "http___127.0.0.1_3000.json"), store.Path())

	require.NoError(t, store.Write(ctx, testRecord()))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"token": "abc123"`)
	assert.Contains(t, string(data), `"tokenExpires": "2026-10-19T13:00:00.0000005Z"`)
	assert.Contains(t, string(data), `"spotify_user_id": "s1"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://127.0.0.1:3000")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))

	_, err = store.Read(context.Background())
	assert.Error(t, err)
}

func TestFileStore_PartialRecordReadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://127.0.0.1:3000")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"tokenExpires":"2026-10-19T13:00:00Z"}`), 0o600))

	rec, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestNewFileStore_Errors(t *testing.T) {
	_, err := NewFileStore("", "http://127.0.0.1:3000")
	assert.Error(t, err)

	_, err = NewFileStore(t.TempDir(), "not a url")
	assert.Error(t, err)
}

func TestRedisStore_Keys(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store, err := NewRedisStore(client, "HTTP://127.0.0.1:3000/ignored/path")
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, testRecord()))

	token, err := mr.Get("beatpace:http://127.0.0.1:3000:token")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
	assert.True(t, mr.Exists("beatpace:http://127.0.0.1:3000:tokenExpires"))
	assert.True(t, mr.Exists("beatpace:http://127.0.0.1:3000:user"))
	assert.Equal(t, time.Duration(0), mr.TTL("beatpace:http://127.0.0.1:3000:token"))

	require.NoError(t, store.Clear(ctx))
	assert.Empty(t, mr.Keys())
}

func TestRedisStore_InvalidExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store, err := NewRedisStore(client, "http://127.0.0.1:3000")
	require.NoError(t, err)

	require.NoError(t, mr.Set("beatpace:http://127.0.0.1:3000:token", "abc123"))
	require.NoError(t, mr.Set("beatpace:http://127.0.0.1:3000:tokenExpires", "soon"))

	_, err = store.Read(context.Background())
	assert.Error(t, err)
}

func TestOriginKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "http://127.0.0.1:3000", want: "http://127.0.0.1:3000"},
		{in: "https://BeatPace.example.com/app?x=1", want: "https://beatpace.example.com"},
		{in: "  http://localhost:3000/  ", want: "http://localhost:3000"},
		{in: "localhost:3000", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := OriginKey(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
