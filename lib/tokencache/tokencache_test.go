// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package tokencache

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kagi-cli/kagi/credential"
	"github.com/kagi-cli/kagi/lib/clock"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testSession(t *testing.T, value string) *credential.SessionIdentity {
	t.Helper()
	session, err := credential.ParseSessionIdentity(value)
	if err != nil {
		t.Fatalf("ParseSessionIdentity: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func newTestCache(t *testing.T, dir string, session *credential.SessionIdentity, fake *clock.FakeClock) *Cache {
	t.Helper()
	cache, err := New(Config{
		Dir:        dir,
		Session:    session,
		Clock:      fake,
		WorkFactor: 10,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cache
}

func testCredential(t *testing.T, lifetime time.Duration) credential.Credential {
	t.Helper()
	cred, err := credential.New("bearer-token", epoch, epoch.Add(lifetime), credential.Account{
		SubjectID:    "user-1",
		Subscription: true,
		LoggedIn:     true,
		AccountType:  "ultimate",
		Extra:        map[string]any{"theme": "dark", "prefs": map[string]any{"lang": "en"}},
	})
	if err != nil {
		t.Fatalf("credential.New: %v", err)
	}
	return cred
}

func TestCacheSaveLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := clock.Fake(epoch)
	cache := newTestCache(t, dir, testSession(t, "session-one"), fake)

	saved := testCredential(t, time.Hour)
	if err := cache.Save(context.Background(), saved); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, ok := cache.Load(context.Background())
	if !ok {
		t.Fatal("Load missed after Save")
	}
	if loaded.Token != saved.Token || !loaded.ExpiresAt.Equal(saved.ExpiresAt) || !loaded.IssuedAt.Equal(saved.IssuedAt) {
		t.Errorf("loaded = %+v, want %+v", loaded, saved)
	}
	if loaded.Account.SubjectID != "user-1" || loaded.Account.AccountType != "ultimate" || !loaded.Account.Subscription {
		t.Errorf("Account = %+v", loaded.Account)
	}
	if loaded.Account.Extra["theme"] != "dark" {
		t.Errorf("Extra[theme] = %v, want dark", loaded.Account.Extra["theme"])
	}
	if prefs, ok := loaded.Account.Extra["prefs"].(map[string]any); !ok || prefs["lang"] != "en" {
		t.Errorf("Extra[prefs] = %#v", loaded.Account.Extra["prefs"])
	}

	info, err := os.Stat(cache.Path())
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("cache file mode = %o, want 600", mode)
	}
}

func TestCacheFileHidesToken(t *testing.T) {
	t.Parallel()

	cache := newTestCache(t, t.TempDir(), testSession(t, "session-one"), clock.Fake(epoch))
	if err := cache.Save(context.Background(), testCredential(t, time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(cache.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, secret := range []string{"bearer-token", "session-one", "user-1"} {
		if bytes.Contains(data, []byte(secret)) {
			t.Errorf("cache file contains %q in the clear", secret)
		}
	}
}

func TestCacheMisses(t *testing.T) {
	t.Parallel()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		cache := newTestCache(t, t.TempDir(), testSession(t, "session-one"), clock.Fake(epoch))
		if _, ok := cache.Load(context.Background()); ok {
			t.Error("Load hit on an empty directory")
		}
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		fake := clock.Fake(epoch)
		cache := newTestCache(t, t.TempDir(), testSession(t, "session-one"), fake)
		if err := cache.Save(context.Background(), testCredential(t, time.Minute)); err != nil {
			t.Fatalf("Save: %v", err)
		}
		fake.Advance(time.Minute)
		if _, ok := cache.Load(context.Background()); ok {
			t.Error("Load returned an expired credential")
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		t.Parallel()
		cache := newTestCache(t, t.TempDir(), testSession(t, "session-one"), clock.Fake(epoch))
		if err := os.WriteFile(cache.Path(), []byte("not an age file"), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, ok := cache.Load(context.Background()); ok {
			t.Error("Load hit on a corrupt file")
		}
	})

	t.Run("other session", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writer := newTestCache(t, dir, testSession(t, "session-one"), clock.Fake(epoch))
		if err := writer.Save(context.Background(), testCredential(t, time.Hour)); err != nil {
			t.Fatalf("Save: %v", err)
		}
		reader := newTestCache(t, dir, testSession(t, "session-two"), clock.Fake(epoch))
		if reader.Path() == writer.Path() {
			t.Fatal("two sessions share a cache file")
		}
		// Even a file planted under the other session's name must not
		// decrypt.
		data, err := os.ReadFile(writer.Path())
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if err := os.WriteFile(reader.Path(), data, 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, ok := reader.Load(context.Background()); ok {
			t.Error("Load decrypted another session's token")
		}
	})
}

func TestCacheFeedsStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fake := clock.Fake(epoch)
	session := testSession(t, "session-one")
	if err := newTestCache(t, dir, session, fake).Save(context.Background(), testCredential(t, time.Hour)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	store := credential.NewStore(credential.StoreConfig{
		Clock:  fake,
		Cache:  newTestCache(t, dir, session, fake),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	got, err := store.Valid(context.Background(), func(context.Context) (credential.Credential, error) {
		t.Error("refresh called despite a cached token")
		return credential.Credential{}, nil
	})
	if err != nil {
		t.Fatalf("Valid: %v", err)
	}
	if got.Token != "bearer-token" {
		t.Errorf("Token = %q, want the cached one", got.Token)
	}
}

func TestRemoveAndPurge(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	one := newTestCache(t, dir, testSession(t, "session-one"), clock.Fake(epoch))
	two := newTestCache(t, dir, testSession(t, "session-two"), clock.Fake(epoch))
	for _, cache := range []*Cache{one, two} {
		if err := cache.Save(context.Background(), testCredential(t, time.Hour)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	unrelated := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(unrelated, []byte("keep"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := one.Remove(context.Background()); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := one.Remove(context.Background()); err != nil {
		t.Errorf("second Remove: %v", err)
	}
	removed, err := Purge(dir)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if removed != 1 {
		t.Errorf("Purge removed %d files, want 1", removed)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Errorf("Purge removed an unrelated file: %v", err)
	}
	if removed, err := Purge(filepath.Join(dir, "absent")); err != nil || removed != 0 {
		t.Errorf("Purge(absent) = %d, %v", removed, err)
	}
}
