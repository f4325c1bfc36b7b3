// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kagi-cli/kagi/lib/clock"
	"github.com/kagi-cli/kagi/lib/fault"
)

// DefaultMargin is how long before expiry a credential counts as stale.
const DefaultMargin = 60 * time.Second

// RefreshFunc mints a new Credential.
type RefreshFunc func(ctx context.Context) (Credential, error)

// Cache persists credentials between processes. Load misses return
// false; errors are the cache's own business. Remove drops the stored
// credential; a missing entry is not an error.
type Cache interface {
	Load(ctx context.Context) (Credential, bool)
	Save(ctx context.Context, credential Credential) error
	Remove(ctx context.Context) error
}

// StoreConfig configures a Store. Every field is optional.
type StoreConfig struct {
	// Clock defaults to clock.Real().
	Clock clock.Clock

	// Margin defaults to DefaultMargin.
	Margin time.Duration

	// Cache is consulted before refreshing and updated after.
	Cache Cache

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Store holds the current Credential. It is safe for concurrent use;
// one Store is shared by every operation of a process.
type Store struct {
	current atomic.Pointer[Credential]
	flight  singleflight.Group

	// rejected is the last token the server refused. A cached
	// credential carrying it is never reused.
	rejected atomic.Pointer[string]

	clock  clock.Clock
	margin time.Duration
	cache  Cache
	logger *slog.Logger
}

// NewStore returns an empty Store.
func NewStore(config StoreConfig) *Store {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Margin <= 0 {
		config.Margin = DefaultMargin
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{
		clock:  config.Clock,
		margin: config.Margin,
		cache:  config.Cache,
		logger: config.Logger,
	}
}

// Current returns the last stored credential without side effects.
func (s *Store) Current() (Credential, bool) {
	current := s.current.Load()
	if current == nil {
		return Credential{}, false
	}
	return *current, true
}

// Replace atomically installs credential.
func (s *Store) Replace(credential Credential) {
	s.current.Store(&credential)
}

// Invalidate records token as rejected and drops the stored credential
// if it still carries token. A credential installed by a concurrent
// refresh is left alone. A cached copy of token is removed so neither
// this Store nor a later process reuses it.
func (s *Store) Invalidate(ctx context.Context, token string) bool {
	s.rejected.Store(&token)
	if s.cache != nil {
		if cached, ok := s.cache.Load(ctx); ok && cached.Token == token {
			s.removeCached(ctx)
		}
	}

	current := s.current.Load()
	if current == nil || current.Token != token {
		return false
	}
	return s.current.CompareAndSwap(current, nil)
}

// IsStale reports whether no credential is stored or
// now + margin >= ExpiresAt.
func (s *Store) IsStale(now time.Time, margin time.Duration) bool {
	current := s.current.Load()
	return current == nil || !current.ValidAt(now, margin)
}

// Valid returns a credential that is fresh by the Store's margin,
// calling refresh when it is not. Concurrent callers that find the
// Store stale share one refresh and its result.
//
// The shared refresh is detached from any single caller's context so
// that one caller giving up does not fail the others; a caller whose
// context ends stops waiting with a cancellation fault.
func (s *Store) Valid(ctx context.Context, refresh RefreshFunc) (Credential, error) {
	if current, ok := s.fresh(); ok {
		return current, nil
	}

	detached := context.WithoutCancel(ctx)
	result := s.flight.DoChan("refresh", func() (any, error) {
		if current, ok := s.fresh(); ok {
			return current, nil
		}
		if cached, ok := s.loadCached(detached); ok {
			return cached, nil
		}

		started := s.clock.Now()
		credential, err := refresh(detached)
		if err != nil {
			s.logger.Warn("credential refresh failed", "error", err)
			return Credential{}, err
		}
		s.Replace(credential)
		s.logger.Debug("credential refreshed",
			"subject", credential.Account.SubjectID,
			"expires_at", credential.ExpiresAt,
			"elapsed", s.clock.Now().Sub(started),
		)

		if s.cache != nil {
			if err := s.cache.Save(detached, credential); err != nil {
				s.logger.Warn("saving credential to cache failed", "error", err)
			}
		}
		return credential, nil
	})

	select {
	case <-ctx.Done():
		return Credential{}, fault.FromContext(ctx, "waiting for credential refresh")
	case outcome := <-result:
		if outcome.Err != nil {
			return Credential{}, outcome.Err
		}
		return outcome.Val.(Credential), nil
	}
}

func (s *Store) fresh() (Credential, bool) {
	current := s.current.Load()
	if current == nil || !current.ValidAt(s.clock.Now(), s.margin) {
		return Credential{}, false
	}
	return *current, true
}

func (s *Store) loadCached(ctx context.Context) (Credential, bool) {
	if s.cache == nil {
		return Credential{}, false
	}
	cached, ok := s.cache.Load(ctx)
	if !ok || !cached.ValidAt(s.clock.Now(), s.margin) {
		return Credential{}, false
	}
	if rejected := s.rejected.Load(); rejected != nil && cached.Token == *rejected {
		s.removeCached(ctx)
		return Credential{}, false
	}
	s.Replace(cached)
	s.logger.Debug("credential loaded from cache", "expires_at", cached.ExpiresAt)
	return cached, true
}

func (s *Store) removeCached(ctx context.Context) {
	if err := s.cache.Remove(ctx); err != nil {
		s.logger.Warn("removing rejected credential from cache failed", "error", err)
		return
	}
	s.logger.Debug("rejected credential removed from cache")
}
