// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kagi-cli/kagi/credential"
	"github.com/kagi-cli/kagi/lib/clock"
)

const testSession = "session-cookie-value"

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// harness is a fake Kagi: a token endpoint that mints a fresh JWT per
// call and whatever operation handlers the test registers.
type harness struct {
	t         *testing.T
	server    *httptest.Server
	clock     *clock.FakeClock
	refreshes atomic.Int32
	requests  atomic.Int32
}

func newHarness(t *testing.T, handlers map[string]http.HandlerFunc) *harness {
	t.Helper()
	h := &harness{t: t, clock: clock.Fake(epoch)}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth", func(writer http.ResponseWriter, request *http.Request) {
		cookie, err := request.Cookie(credential.SessionCookie)
		if err != nil || cookie.Value != testSession {
			http.Error(writer, "unknown session", http.StatusUnauthorized)
			return
		}
		count := h.refreshes.Add(1)
		json.NewEncoder(writer).Encode(map[string]any{
			"token":        h.mint(count),
			"id":           "user-1",
			"loggedIn":     true,
			"subscription": true,
			"accountType":  "ultimate",
		})
	})
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, func(writer http.ResponseWriter, request *http.Request) {
			h.requests.Add(1)
			handler(writer, request)
		})
	}
	h.server = httptest.NewServer(mux)
	t.Cleanup(h.server.Close)
	return h
}

// mint returns a token valid for five minutes of fake time. serial
// makes every minted token distinct.
func (h *harness) mint(serial int32) string {
	now := h.clock.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":     "user-1",
		"iat":    now.Unix(),
		"exp":    now.Add(5 * time.Minute).Unix(),
		"serial": serial,
		"theme":  "dark",
	}).SignedString([]byte("upstream"))
	if err != nil {
		h.t.Fatalf("minting token: %v", err)
	}
	return token
}

// client returns a Client pointed at the harness. Watchdogs are off
// unless configure turns them on.
func (h *harness) client(configure func(*Config)) *Client {
	h.t.Helper()
	identity, err := credential.ParseSessionIdentity(testSession)
	if err != nil {
		h.t.Fatalf("ParseSessionIdentity: %v", err)
	}
	h.t.Cleanup(func() { identity.Close() })

	config := Config{
		Session: identity,
		Endpoints: Endpoints{
			Auth:      h.server.URL + "/api/auth",
			Proofread: h.server.URL + "/api/proofread",
			Summarize: h.server.URL + "/mother/summary_labs",
			Assistant: h.server.URL + "/assistant/prompt",
			Search:    h.server.URL + "/socket/search",
		},
		HTTPClient: h.server.Client(),
		Clock:      h.clock,
		UserAgent:  "kagi-test",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if configure != nil {
		configure(&config)
	}
	client, err := NewClient(config)
	if err != nil {
		h.t.Fatalf("NewClient: %v", err)
	}
	return client
}

// seed stores a valid credential so an operation needs no refresh.
func (h *harness) seed(client *Client) {
	h.t.Helper()
	bearer, err := credential.ParseToken(h.mint(0), credential.TokenHints{}, h.clock.Now())
	if err != nil {
		h.t.Fatalf("ParseToken: %v", err)
	}
	client.Store().Replace(bearer)
}

// sse writes data blocks as "message" events, flushing after each.
func sse(writer http.ResponseWriter, data ...string) {
	writer.Header().Set("Content-Type", "text/event-stream")
	flusher := writer.(http.Flusher)
	for _, payload := range data {
		io.WriteString(writer, "event: message\ndata: "+payload+"\n\n")
		flusher.Flush()
	}
}

// recorder collects deltas.
type recorder struct{ deltas []string }

func (r *recorder) onDelta(text string) { r.deltas = append(r.deltas, text) }

// memoryCache is an in-process credential.Cache.
type memoryCache struct {
	mu     sync.Mutex
	stored *credential.Credential
}

func (c *memoryCache) Load(context.Context) (credential.Credential, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stored == nil {
		return credential.Credential{}, false
	}
	return *c.stored, true
}

func (c *memoryCache) Save(_ context.Context, bearer credential.Credential) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored = &bearer
	return nil
}

func (c *memoryCache) Remove(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored = nil
	return nil
}

func (c *memoryCache) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stored == nil {
		return ""
	}
	return c.stored.Token
}
