// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kagi-cli/kagi/lib/clock"
	"github.com/kagi-cli/kagi/lib/fault"
	"github.com/kagi-cli/kagi/lib/netutil"
)

const (
	// DefaultEndpoint mints bearer tokens for a kagi_session cookie.
	DefaultEndpoint = "https://translate.kagi.com/api/auth"

	// SessionCookie is the cookie that carries the session identity.
	SessionCookie = "kagi_session"

	// DefaultFirstByteTimeout bounds the wait for the token endpoint's
	// response headers.
	DefaultFirstByteTimeout = 10 * time.Second

	// DefaultRefreshTimeout bounds a whole refresh, body included.
	DefaultRefreshTimeout = 30 * time.Second
)

// ErrRefreshTimeout is the cause recorded when a refresh runs past its
// overall bound.
var ErrRefreshTimeout = errors.New("credential refresh timed out")

// RefresherConfig configures a Refresher.
type RefresherConfig struct {
	// Endpoint defaults to DefaultEndpoint.
	Endpoint string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Clock drives both timeouts. Defaults to clock.Real().
	Clock clock.Clock

	// FirstByteTimeout defaults to DefaultFirstByteTimeout; negative
	// disables it.
	FirstByteTimeout time.Duration

	// Timeout defaults to DefaultRefreshTimeout; negative disables it.
	Timeout time.Duration

	UserAgent string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Refresher exchanges a session identity for a Credential.
type Refresher struct {
	endpoint  string
	client    *http.Client
	clock     clock.Clock
	firstByte time.Duration
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// NewRefresher validates config and returns a Refresher.
func NewRefresher(config RefresherConfig) (*Refresher, error) {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	parsed, err := url.Parse(config.Endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("credential: invalid token endpoint %q", config.Endpoint)
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.FirstByteTimeout == 0 {
		config.FirstByteTimeout = DefaultFirstByteTimeout
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRefreshTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Refresher{
		endpoint:  config.Endpoint,
		client:    config.HTTPClient,
		clock:     config.Clock,
		firstByte: max(config.FirstByteTimeout, 0),
		timeout:   max(config.Timeout, 0),
		userAgent: config.UserAgent,
		logger:    config.Logger,
	}, nil
}

// tokenResponse is the token endpoint's document. id and expiresAt have
// been seen both as strings and as numbers.
type tokenResponse struct {
	Token        string          `json:"token"`
	ID           json.RawMessage `json:"id"`
	LoggedIn     bool            `json:"loggedIn"`
	Subscription bool            `json:"subscription"`
	ExpiresAt    json.RawMessage `json:"expiresAt"`
	AccountType  string          `json:"accountType"`
}

// Refresh mints a new Credential for identity. A rejected session is a
// fault.KindAuth error; transport failures, upstream errors and
// timeouts are fault.KindNetwork.
func (r *Refresher) Refresh(ctx context.Context, identity *SessionIdentity) (Credential, error) {
	bounded, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if r.timeout > 0 {
		timer := r.clock.AfterFunc(r.timeout, func() { cancel(ErrRefreshTimeout) })
		defer timer.Stop()
	}

	credential, err := r.refresh(bounded, identity)
	if err != nil && ctx.Err() == nil && errors.Is(context.Cause(bounded), ErrRefreshTimeout) {
		return Credential{}, fault.Network("refreshing credential: %w", ErrRefreshTimeout)
	}
	return credential, err
}

func (r *Refresher) refresh(ctx context.Context, identity *SessionIdentity) (Credential, error) {
	request, err := http.NewRequest(http.MethodGet, r.endpoint, nil)
	if err != nil {
		return Credential{}, fmt.Errorf("building token request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		request.Header.Set("User-Agent", r.userAgent)
	}
	request.AddCookie(&http.Cookie{Name: SessionCookie, Value: identity.Reveal()})

	r.logger.Debug("refreshing credential", "session", identity, "endpoint", r.endpoint)

	exchange, err := netutil.Send(ctx, r.client, request, netutil.Watchdog{Clock: r.clock, FirstByte: r.firstByte})
	if err != nil {
		return Credential{}, err
	}
	defer exchange.Close()

	response := exchange.Response
	switch {
	case response.StatusCode == http.StatusOK:
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return Credential{}, fault.Auth("Kagi rejected the session (HTTP %d); sign in again with \"kagi login\" or update KAGI_SESSION",
			response.StatusCode)
	case response.StatusCode == http.StatusTooManyRequests || response.StatusCode >= 500:
		return Credential{}, fault.Network("token endpoint returned HTTP %d: %s",
			response.StatusCode, netutil.ErrorBody(response.Body))
	default:
		return Credential{}, fault.Auth("token endpoint returned HTTP %d: %s",
			response.StatusCode, netutil.ErrorBody(response.Body))
	}

	var document tokenResponse
	if err := netutil.DecodeResponse(response.Body, &document); err != nil {
		var readError *netutil.ReadError
		if errors.As(err, &readError) {
			return Credential{}, exchange.Classify(readError.Err, "reading token response")
		}
		return Credential{}, fault.Auth("token endpoint returned an unreadable document: %w", err)
	}
	if document.Token == "" {
		return Credential{}, fault.Auth("token endpoint returned no token; the session may have expired")
	}

	hints := TokenHints{
		SubjectID:    rawString(document.ID),
		Subscription: document.Subscription,
		LoggedIn:     document.LoggedIn,
		AccountType:  document.AccountType,
		ExpiresAt:    rawTime(document.ExpiresAt),
	}
	credential, err := ParseToken(document.Token, hints, r.clock.Now())
	if err != nil {
		return Credential{}, fault.Auth("token endpoint returned an invalid credential: %w", err)
	}
	return credential, nil
}

// rawString renders a JSON string or number as a string.
func rawString(raw json.RawMessage) string {
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	var number json.Number
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if decoder.Decode(&number) == nil {
		return number.String()
	}
	return ""
}

// rawTime parses an RFC 3339 string or a Unix timestamp (seconds or
// milliseconds, string or number). Unparseable values are no hint.
func rawTime(raw json.RawMessage) time.Time {
	text := rawString(raw)
	if text == "" {
		return time.Time{}
	}
	if parsed, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return parsed
	}
	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}
	if seconds > 1e12 {
		seconds /= 1000
	}
	whole := int64(seconds)
	return time.Unix(whole, int64((seconds-float64(whole))*1e9))
}
