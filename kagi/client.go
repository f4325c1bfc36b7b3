// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package kagi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/kagi-cli/kagi/credential"
	"github.com/kagi-cli/kagi/lib/clock"
	"github.com/kagi-cli/kagi/lib/netutil"
)

// Default endpoints.
const (
	DefaultProofreadEndpoint = "https://translate.kagi.com/api/proofread"
	DefaultSummarizeEndpoint = "https://kagi.com/mother/summary_labs"
	DefaultAssistantEndpoint = "https://kagi.com/assistant/prompt"
	DefaultSearchEndpoint    = "https://kagi.com/socket/search"
)

// Default watchdog durations. Config fields left at zero disable the
// corresponding watchdog, so callers that want these must set them.
const (
	DefaultFirstByteTimeout = 10 * time.Second
	DefaultIdleTimeout      = 300 * time.Second
)

// ErrFirstByteTimeout is the cause of the network fault returned when
// response headers do not arrive in time.
var ErrFirstByteTimeout = netutil.ErrFirstByteTimeout

// Endpoints are the upstream URLs. Empty fields take the defaults.
type Endpoints struct {
	Auth      string
	Proofread string
	Summarize string
	Assistant string
	Search    string
}

func (e Endpoints) withDefaults() Endpoints {
	setDefault(&e.Auth, credential.DefaultEndpoint)
	setDefault(&e.Proofread, DefaultProofreadEndpoint)
	setDefault(&e.Summarize, DefaultSummarizeEndpoint)
	setDefault(&e.Assistant, DefaultAssistantEndpoint)
	setDefault(&e.Search, DefaultSearchEndpoint)
	return e
}

func (e Endpoints) forKind(kind Kind) string {
	switch kind {
	case KindProofread:
		return e.Proofread
	case KindSummarize:
		return e.Summarize
	case KindAsk:
		return e.Assistant
	default:
		return e.Search
	}
}

// Config configures a Client.
type Config struct {
	// Session is the kagi_session identity. Required. The Client does
	// not close it.
	Session *credential.SessionIdentity

	Endpoints Endpoints

	// HTTPClient defaults to a client without an overall timeout;
	// the watchdogs bound each exchange instead.
	HTTPClient *http.Client

	// Clock drives every timeout. Defaults to clock.Real().
	Clock clock.Clock

	// Store is shared between Clients of the same session. When nil,
	// the Client creates its own with Cache and RefreshMargin.
	Store         *credential.Store
	Cache         credential.Cache
	RefreshMargin time.Duration

	// FirstByteTimeout bounds the wait for response headers, on the
	// token endpoint and on every operation. Zero disables it.
	FirstByteTimeout time.Duration

	// IdleTimeout bounds the gap between stream events. Zero disables
	// it.
	IdleTimeout time.Duration

	// RefreshTimeout bounds a whole credential refresh. Zero disables
	// it.
	RefreshTimeout time.Duration

	UserAgent string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client runs operations for one session identity. It is safe for
// concurrent use.
type Client struct {
	session   *credential.SessionIdentity
	endpoints Endpoints
	http      *http.Client
	clock     clock.Clock
	store     *credential.Store
	refresher *credential.Refresher
	firstByte time.Duration
	idle      time.Duration
	userAgent string
	logger    *slog.Logger
}

// NewClient validates config and returns a Client.
func NewClient(config Config) (*Client, error) {
	if config.Session == nil {
		return nil, fmt.Errorf("kagi: a session identity is required")
	}
	config.Endpoints = config.Endpoints.withDefaults()
	for name, endpoint := range map[string]string{
		"proofread": config.Endpoints.Proofread,
		"summarize": config.Endpoints.Summarize,
		"assistant": config.Endpoints.Assistant,
		"search":    config.Endpoints.Search,
	} {
		parsed, err := url.Parse(endpoint)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("kagi: invalid %s endpoint %q", name, endpoint)
		}
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	refresher, err := credential.NewRefresher(credential.RefresherConfig{
		Endpoint:         config.Endpoints.Auth,
		HTTPClient:       config.HTTPClient,
		Clock:            config.Clock,
		FirstByteTimeout: disabledAsNegative(config.FirstByteTimeout),
		Timeout:          disabledAsNegative(config.RefreshTimeout),
		UserAgent:        config.UserAgent,
		Logger:           config.Logger,
	})
	if err != nil {
		return nil, err
	}

	store := config.Store
	if store == nil {
		store = credential.NewStore(credential.StoreConfig{
			Clock:  config.Clock,
			Margin: config.RefreshMargin,
			Cache:  config.Cache,
			Logger: config.Logger,
		})
	}

	return &Client{
		session:   config.Session,
		endpoints: config.Endpoints,
		http:      config.HTTPClient,
		clock:     config.Clock,
		store:     store,
		refresher: refresher,
		firstByte: max(config.FirstByteTimeout, 0),
		idle:      max(config.IdleTimeout, 0),
		userAgent: config.UserAgent,
		logger:    config.Logger,
	}, nil
}

// disabledAsNegative translates this package's "zero disables" into
// the refresher's "negative disables".
func disabledAsNegative(duration time.Duration) time.Duration {
	if duration <= 0 {
		return -1
	}
	return duration
}

// Store returns the Client's credential store.
func (c *Client) Store() *credential.Store { return c.store }

// Credential returns a credential valid for at least the refresh
// margin, refreshing it if needed.
func (c *Client) Credential(ctx context.Context) (credential.Credential, error) {
	return c.store.Valid(ctx, c.refresh)
}

func (c *Client) refresh(ctx context.Context) (credential.Credential, error) {
	return c.refresher.Refresh(ctx, c.session)
}
