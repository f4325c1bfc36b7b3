// Copyright 2026 The Kagi CLI Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/kagi-cli/kagi/cmd/kagi/cli"
	"github.com/kagi-cli/kagi/credential"
	"github.com/kagi-cli/kagi/kagi"
	"github.com/kagi-cli/kagi/lib/config"
	"github.com/kagi-cli/kagi/lib/fault"
	"github.com/kagi-cli/kagi/lib/tokencache"
	"github.com/kagi-cli/kagi/lib/version"
	"github.com/kagi-cli/kagi/render"
)

// loadConfig loads .env (or --env-file) and then the configuration
// file (--config, KAGI_CONFIG or the default location).
func loadConfig(params *cli.ConfigParams) (*config.Config, error) {
	envFiles, required := []string{".env"}, false
	if params.EnvFile != "" {
		envFiles, required = []string{params.EnvFile}, true
	}
	if err := config.LoadDotenv(required, envFiles...); err != nil {
		return nil, fault.Validation("%w", err)
	}

	var (
		cfg *config.Config
		err error
	)
	if params.Config != "" {
		cfg, err = config.LoadFile(params.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fault.Validation("loading configuration: %w", err)
	}
	return cfg, nil
}

// environment is what a command that talks to Kagi assembles first.
type environment struct {
	streams Streams
	params  *cli.CommonParams
	config  *config.Config
	format  render.Format
	session *credential.SessionIdentity
	source  cli.SessionSource
	cache   *tokencache.Cache
	client  *kagi.Client
	logger  *slog.Logger
}

func newEnvironment(streams Streams, params *cli.CommonParams, logger *slog.Logger) (*environment, error) {
	cfg, err := loadConfig(&params.ConfigParams)
	if err != nil {
		return nil, err
	}

	formatName := params.Format
	if formatName == "" {
		formatName = cfg.Defaults.Format
	}
	format, err := render.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	if _, err := params.WantLive(streams.Err); err != nil {
		return nil, err
	}

	session, source, err := cli.ResolveSession(params.Session, cfg, streams.In)
	if err != nil {
		return nil, err
	}
	logger = logger.With("session", session)
	logger.Debug("session resolved", "source", source)

	env := &environment{
		streams: streams,
		params:  params,
		config:  cfg,
		format:  format,
		session: session,
		source:  source,
		logger:  logger,
	}
	if env.client, env.cache, err = newClient(cfg, session, logger); err != nil {
		session.Close()
		return nil, err
	}
	return env, nil
}

// newClient builds a Client for session from cfg. The token cache is
// nil when disabled.
func newClient(cfg *config.Config, session *credential.SessionIdentity, logger *slog.Logger) (*kagi.Client, *tokencache.Cache, error) {
	clientConfig := kagi.Config{
		Session: session,
		Endpoints: kagi.Endpoints{
			Auth:      cfg.Endpoints.Auth,
			Proofread: cfg.Endpoints.Proofread,
			Summarize: cfg.Endpoints.Summarize,
			Assistant: cfg.Endpoints.Assistant,
			Search:    cfg.Endpoints.Search,
		},
		RefreshMargin:    cfg.RefreshMargin.Std(),
		FirstByteTimeout: cfg.Timeouts.FirstByte.Std(),
		IdleTimeout:      cfg.Timeouts.Idle.Std(),
		RefreshTimeout:   cfg.Timeouts.Refresh.Std(),
		UserAgent:        cfg.UserAgent,
		Logger:           logger,
	}
	if clientConfig.UserAgent == "" {
		clientConfig.UserAgent = "kagi-cli/" + version.Short()
	}

	var cache *tokencache.Cache
	if cfg.TokenCache {
		var err error
		cache, err = tokencache.New(tokencache.Config{Session: session, Logger: logger})
		if err != nil {
			// A missing cache directory only costs a token request.
			logger.Warn("token cache disabled", "error", err)
		} else {
			clientConfig.Cache = cache
		}
	}

	client, err := kagi.NewClient(clientConfig)
	if err != nil {
		return nil, nil, fault.Validation("%w", err)
	}
	return client, cache, nil
}

func (e *environment) Close() {
	e.session.Close()
}

// startLive draws a live view on stderr when wanted and routes
// warnings into it. The returned stop function is always safe to call.
func (e *environment) startLive(title string) (*render.Live, func()) {
	want, _ := e.params.WantLive(e.streams.Err)
	if !want {
		return nil, func() {}
	}
	profile := termenv.NewOutput(e.streams.Err).EnvColorProfile()
	live := render.StartLive(e.streams.Err, title, profile, nil)
	handler, attached := e.logger.Handler().(*render.LiveLogHandler)
	if attached {
		handler.Attach(live)
	}
	return live, func() {
		if attached {
			handler.Detach()
		}
		live.Stop()
	}
}

// write renders results on stdout. Console output adapts to the
// terminal's width and colors; anything else is plain.
func (e *environment) write(results []kagi.Result) error {
	options := render.Options{Format: e.format, Profile: termenv.Ascii}
	if file, ok := e.streams.Out.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		options.Profile = termenv.NewOutput(file).EnvColorProfile()
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			options.Width = min(width, 120)
		}
	}
	return render.Write(e.streams.Out, results, options)
}

// run performs one operation with a live view and prints its result.
func (e *environment) run(ctx context.Context, request kagi.Request) error {
	live, stop := e.startLive(string(request.Kind))
	var onDelta func(string)
	if live != nil {
		onDelta = live.Delta
	}
	result, err := e.client.RunOperation(ctx, request, onDelta)
	stop()
	if err != nil {
		return err
	}
	return e.write([]kagi.Result{result})
}
