// Package flags is the public entry point of the SDK. Its Client validates
// and parses the SDK key, wires together the Controller and its
// configuration sources, and exposes the four operations a caller needs —
// Evaluate, GetDatafile, GetFallbackDatafile, and Shutdown — without ever
// requiring a caller to touch the internal packages directly.
package flags

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vercel/flags-sub000/internal/config"
	"github.com/vercel/flags-sub000/internal/controller"
	"github.com/vercel/flags-sub000/internal/datafile"
	"github.com/vercel/flags-sub000/internal/evaluator"
	"github.com/vercel/flags-sub000/internal/sdkkey"
	"github.com/vercel/flags-sub000/internal/source/polling"
	"github.com/vercel/flags-sub000/internal/usage"
)

// Context is the evaluation-time entity map passed to Evaluate: entity
// kind (e.g. "user") to attribute name to value ("Entities",
// Glossary).
type Context = evaluator.Context

// Options configures a Client beyond its SDK key. Every field is
// optional; unset fields fall back to internal/config's environment-
// sourced defaults.
type Options struct {
	// BaseURL overrides the edge API root (default https://flags.vercel.com).
	BaseURL string

	// BundledPath points at the local bundled-definitions artifact. Empty
	// disables the bundled source entirely — GetFallbackDatafile will
	// always report FallbackNotFound.
	BundledPath string

	// InitTimeout bounds how long Initialize waits for the stream before
	// falling back to the bundled datafile.
	InitTimeout time.Duration

	// Polling switches the live source from streaming to periodic
	// fetches. PollingInterval must be >= polling.MinInterval (30s) when
	// set; zero uses the config default.
	Polling         bool
	PollingInterval time.Duration

	// BuildStep forces (true) or suppresses (false) the one-shot
	// build-time resolution path regardless of the CI/NEXT_PHASE
	// environment signals. Nil auto-detects.
	BuildStep *bool

	// InitialDatafile installs a caller-supplied snapshot immediately,
	// the fast path through Initialize.
	InitialDatafile *datafile.Datafile

	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client is one independent SDK instance: its own Controller, usage
// buffer, and background connections. Multiple Clients in one process
// share no mutable state.
type Client struct {
	id     string
	sdkKey string
	ctrl   *controller.Controller
	usage  *usage.Tracker
	log    zerolog.Logger
}

// New validates sdkKeyOrConnString (a bare "vf_..." key or a
// "flags:...&sdkKey=vf_..." connection string) and builds a Client around
// it. It does not start any network connection — call Initialize, or
// simply Evaluate, to do that.
func New(sdkKeyOrConnString string, opts Options) (*Client, error) {
	parsed, err := sdkkey.Parse(sdkKeyOrConnString)
	if err != nil {
		return nil, ErrMissingSdkKey
	}

	defaults := config.Load()
	if opts.BaseURL == "" {
		opts.BaseURL = parsed.Options["baseUrl"]
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = defaults.InitTimeout
	}
	if opts.Polling && opts.PollingInterval <= 0 {
		opts.PollingInterval = defaults.PollingInterval
	}
	if opts.Polling && opts.PollingInterval < polling.MinInterval {
		return nil, &InvalidOptionError{Option: "PollingInterval", Reason: "below polling.MinInterval (30s)"}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	buildStep := defaults.BuildStep
	if opts.BuildStep != nil {
		buildStep = *opts.BuildStep
	}

	id := uuid.NewString()
	log := opts.Logger.With().Str("component", "client").Str("clientId", id).Logger()

	tracker := usage.New(opts.HTTPClient, opts.BaseURL, parsed.Key, defaults.IngestBufferSize)

	// The Controller polls whenever it is given a non-zero interval, so
	// only hand it one when Polling is on.
	var pollingInterval time.Duration
	if opts.Polling {
		pollingInterval = opts.PollingInterval
	}

	ctrl := controller.New(controller.Options{
		SDKKey:          parsed.Key,
		BaseURL:         opts.BaseURL,
		BundledPath:     opts.BundledPath,
		InitTimeout:     opts.InitTimeout,
		PollingInterval: pollingInterval,
		BuildStep:       buildStep,
		InitialDatafile: opts.InitialDatafile,
		HTTPClient:      opts.HTTPClient,
		Logger:          opts.Logger,
		Usage:           tracker,
	})

	return &Client{id: id, sdkKey: parsed.Key, ctrl: ctrl, usage: tracker, log: log}, nil
}

// Initialize runs the Controller's startup sequence. Evaluate
// calls this lazily, so most callers never need to call it directly;
// doing so up front lets a caller observe a build-step resolution failure
// (or a context cancellation) before its first evaluation. A stream that
// times out is not an error here: Initialize falls back to the bundled
// datafile and returns nil.
func (c *Client) Initialize(ctx context.Context) error {
	return c.ctrl.Initialize(ctx)
}

// Shutdown stops every background source and flushes any buffered usage
// events. It is idempotent and never returns an error.
func (c *Client) Shutdown() {
	c.ctrl.Shutdown()
	_ = c.usage.Flush(context.Background())
}
