// Package controller implements the multi-source configuration controller:
// it owns the currently-effective Datafile, merges updates from whichever
// sources are active under a strict freshness guard, and exposes the
// connection lifecycle the Client Facade surfaces as metrics.
package controller

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/vercel/flags-sub000/internal/datafile"
	"github.com/vercel/flags-sub000/internal/source/bundled"
	"github.com/vercel/flags-sub000/internal/source/polling"
	"github.com/vercel/flags-sub000/internal/source/remote"
	"github.com/vercel/flags-sub000/internal/source/stream"
	"github.com/vercel/flags-sub000/internal/usage"
)

// origin distinguishes which concrete source produced an update, for
// internal bookkeeping and logging. The Client Facade only ever sees the
// coarser, public datafile.Source vocabulary.
type origin string

const (
	originCaller   origin = "caller"
	originBundled  origin = "bundled"
	originRemote   origin = "remote"
	originStream   origin = "stream"
	originPolling  origin = "polling"
)

// toPublicSource maps an internal origin onto the three-value source
// vocabulary the Datafile metrics expose: a caller-supplied, streamed, or
// polled datafile all live "in-memory"; a bundled datafile is "embedded";
// a one-shot fetch (build step) is "remote".
func toPublicSource(o origin) datafile.Source {
	switch o {
	case originBundled:
		return datafile.SourceEmbedded
	case originRemote:
		return datafile.SourceRemote
	default:
		return datafile.SourceInMemory
	}
}

// Options configures a Controller.
type Options struct {
	SDKKey      string
	BaseURL     string
	BundledPath string

	// InitTimeout bounds how long Initialize waits for the stream source
	// before falling back to the bundled datafile.
	InitTimeout time.Duration

	// PollingInterval, if non-zero, switches the live source from
	// streaming to polling at this period (must be >= polling.MinInterval).
	PollingInterval time.Duration

	// BuildStep skips persistent connections entirely and resolves a
	// single one-shot snapshot, for framework build steps.
	BuildStep bool

	// InitialDatafile, if set, is installed immediately as a fast path:
	// Initialize resolves without waiting on any network source, and the
	// live source (if any) still starts in the background.
	InitialDatafile *datafile.Datafile

	HTTPClient *http.Client
	Logger     zerolog.Logger
	Usage      *usage.Tracker
}

// Controller owns the current Datafile and the background connection(s)
// that keep it fresh.
type Controller struct {
	opts Options
	log  zerolog.Logger

	bundledSrc *bundled.Source
	remoteSrc  *remote.Source
	streamSrc  *stream.Source
	pollingSrc *polling.Source

	sf singleflight.Group

	mu         sync.RWMutex
	state      State
	current    *datafile.Datafile
	connected  bool
	mode       datafile.Mode
	metrics    datafile.Metrics

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New builds a Controller. It does not start any background work; call
// Initialize to do that.
func New(opts Options) *Controller {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = 3 * time.Second
	}

	c := &Controller{
		opts:  opts,
		log:   opts.Logger.With().Str("component", "controller").Logger(),
		state: StateUninitialized,
	}
	c.bundledSrc = bundled.New(opts.BundledPath, opts.SDKKey)
	c.remoteSrc = remote.New(opts.HTTPClient, opts.BaseURL, opts.SDKKey)
	c.streamSrc = stream.New(opts.HTTPClient, opts.BaseURL, opts.SDKKey, c.handleStreamUpdate, c.handleSourceError)
	if opts.InitialDatafile != nil {
		c.tryUpdate(opts.InitialDatafile, originCaller)
	}
	return c
}

// Initialize runs the startup sequence exactly once even if called
// concurrently from multiple goroutines — the Client Facade's lazy
// default-client path and an explicit caller call can race here, and only
// one of them should actually open a connection.
func (c *Controller) Initialize(ctx context.Context) error {
	_, err, _ := c.sf.Do("initialize", func() (any, error) {
		return nil, c.initialize(ctx)
	})
	if err != nil {
		c.mu.Lock()
		if c.state == StateInitializing {
			c.state = StateUninitialized
		}
		c.mu.Unlock()
	}
	return err
}

func (c *Controller) initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateReady || c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	// A datafile supplied via Options (or SetDatafile before Initialize)
	// is a fast path: resolve immediately and start the live source in
	// the background rather than racing it against InitTimeout.
	if c.current != nil && !c.opts.BuildStep {
		c.state = StateReady
		c.connected = false
		c.mu.Unlock()

		runCtx, cancel := context.WithCancel(context.Background())
		c.ctx, c.cancel = runCtx, cancel
		c.startLiveSource(runCtx)
		return nil
	}
	c.state = StateInitializing
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	c.ctx, c.cancel = runCtx, cancel

	if c.opts.BuildStep {
		return c.initializeBuildStep(ctx)
	}
	return c.initializeNormal(ctx)
}

// initializeBuildStep resolves a single snapshot with no persistent
// connections: bundled source first, falling back to one remote fetch
// only if bundled is unavailable.
func (c *Controller) initializeBuildStep(ctx context.Context) error {
	res := c.bundledSrc.Load()
	if res.State == bundled.StateOK {
		c.tryUpdate(res.Datafile, originBundled)
		c.markReady(originBundled, datafile.ModeBuild)
		return nil
	}

	df, err := c.remoteSrc.Fetch(ctx)
	if err == nil {
		c.tryUpdate(df, originRemote)
		c.markReady(originRemote, datafile.ModeBuild)
		return nil
	}
	return fmt.Errorf("controller: build-step resolution failed: bundled=%v remote=%w", res.Err, err)
}

// startLiveSource starts whichever live source is configured (stream, or
// polling if PollingInterval is set) without waiting on it.
func (c *Controller) startLiveSource(ctx context.Context) {
	if c.opts.PollingInterval > 0 {
		src, err := polling.New(c.remoteSrc, c.opts.PollingInterval, c.handlePollingUpdate, c.handleSourceError)
		if err != nil {
			c.log.Warn().Err(err).Msg("polling source misconfigured")
			return
		}
		c.mu.Lock()
		c.pollingSrc = src
		c.mode = datafile.ModePolling
		c.mu.Unlock()
		c.pollingSrc.Start(ctx)
		return
	}
	c.mu.Lock()
	c.mode = datafile.ModeStreaming
	c.mu.Unlock()
	c.streamSrc.Start(ctx)
}

// initializeNormal starts the live source (stream, or polling if
// PollingInterval is configured) and races it against InitTimeout; on
// timeout it falls back to the bundled datafile while the live source
// keeps trying in the background, so a late-arriving connection still
// supersedes the fallback via tryUpdate's freshness guard.
func (c *Controller) initializeNormal(ctx context.Context) error {
	if c.opts.PollingInterval > 0 {
		src, err := polling.New(c.remoteSrc, c.opts.PollingInterval, c.handlePollingUpdate, c.handleSourceError)
		if err != nil {
			return err
		}
		c.pollingSrc = src
		c.mu.Lock()
		c.mode = datafile.ModePolling
		c.mu.Unlock()
		c.pollingSrc.Start(c.ctx)

		timer := time.NewTimer(c.opts.InitTimeout)
		defer timer.Stop()

		select {
		case <-c.pollingSrc.Ready():
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}

		c.mu.RLock()
		hasData := c.current != nil
		c.mu.RUnlock()
		if hasData {
			c.markReady(originPolling, datafile.ModePolling)
			return nil
		}

		// First fetch failed (or is still outstanding at the timeout) and
		// nothing else supplied a datafile yet: fall back to bundled, while
		// polling keeps retrying in the background.
		res := c.bundledSrc.Load()
		if res.State == bundled.StateOK {
			c.tryUpdate(res.Datafile, originBundled)
		}
		c.markReady(originBundled, datafile.ModePolling)
		return nil
	}

	c.mu.Lock()
	c.mode = datafile.ModeStreaming
	c.mu.Unlock()
	c.streamSrc.Start(c.ctx)

	timer := time.NewTimer(c.opts.InitTimeout)
	defer timer.Stop()

	select {
	case <-c.streamSrc.Ready():
		c.mu.RLock()
		hasData := c.current != nil
		c.mu.RUnlock()
		if hasData {
			c.markReady(originStream, datafile.ModeStreaming)
			return nil
		}
		// Ready closed without ever delivering data (e.g. immediate 401):
		// fall through to the bundled fallback below.
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	res := c.bundledSrc.Load()
	if res.State == bundled.StateOK {
		c.tryUpdate(res.Datafile, originBundled)
	}
	c.markReady(originBundled, datafile.ModeStreaming)
	return nil
}

func (c *Controller) handleStreamUpdate(df *datafile.Datafile) {
	c.tryUpdate(df, originStream)
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
}

func (c *Controller) handlePollingUpdate(df *datafile.Datafile) {
	c.tryUpdate(df, originPolling)
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
}

func (c *Controller) handleSourceError(err error) {
	c.log.Warn().Err(err).Str("correlationId", uuid.NewString()).Msg("configuration source error")
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	if c.opts.Usage != nil && isUnauthorized(err) {
		c.opts.Usage.Suppress()
	}
}

// tryUpdate applies df if it is strictly newer than the current datafile
// under the monotonic freshness rule. It returns whether the update was
// applied.
func (c *Controller) tryUpdate(df *datafile.Datafile, o origin) bool {
	if df == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && !df.ConfigUpdatedAt.After(c.current.ConfigUpdatedAt) {
		return false
	}

	c.current = df
	c.metrics.Source = toPublicSource(o)
	c.metrics.LastUpdatedAt = df.ConfigUpdatedAt
	c.log.Debug().Str("origin", string(o)).Str("digest", df.ObservedDigest()).Msg("datafile installed")
	return true
}

func (c *Controller) markReady(o origin, mode datafile.Mode) {
	c.mu.Lock()
	c.state = StateReady
	c.mode = mode
	if c.metrics.Source == "" {
		c.metrics.Source = toPublicSource(o)
	}
	c.connected = o == originStream || o == originPolling
	c.mu.Unlock()
}

// Read returns the currently-effective Datafile, or nil if nothing has
// been resolved yet. Its cache status (see ReadWithStatus) is MISS only
// while no datafile has been installed, STALE while in streaming mode with
// the stream known disconnected, and HIT otherwise.
func (c *Controller) Read() *datafile.Datafile {
	df, _ := c.ReadWithStatus()
	return df
}

// ReadWithStatus returns the currently-effective Datafile alongside the
// cache status this particular read should be annotated with: MISS when no
// Datafile has ever been installed, STALE when the live source has
// disconnected, HIT otherwise — including the first read after any
// installation.
func (c *Controller) ReadWithStatus() (*datafile.Datafile, datafile.CacheStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, datafile.CacheMISS
	}
	status := c.readCacheStatusLocked()
	return c.current, status
}

func (c *Controller) readCacheStatusLocked() datafile.CacheStatus {
	switch {
	case c.current == nil:
		return datafile.CacheMISS
	case c.mode == datafile.ModeStreaming && !c.connected:
		return datafile.CacheStale
	default:
		return datafile.CacheHIT
	}
}

// GetDatafile implements the getDatafile operation: it prefers the
// already-installed datafile while the live source is connected (a HIT),
// and otherwise performs a one-shot remote fetch so a caller asking
// explicitly for the datafile doesn't get a snapshot known to be behind
// (a MISS). During a build step the installed datafile from
// initialization is always authoritative, since no live source runs.
func (c *Controller) GetDatafile(ctx context.Context) (*datafile.Datafile, datafile.CacheStatus, error) {
	c.mu.RLock()
	connected := c.connected
	current := c.current
	buildStep := c.opts.BuildStep
	c.mu.RUnlock()

	if current != nil && (buildStep || connected) {
		return current, datafile.CacheHIT, nil
	}

	df, err := c.remoteSrc.Fetch(ctx)
	if err != nil {
		if current != nil {
			return current, datafile.CacheStale, nil
		}
		return nil, datafile.CacheMISS, err
	}
	c.tryUpdate(df, originRemote)
	return df, datafile.CacheMISS, nil
}

// GetFallbackDatafile returns the bundled load result regardless of what
// is currently in effect, loading it on first use. The caller (the
// Client Facade) maps bundled.State onto the error taxonomy
// (FallbackNotFound / FallbackEntryNotFound / UnexpectedBundledError).
func (c *Controller) GetFallbackDatafile() bundled.Result {
	return c.bundledSrc.Load()
}

// SetDatafile lets a caller directly supply a Datafile, subject to the
// same freshness guard as every other source.
func (c *Controller) SetDatafile(df *datafile.Datafile) bool {
	return c.tryUpdate(df, originCaller)
}

// Metrics returns a snapshot of the Controller's current health.
func (c *Controller) Metrics() datafile.Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.metrics
	m.Mode = c.mode
	if c.connected {
		m.ConnectionState = datafile.ConnStateConnected
	} else {
		m.ConnectionState = datafile.ConnStateDisconnected
	}
	m.CacheStatus = c.readCacheStatusLocked()
	return m
}

// State returns the Controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Shutdown stops every background source and marks the Controller closed.
// It is safe to call more than once.
func (c *Controller) Shutdown() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()

		if c.cancel != nil {
			c.cancel()
		}
		c.streamSrc.Stop()
		if c.pollingSrc != nil {
			c.pollingSrc.Stop()
		}
	})
}

func isUnauthorized(err error) bool {
	return err == stream.ErrUnauthorized || err == remote.ErrUnauthorized
}
