// Package usage implements the client-side usage tracker: it buffers
// FLAGS_CONFIG_READ events and flushes them to the ingest endpoint on a
// threshold or on shutdown. Events are not per-flag — one is
// recorded per read of the current datafile, annotated with the cache
// state observed at that read. Once any configuration source reports a
// 401, the tracker stops sending — a caller whose key is bad doesn't need
// every read logged as well as every reconnect.
package usage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vercel/flags-sub000/internal/datafile"
	"github.com/vercel/flags-sub000/internal/transport"
)

// CacheAction records whether this read neither started nor waited on a
// fetch (NONE) or rode along with one already in flight (FOLLOWING).
type CacheAction string

const (
	CacheActionNone      CacheAction = "NONE"
	CacheActionFollowing CacheAction = "FOLLOWING"
)

const eventTypeConfigRead = "FLAGS_CONFIG_READ"

// Event is a single recorded read of the current datafile — not a
// per-flag event — carrying the cache and connection state observed at
// the moment of that read.
type Event struct {
	Type             string               `json:"type"`
	CacheStatus      datafile.CacheStatus `json:"cacheStatus"`
	ConfigOrigin     datafile.Source      `json:"configOrigin"`
	CacheAction      CacheAction          `json:"cacheAction"`
	CacheIsFirstRead bool                 `json:"cacheIsFirstRead"`
	CacheIsBlocking  bool                 `json:"cacheIsBlocking"`
	DurationMs       int64                `json:"duration"`
	ConfigUpdatedAt  datafile.Freshness   `json:"configUpdatedAt"`
}

// ReadObservation is everything the tracker needs to record one read —
// gathered by the caller (the Client facade) at the read call site, since
// only it knows whether this particular read blocked on initialization.
type ReadObservation struct {
	CacheStatus      datafile.CacheStatus
	ConfigOrigin     datafile.Source
	CacheAction      CacheAction
	CacheIsFirstRead bool
	CacheIsBlocking  bool
	Duration         time.Duration
	ConfigUpdatedAt  datafile.Freshness
}

// Tracker buffers Events and flushes them in batches to baseURL+/v1/ingest.
type Tracker struct {
	httpClient *http.Client
	baseURL    string
	sdkKey     string
	maxBuffer  int

	mu  sync.Mutex
	buf []Event

	suppressed atomic.Bool
}

// New builds a Tracker. maxBuffer <= 0 disables threshold-triggered
// flushing (events still flush on Shutdown).
func New(httpClient *http.Client, baseURL, sdkKey string, maxBuffer int) *Tracker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Tracker{httpClient: httpClient, baseURL: baseURL, sdkKey: sdkKey, maxBuffer: maxBuffer}
}

// Suppress stops the tracker from sending any further events — called once
// any source observes a 401 for this SDK key.
func (t *Tracker) Suppress() {
	t.suppressed.Store(true)
}

// Record buffers one config-read event built from obs, starting a flush
// in a background goroutine if the buffer has reached its threshold.
func (t *Tracker) Record(obs ReadObservation) {
	if t.suppressed.Load() {
		return
	}

	evt := Event{
		Type:             eventTypeConfigRead,
		CacheStatus:      obs.CacheStatus,
		ConfigOrigin:     obs.ConfigOrigin,
		CacheAction:      obs.CacheAction,
		CacheIsFirstRead: obs.CacheIsFirstRead,
		CacheIsBlocking:  obs.CacheIsBlocking,
		DurationMs:       obs.Duration.Milliseconds(),
		ConfigUpdatedAt:  obs.ConfigUpdatedAt,
	}

	t.mu.Lock()
	t.buf = append(t.buf, evt)
	shouldFlush := t.maxBuffer > 0 && len(t.buf) >= t.maxBuffer
	t.mu.Unlock()

	if shouldFlush {
		go func() {
			_ = t.Flush(context.Background())
		}()
	}
}

// Flush sends every buffered event in one batch as a bare JSON array, and
// clears the buffer regardless of outcome: usage tracking is best-effort
// and must never block or fail flag evaluation.
func (t *Tracker) Flush(ctx context.Context) error {
	if t.suppressed.Load() {
		return nil
	}

	t.mu.Lock()
	batch := t.buf
	t.buf = nil
	t.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("usage: encode batch: %w", err)
	}

	req, err := transport.NewRequest(ctx, http.MethodPost, t.baseURL+"/v1/ingest", t.sdkKey, 0)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("usage: send batch: %w", err)
	}
	defer resp.Body.Close()

	if transport.IsUnauthorized(resp) {
		t.Suppress()
	}
	return nil
}
