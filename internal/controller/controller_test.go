package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vercel/flags-sub000/internal/datafile"
)

func writeBundledFixture(t *testing.T, sdkKey string, configUpdatedAt int64) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "datafile.json")
	bundle := map[string]any{
		sdkKey: map[string]any{
			"projectId":       "p1",
			"definitions":     map[string]any{},
			"segments":        map[string]any{},
			"configUpdatedAt": configUpdatedAt,
		},
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestController_FallsBackToBundledOnInitTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	path := writeBundledFixture(t, "vf_abc", 100)

	c := New(Options{
		SDKKey:      "vf_abc",
		BaseURL:     srv.URL,
		BundledPath: path,
		InitTimeout: 200 * time.Millisecond,
		HTTPClient:  srv.Client(),
	})
	defer c.Shutdown()

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if c.State() != StateReady {
		t.Fatalf("state = %v, want ready", c.State())
	}
	df := c.Read()
	if df == nil || df.ProjectID != "p1" {
		t.Fatalf("got %+v, want bundled fallback", df)
	}
	if c.Metrics().Source != datafile.SourceEmbedded {
		t.Fatalf("source = %v, want embedded", c.Metrics().Source)
	}
}

func TestController_StreamBeforeTimeoutWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"type":"datafile","data":{"projectId":"from-stream","definitions":{},"segments":{},"configUpdatedAt":500}}` + "\n"))
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	path := writeBundledFixture(t, "vf_abc", 100)

	c := New(Options{
		SDKKey:      "vf_abc",
		BaseURL:     srv.URL,
		BundledPath: path,
		InitTimeout: 5 * time.Second,
		HTTPClient:  srv.Client(),
	})
	defer c.Shutdown()

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	df := c.Read()
	if df == nil || df.ProjectID != "from-stream" {
		t.Fatalf("got %+v, want stream source to win", df)
	}
}

func TestController_InitializeIsSingleFlighted(t *testing.T) {
	var connects atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		connects.Add(1)
		flusher := w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"type":"datafile","data":{"projectId":"p1","definitions":{},"segments":{},"configUpdatedAt":1}}` + "\n"))
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	path := writeBundledFixture(t, "vf_abc", 1)
	c := New(Options{
		SDKKey:      "vf_abc",
		BaseURL:     srv.URL,
		BundledPath: path,
		InitTimeout: 2 * time.Second,
		HTTPClient:  srv.Client(),
	})
	defer c.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Initialize(context.Background())
		}()
	}
	wg.Wait()

	if connects.Load() != 1 {
		t.Fatalf("connects = %d, want exactly 1 (single-flighted)", connects.Load())
	}
}

func TestController_TryUpdateRejectsStaleOrEqual(t *testing.T) {
	path := writeBundledFixture(t, "vf_abc", 1)
	c := New(Options{SDKKey: "vf_abc", BundledPath: path, BaseURL: "http://unused.invalid"})

	newer := &datafile.Datafile{ProjectID: "a", ConfigUpdatedAt: datafile.NewFreshness(100)}
	older := &datafile.Datafile{ProjectID: "b", ConfigUpdatedAt: datafile.NewFreshness(50)}
	equal := &datafile.Datafile{ProjectID: "c", ConfigUpdatedAt: datafile.NewFreshness(100)}

	if !c.tryUpdate(newer, originCaller) {
		t.Fatal("expected first update to apply")
	}
	if c.tryUpdate(older, originCaller) {
		t.Fatal("older update must be rejected")
	}
	if c.tryUpdate(equal, originCaller) {
		t.Fatal("equal timestamp must be rejected (strict greater-than policy)")
	}
	if c.Read().ProjectID != "a" {
		t.Fatalf("got %q, want the original update to remain in effect", c.Read().ProjectID)
	}
}

func TestController_BuildStepUsesOneShotResolution(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"projectId":"build","definitions":{},"segments":{}}`))
	}))
	defer srv.Close()

	c := New(Options{
		SDKKey:     "vf_abc",
		BaseURL:    srv.URL,
		BuildStep:  true,
		HTTPClient: srv.Client(),
	})
	defer c.Shutdown()

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if df := c.Read(); df == nil || df.ProjectID != "build" {
		t.Fatalf("got %+v", df)
	}
	if hits.Load() != 1 {
		t.Fatalf("hits = %d, want exactly 1 (one-shot, no persistent connection)", hits.Load())
	}
}

func TestController_BuildStepPrefersBundledOverRemote(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"projectId":"from-remote","definitions":{},"segments":{}}`))
	}))
	defer srv.Close()

	path := writeBundledFixture(t, "vf_abc", 1)
	c := New(Options{
		SDKKey:      "vf_abc",
		BaseURL:     srv.URL,
		BundledPath: path,
		BuildStep:   true,
		HTTPClient:  srv.Client(),
	})
	defer c.Shutdown()

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if df := c.Read(); df == nil || df.ProjectID != "p1" {
		t.Fatalf("got %+v, want bundled datafile to win over remote", df)
	}
	if hits.Load() != 0 {
		t.Fatalf("hits = %d, want remote never contacted when bundled is present", hits.Load())
	}
	if c.Metrics().Source != datafile.SourceEmbedded {
		t.Fatalf("source = %v, want embedded", c.Metrics().Source)
	}
}

func TestController_PollingFetchBeforeTimeoutWins(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"projectId":"from-polling","definitions":{},"segments":{},"configUpdatedAt":500}`))
	}))
	defer srv.Close()

	path := writeBundledFixture(t, "vf_abc", 100)

	c := New(Options{
		SDKKey:          "vf_abc",
		BaseURL:         srv.URL,
		BundledPath:     path,
		InitTimeout:     5 * time.Second,
		PollingInterval: 30 * time.Second,
		HTTPClient:      srv.Client(),
	})
	defer c.Shutdown()

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	df := c.Read()
	if df == nil || df.ProjectID != "from-polling" {
		t.Fatalf("got %+v, want the first poll to win over the bundled fallback", df)
	}
	if c.Metrics().Source != datafile.SourceInMemory {
		t.Fatalf("source = %v, want in-memory", c.Metrics().Source)
	}
}

func TestController_PollingFallsBackToBundledOnInitTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.Write([]byte(`{"projectId":"from-polling","definitions":{},"segments":{},"configUpdatedAt":500}`))
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	path := writeBundledFixture(t, "vf_abc", 100)

	c := New(Options{
		SDKKey:          "vf_abc",
		BaseURL:         srv.URL,
		BundledPath:     path,
		InitTimeout:     200 * time.Millisecond,
		PollingInterval: 30 * time.Second,
		HTTPClient:      srv.Client(),
	})
	defer c.Shutdown()

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if c.State() != StateReady {
		t.Fatalf("state = %v, want ready", c.State())
	}
	df := c.Read()
	if df == nil || df.ProjectID != "p1" {
		t.Fatalf("got %+v, want bundled fallback while the slow first poll is still outstanding", df)
	}
	if c.Metrics().Source != datafile.SourceEmbedded {
		t.Fatalf("source = %v, want embedded", c.Metrics().Source)
	}
}

func TestController_ShutdownIsIdempotent(t *testing.T) {
	path := writeBundledFixture(t, "vf_abc", 1)
	c := New(Options{SDKKey: "vf_abc", BundledPath: path, BaseURL: "http://unused.invalid", InitTimeout: 50 * time.Millisecond})
	_ = c.Initialize(context.Background())
	c.Shutdown()
	c.Shutdown()
}
