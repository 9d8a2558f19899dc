// Package config provides SDK-wide default options loaded from environment
// variables, with caller-supplied Options overriding them. It uses viper
// for the same environment-variable-first loading pattern used elsewhere
// in this codebase.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults are the SDK-wide knobs a caller's Options may override.
type Defaults struct {
	// BaseURL is the root of the flags edge API.
	BaseURL string

	// InitTimeout bounds how long the Controller waits for the first
	// streamed config before falling back to the bundled datafile.
	InitTimeout time.Duration

	// PollingInterval is the default period between polling fetches when
	// no caller override is given. Must be >= 30s when used.
	PollingInterval time.Duration

	// IngestBufferSize bounds how many usage events the usage tracker
	// buffers before a forced flush.
	IngestBufferSize int

	// BuildStep forces the Controller into its one-shot, no-connection
	// build-time resolution path.
	BuildStep bool
}

const (
	defaultBaseURL         = "https://flags.vercel.com"
	defaultInitTimeout     = 3 * time.Second
	defaultPollingInterval = 60 * time.Second
	defaultIngestBuffer    = 100
)

// Load reads SDK defaults from the environment. Unset variables fall back
// to the constants above; nothing here is required for the SDK to start.
func Load() Defaults {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvPrefix("FLAGS")
	v.SetDefault("BASE_URL", defaultBaseURL)
	v.SetDefault("INIT_TIMEOUT_MS", int(defaultInitTimeout/time.Millisecond))
	v.SetDefault("POLLING_INTERVAL_MS", int(defaultPollingInterval/time.Millisecond))
	v.SetDefault("INGEST_BUFFER_SIZE", defaultIngestBuffer)

	return Defaults{
		BaseURL:          strings.TrimSpace(v.GetString("BASE_URL")),
		InitTimeout:      time.Duration(v.GetInt("INIT_TIMEOUT_MS")) * time.Millisecond,
		PollingInterval:  time.Duration(v.GetInt("POLLING_INTERVAL_MS")) * time.Millisecond,
		IngestBufferSize: v.GetInt("INGEST_BUFFER_SIZE"),
		BuildStep:        isBuildStep(v),
	}
}

// isBuildStep detects the handful of environment signals framework build
// steps set: CI=1, NEXT_PHASE=phase-production-build — both read
// unprefixed, since they're process-wide framework conventions, not this
// SDK's own FLAGS_-prefixed settings — or the SDK's own explicit override.
func isBuildStep(v *viper.Viper) bool {
	if strings.TrimSpace(os.Getenv("CI")) == "1" {
		return true
	}
	if os.Getenv("NEXT_PHASE") == "phase-production-build" {
		return true
	}
	return v.GetBool("FORCE_BUILD_STEP")
}
