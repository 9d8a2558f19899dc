package datafile

import "time"

// Reason explains why a flag evaluation resolved the way it did.
// It is a closed, 5-value enum: anything that isn't a clean resolution is
// "error", with ErrorMessage/ErrorCode on EvaluationResult carrying detail.
type Reason string

const (
	ReasonPaused      Reason = "paused"
	ReasonTargetMatch Reason = "target_match"
	ReasonRuleMatch   Reason = "rule_match"
	ReasonFallthrough Reason = "fallthrough"
	ReasonError       Reason = "error"
)

// ErrorCodeFlagNotFound is the EvaluationResult.ErrorCode set when a flag
// key has no definition in the current datafile. It is always
// returned, never thrown.
const ErrorCodeFlagNotFound = "FLAG_NOT_FOUND"

// OutcomeType records whether the matched outcome was a plain variant
// index or a hashed split.
type OutcomeType string

const (
	OutcomeTypeValue OutcomeType = "value"
	OutcomeTypeSplit OutcomeType = "split"
)

// EvaluationResult is the full outcome of evaluating one flag for one
// entity context. Value holds the caller-facing variant on success;
// ErrorMessage/ErrorCode are populated when Reason is ReasonError.
type EvaluationResult struct {
	Value        any         `json:"value"`
	VariantIndex int         `json:"variantIndex,omitempty"`
	Reason       Reason      `json:"reason"`
	OutcomeType  OutcomeType `json:"outcomeType,omitempty"`
	RuleID       string      `json:"ruleId,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	ErrorCode    string      `json:"errorCode,omitempty"`

	// Metrics is filled in by the Client Facade after the Evaluator
	// returns, since the pure evaluator has no visibility into controller
	// state.
	Metrics Metrics `json:"metrics"`
}

// Source identifies where the datafile currently in effect came from
// (Datafile.metrics.source).
type Source string

const (
	SourceInMemory Source = "in-memory"
	SourceEmbedded Source = "embedded"
	SourceRemote   Source = "remote"
)

// CacheStatus reflects whether read() returned an already-installed
// datafile, is seeing one for the first time, or is serving a datafile
// known to be behind a disconnected stream.
type CacheStatus string

const (
	CacheHIT   CacheStatus = "HIT"
	CacheMISS  CacheStatus = "MISS"
	CacheStale CacheStatus = "STALE"
)

// ConnectionState is the stream's operational substate.
type ConnectionState string

const (
	ConnStateConnected    ConnectionState = "connected"
	ConnStateDisconnected ConnectionState = "disconnected"
)

// Mode is the Controller's active resolution strategy.
type Mode string

const (
	ModeStreaming Mode = "streaming"
	ModePolling   Mode = "polling"
	ModeBuild     Mode = "build"
	ModeOffline   Mode = "offline"
)

// Metrics is a point-in-time snapshot of the Controller's health, exposed
// through the Client Facade for diagnostics and attached to every
// EvaluationResult.
type Metrics struct {
	Source          Source          `json:"source"`
	CacheStatus     CacheStatus     `json:"cacheStatus"`
	ConnectionState ConnectionState `json:"connectionState"`
	Mode            Mode            `json:"mode"`
	LastUpdatedAt   Freshness       `json:"lastUpdatedAt"`

	// EvaluationMs and ReadMs are only set on the Metrics attached to an
	// EvaluationResult; the standalone Metrics returned by Client.Metrics has
	// no single evaluation to time and leaves both zero.
	EvaluationMs time.Duration `json:"evaluationMs"`
	ReadMs       time.Duration `json:"readMs"`
}
