package flags

import (
	"context"
	"time"

	"github.com/vercel/flags-sub000/internal/controller"
	"github.com/vercel/flags-sub000/internal/datafile"
	"github.com/vercel/flags-sub000/internal/evaluator"
	"github.com/vercel/flags-sub000/internal/usage"
)

// Evaluate resolves flagKey against the current datafile for entities,
// lazily initializing the Controller first if needed. defaultValue is
// variadic so its absence is distinguishable from an explicit nil: a
// missing-definitions condition with no defaultValue returns an error
// instead of a result — this is the only place the Facade rejects.
func (c *Client) Evaluate(ctx context.Context, flagKey string, entities Context, defaultValue ...any) (datafile.EvaluationResult, error) {
	var dv any
	hasDefault := len(defaultValue) > 0
	if hasDefault {
		dv = defaultValue[0]
	}

	wasReady := c.ctrl.State() == controller.StateReady
	start := time.Now()

	if err := c.ctrl.Initialize(ctx); err != nil {
		// Only a context cancellation or a hard build-step failure
		// reaches here; recoverable source errors resolve Initialize
		// successfully with whatever fallback is available.
		if hasDefault {
			return datafile.EvaluationResult{
				Value:        dv,
				Reason:       datafile.ReasonError,
				ErrorMessage: err.Error(),
			}, nil
		}
		return datafile.EvaluationResult{}, &NoDefinitionsAvailableError{Message: err.Error()}
	}

	readStart := time.Now()
	df, cacheStatus := c.ctrl.ReadWithStatus()
	readDur := time.Since(readStart)

	obs := usage.ReadObservation{
		CacheStatus:      cacheStatus,
		CacheAction:      usage.CacheActionNone,
		CacheIsFirstRead: cacheStatus == datafile.CacheMISS,
		CacheIsBlocking:  !wasReady,
	}

	metrics := c.ctrl.Metrics()
	obs.ConfigOrigin = metrics.Source

	if df.Empty() {
		msg := "No flag definitions available"
		obs.Duration = time.Since(start)
		c.usage.Record(obs)
		if hasDefault {
			return datafile.EvaluationResult{
				Value:        dv,
				Reason:       datafile.ReasonError,
				ErrorMessage: msg,
			}, nil
		}
		return datafile.EvaluationResult{}, &NoDefinitionsAvailableError{Message: msg}
	}

	obs.ConfigUpdatedAt = df.ConfigUpdatedAt

	def, ok := df.Definitions[flagKey]
	if !ok {
		obs.Duration = time.Since(start)
		c.usage.Record(obs)
		metrics.CacheStatus = cacheStatus
		metrics.ReadMs = readDur
		return datafile.EvaluationResult{
			Value:     dv,
			Reason:    datafile.ReasonError,
			ErrorCode: datafile.ErrorCodeFlagNotFound,
			Metrics:   metrics,
		}, nil
	}

	evalStart := time.Now()
	result := evaluator.Evaluate(def, df.Environment, entities, df.Segments, dv)
	evalDur := time.Since(evalStart)

	metrics.CacheStatus = cacheStatus
	metrics.EvaluationMs = evalDur
	metrics.ReadMs = readDur
	result.Metrics = metrics

	obs.Duration = time.Since(start)
	c.usage.Record(obs)

	c.log.Debug().
		Str("flagKey", flagKey).
		Str("reason", string(result.Reason)).
		Dur("evaluationMs", evalDur).
		Dur("readMs", readDur).
		Msg("evaluate")

	return result, nil
}
