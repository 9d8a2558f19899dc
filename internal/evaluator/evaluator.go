// Package evaluator implements deterministic flag resolution: targeting,
// ordered rule matching, segment membership, and weighted-split variant
// assignment. Evaluate is a pure function of its inputs — no I/O, no
// logging, no panics for expected failures — so identical inputs always
// produce the same EvaluationResult across processes and languages.
package evaluator

import (
	"github.com/vercel/flags-sub000/internal/datafile"
)

// maxReuseDepth bounds the environment-reuse chain so a misconfigured
// datafile (A reuses B, B reuses A) fails fast instead of looping forever.
const maxReuseDepth = 8

// Evaluate resolves definition against environment for the given entity
// context and segment set. It never does I/O and never panics on an
// expected failure; unrecoverable configuration problems (missing
// environment, reuse cycle, out-of-range variant index) come back as a
// ReasonError result carrying defaultValue.
func Evaluate(definition *datafile.FlagDefinition, environment string, entities Context, segments map[string]*datafile.Segment, defaultValue any) datafile.EvaluationResult {
	env, pinnedReason, err := resolveEnvironment(definition, environment, segments, 0)
	if err != nil {
		return datafile.EvaluationResult{
			Reason:       datafile.ReasonError,
			ErrorMessage: err.Error(),
			Value:        defaultValue,
		}
	}
	if pinnedReason == "" && env == nil {
		return datafile.EvaluationResult{
			Reason:       datafile.ReasonError,
			ErrorMessage: "environment not configured: " + environment,
			Value:        defaultValue,
		}
	}

	var idx int
	var outcomeType datafile.OutcomeType
	var ruleID string
	reason := pinnedReason

	if pinnedReason == datafile.ReasonPaused {
		idx, outcomeType = resolveOutcome(env.Fallthrough, entities, definition.EffectiveSeed())
	} else {
		idx, outcomeType, ruleID, reason = evaluateActive(env, entities, segments, definition.EffectiveSeed())
	}

	value, found := definition.VariantAt(idx)
	if !found {
		return datafile.EvaluationResult{
			Reason:       datafile.ReasonError,
			ErrorMessage: "resolved variant index out of range",
			Value:        defaultValue,
		}
	}

	return datafile.EvaluationResult{
		Value:        value,
		VariantIndex: idx,
		OutcomeType:  outcomeType,
		Reason:       reason,
		RuleID:       ruleID,
	}
}

// resolveEnvironment follows paused/reuse/active config for environment,
// returning the terminal active config to evaluate against. A missing
// environment yields (nil, "", nil); the caller treats that as a generic
// error — an internal inconsistency in the datafile, not a missing flag.
func resolveEnvironment(flag *datafile.FlagDefinition, environment string, segs map[string]*datafile.Segment, depth int) (*datafile.EnvironmentConfig, datafile.Reason, error) {
	if depth > maxReuseDepth {
		return nil, "", errReuseCycle(environment)
	}

	cfg, ok := flag.Environments[environment]
	if !ok {
		if depth > 0 {
			return nil, "", errReuseTargetMissing(environment)
		}
		return nil, "", nil
	}

	switch cfg.Kind {
	case datafile.EnvPaused:
		pinned := &datafile.EnvironmentConfig{
			Kind:        datafile.EnvActive,
			Fallthrough: datafile.Outcome{Kind: datafile.OutcomeIndex, VariantIndex: cfg.VariantIndex},
		}
		return pinned, datafile.ReasonPaused, nil
	case datafile.EnvReuse:
		// Reuse defers entirely to the target environment's config and
		// reason: from the caller's perspective this flag simply behaves
		// like it does in cfg.ReuseEnvironment.
		return resolveEnvironment(flag, cfg.ReuseEnvironment, segs, depth+1)
	default:
		// Reason is determined later by evaluateActive (target/rule/
		// fallthrough); this return value is never read directly.
		return cfg, "", nil
	}
}

func evaluateActive(env *datafile.EnvironmentConfig, ctx Context, segs map[string]*datafile.Segment, seed uint32) (idx int, outcomeType datafile.OutcomeType, ruleID string, reason datafile.Reason) {
	for i, target := range env.Targets {
		if target.Matches(ctx) {
			return i, datafile.OutcomeTypeValue, "", datafile.ReasonTargetMatch
		}
	}

	for _, rule := range env.Rules {
		matched, err := matchAllConditions(rule.Conditions, ctx, segs)
		if err != nil || !matched {
			continue
		}
		idx, outcomeType = resolveOutcome(rule.Outcome, ctx, seed)
		return idx, outcomeType, rule.ID, datafile.ReasonRuleMatch
	}

	idx, outcomeType = resolveOutcome(env.Fallthrough, ctx, seed)
	return idx, outcomeType, "", datafile.ReasonFallthrough
}
