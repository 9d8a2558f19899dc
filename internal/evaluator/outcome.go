package evaluator

import (
	"github.com/vercel/flags-sub000/internal/datafile"
	"github.com/vercel/flags-sub000/internal/hash"
)

// resolveOutcome turns an Outcome into a concrete variant index. A
// plain index outcome passes through; a split outcome hashes the entity's
// base attribute and buckets it using the flag's seed. A missing base
// attribute falls back to the split's configured default variant, same as
// an all-zero-weights split.
func resolveOutcome(o datafile.Outcome, ctx Context, seed uint32) (int, datafile.OutcomeType) {
	switch o.Kind {
	case datafile.OutcomeIndex:
		return o.VariantIndex, datafile.OutcomeTypeValue
	case datafile.OutcomeSplit:
		base, present := ctx.lookup(splitPath(o.Split.Base))
		if !present {
			return o.Split.DefaultVariant, datafile.OutcomeTypeSplit
		}
		idx := hash.WeightedIndex(base, seed, o.Split.Weights, o.Split.DefaultVariant)
		return idx, datafile.OutcomeTypeSplit
	default:
		return 0, datafile.OutcomeTypeValue
	}
}
