package evaluator

import (
	"fmt"
	"strings"

	"github.com/vercel/flags-sub000/internal/datafile"
)

// Context is the evaluation-time set of entity attributes, keyed by entity
// kind (e.g. "user") then attribute name. It mirrors datafile.TargetList's
// shape so direct targets and rule conditions read the same data.
type Context map[string]map[string]string

func (c Context) lookup(path []string) (string, bool) {
	if len(path) != 2 {
		return "", false
	}
	entity, ok := c[path[0]]
	if !ok {
		return "", false
	}
	v, ok := entity[path[1]]
	return v, ok
}

// matchCondition evaluates one condition against ctx. Segment conditions
// are resolved recursively through segments; segs may be nil only when no
// condition in the current evaluation references a segment.
//
// A segment condition's rhs either names a single segment (eq/!eq) or a
// list of segments under ONE_OF/NOT_ONE_OF — matching ANY listed segment
// for ONE_OF, matching NONE of them for NOT_ONE_OF.
func matchCondition(cond datafile.Condition, ctx Context, segs map[string]*datafile.Segment) (bool, error) {
	if cond.IsSegmentCondition() {
		switch canonicalSegmentComparator(cond.Comparator) {
		case "eq":
			member, err := segmentMatches(toString(cond.RHS), segs, ctx)
			if err != nil {
				return false, err
			}
			return member, nil
		case "!eq":
			member, err := segmentMatches(toString(cond.RHS), segs, ctx)
			if err != nil {
				return false, err
			}
			return !member, nil
		case "oneOf":
			return matchAnySegment(toStringSlice(cond.RHS), segs, ctx)
		case "!oneOf":
			any, err := matchAnySegment(toStringSlice(cond.RHS), segs, ctx)
			if err != nil {
				return false, err
			}
			return !any, nil
		default:
			return false, fmt.Errorf("evaluator: unsupported comparator %q for segment condition", cond.Comparator)
		}
	}

	actual, present := ctx.lookup(cond.LHS)
	return compare(cond.Comparator, actual, present, cond.RHS)
}

// canonicalSegmentComparator normalizes the segment-condition comparator
// vocabulary, which mixes case with the entity-attribute comparators in
// wire data (e.g. "ONE_OF"/"NOT_ONE_OF" alongside "eq"/"!eq").
func canonicalSegmentComparator(comparator string) string {
	switch strings.ToUpper(comparator) {
	case "", "EQ":
		return "eq"
	case "!EQ", "NEQ":
		return "!eq"
	case "ONE_OF", "ONEOF":
		return "oneOf"
	case "NOT_ONE_OF", "!ONE_OF", "!ONEOF":
		return "!oneOf"
	default:
		return comparator
	}
}

func matchAnySegment(names []string, segs map[string]*datafile.Segment, ctx Context) (bool, error) {
	for _, name := range names {
		member, err := segmentMatches(name, segs, ctx)
		if err != nil {
			return false, err
		}
		if member {
			return true, nil
		}
	}
	return false, nil
}

// matchAllConditions reports whether every condition in conds matches ctx.
// An empty condition list matches unconditionally (the common shape for a
// catch-all rule).
func matchAllConditions(conds []datafile.Condition, ctx Context, segs map[string]*datafile.Segment) (bool, error) {
	for _, c := range conds {
		ok, err := matchCondition(c, ctx, segs)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
