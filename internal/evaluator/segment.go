package evaluator

import (
	"fmt"
	"strings"

	"github.com/vercel/flags-sub000/internal/datafile"
	"github.com/vercel/flags-sub000/internal/hash"
)

// segmentMatches reports whether ctx is a member of the segment named key.
// Include short-circuits to true, Exclude short-circuits to false, and
// otherwise the first matching rule decides — a full match admits
// unconditionally, a split rule admits only the configured fraction of
// entities, hashed on its base attribute.
func segmentMatches(key string, segs map[string]*datafile.Segment, ctx Context) (bool, error) {
	seg, ok := segs[key]
	if !ok {
		return false, fmt.Errorf("evaluator: unknown segment %q", key)
	}

	if seg.Include != nil && seg.Include.Matches(ctx) {
		return true, nil
	}
	if seg.Exclude != nil && seg.Exclude.Matches(ctx) {
		return false, nil
	}

	for _, rule := range seg.Rules {
		ok, err := matchAllConditions(rule.Conditions, ctx, segs)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		switch rule.Outcome.Kind {
		case datafile.SegmentFullMatch:
			return true, nil
		case datafile.SegmentSplitMatch:
			base, present := ctx.lookup(splitPath(rule.Outcome.Split.Base))
			if !present {
				return false, nil
			}
			return hash.PromilleMatch(base, 0, rule.Outcome.Split.PassPromille), nil
		}
	}
	return false, nil
}

// splitPath turns a "kind.attr" base reference into the two-element path
// Context.lookup expects.
func splitPath(base string) []string {
	return strings.SplitN(base, ".", 2)
}
