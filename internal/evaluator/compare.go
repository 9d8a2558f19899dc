package evaluator

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// regexCache memoizes compiled patterns across evaluations: a rule that
// fires on every request must not recompile its regex every time.
var regexCache sync.Map // map[string]*regexp.Regexp

func compileCached(pattern string) (*regexp.Regexp, error) {
	if v, ok := regexCache.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}

// regexSpec is the rhs shape for regex/!regex: { type: regex, pattern, flags }.
type regexSpec struct {
	Pattern string
	Flags   string
}

func parseRegexSpec(rhs any) (regexSpec, bool) {
	m, ok := rhs.(map[string]any)
	if !ok {
		return regexSpec{}, false
	}
	pattern, ok := m["pattern"].(string)
	if !ok {
		return regexSpec{}, false
	}
	flags, _ := m["flags"].(string)
	return regexSpec{Pattern: pattern, Flags: flags}, true
}

// compare evaluates a single comparator against an actual value (present
// in the attribute map) and the rule's expected rhs. "ex"/"!ex" are the
// only comparators that run when actual is absent; "!eq" and
// "containsNoneOf" are the only others that still return true on an
// absent attribute — every remaining comparator treats an absent
// attribute as a non-match.
func compare(comparator string, actual string, present bool, rhs any) (bool, error) {
	switch comparator {
	case "ex":
		return present, nil
	case "!ex":
		return !present, nil
	case "!eq":
		if !present {
			return true, nil
		}
		return actual != toString(rhs), nil
	case "containsNoneOf":
		if !present {
			return true, nil
		}
	}

	if !present {
		return false, nil
	}

	switch comparator {
	case "eq":
		return actual == toString(rhs), nil
	case "oneOf":
		return contains(toStringSlice(rhs), actual), nil
	case "!oneOf":
		return !contains(toStringSlice(rhs), actual), nil
	case "containsAllOf":
		actualSet := strings.Fields(actual)
		for _, want := range toStringSlice(rhs) {
			if !contains(actualSet, want) {
				return false, nil
			}
		}
		return true, nil
	case "containsAnyOf":
		actualSet := strings.Fields(actual)
		for _, want := range toStringSlice(rhs) {
			if contains(actualSet, want) {
				return true, nil
			}
		}
		return false, nil
	case "containsNoneOf":
		actualSet := strings.Fields(actual)
		for _, want := range toStringSlice(rhs) {
			if contains(actualSet, want) {
				return false, nil
			}
		}
		return true, nil
	case "startsWith":
		return strings.HasPrefix(actual, toString(rhs)), nil
	case "!startsWith":
		return !strings.HasPrefix(actual, toString(rhs)), nil
	case "endsWith":
		return strings.HasSuffix(actual, toString(rhs)), nil
	case "!endsWith":
		return !strings.HasSuffix(actual, toString(rhs)), nil
	case "gt", "gte", "lt", "lte":
		return compareOrdered(comparator, actual, rhs)
	case "regex", "!regex":
		spec, ok := parseRegexSpec(rhs)
		if !ok {
			return false, nil
		}
		pattern := spec.Pattern
		if spec.Flags != "" {
			pattern = fmt.Sprintf("(?%s)%s", spec.Flags, spec.Pattern)
		}
		re, err := compileCached(pattern)
		if err != nil {
			return false, nil
		}
		matched := re.MatchString(actual)
		if comparator == "!regex" {
			return !matched, nil
		}
		return matched, nil
	case "before", "after":
		return compareDate(comparator, actual, rhs)
	default:
		return false, fmt.Errorf("evaluator: unknown comparator %q", comparator)
	}
}

// compareOrdered implements gt/gte/lt/lte: numeric comparison when both
// sides parse as numbers, lexicographic string comparison otherwise.
func compareOrdered(comparator, actual string, rhs any) (bool, error) {
	a, aErr := parseFloat(actual)
	b, bErr := parseFloat(toString(rhs))
	if aErr == nil && bErr == nil {
		switch comparator {
		case "gt":
			return a > b, nil
		case "gte":
			return a >= b, nil
		case "lt":
			return a < b, nil
		case "lte":
			return a <= b, nil
		}
	}

	rs := toString(rhs)
	switch comparator {
	case "gt":
		return actual > rs, nil
	case "gte":
		return actual >= rs, nil
	case "lt":
		return actual < rs, nil
	case "lte":
		return actual <= rs, nil
	}
	return false, nil
}

func compareDate(comparator, actual string, rhs any) (bool, error) {
	a, err := time.Parse(time.RFC3339, actual)
	if err != nil {
		return false, nil
	}
	b, err := time.Parse(time.RFC3339, toString(rhs))
	if err != nil {
		return false, nil
	}
	if comparator == "before" {
		return a.Before(b), nil
	}
	return a.After(b), nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
