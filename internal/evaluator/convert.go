package evaluator

import (
	"fmt"
	"strconv"
)

// toString renders a comparator's rhs (decoded from JSON as string,
// float64, bool, or nil) as the string form compare() works with.
func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// toStringSlice renders a comparator's rhs as a list of strings, for the
// set-membership comparators (oneOf, containsAnyOf, ...).
func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, toString(e))
		}
		return out
	case []string:
		return t
	case string:
		return []string{t}
	default:
		return nil
	}
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
