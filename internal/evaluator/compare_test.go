package evaluator

import "testing"

func TestCompare_StringComparators(t *testing.T) {
	cases := []struct {
		op      string
		actual  string
		present bool
		rhs     any
		want    bool
	}{
		{"eq", "pro", true, "pro", true},
		{"eq", "pro", true, "free", false},
		{"!eq", "pro", true, "free", true},
		{"oneOf", "pro", true, []any{"pro", "enterprise"}, true},
		{"!oneOf", "pro", true, []any{"free"}, true},
		{"containsAllOf", "a b c", true, []any{"a", "c"}, true},
		{"containsAllOf", "a b", true, []any{"a", "c"}, false},
		{"containsAnyOf", "a b", true, []any{"z", "b"}, true},
		{"containsNoneOf", "a b", true, []any{"z", "y"}, true},
		{"startsWith", "hello world", true, "hello", true},
		{"!startsWith", "hello world", true, "bye", true},
		{"endsWith", "hello world", true, "world", true},
		{"!endsWith", "hello world", true, "hello", true},
		{"gt", "5", true, float64(3), true},
		{"gte", "3", true, float64(3), true},
		{"lt", "2", true, float64(3), true},
		{"lte", "3", true, float64(3), true},
		{"ex", "", true, nil, true},
		{"ex", "", false, nil, false},
		{"!ex", "", false, nil, true},
	}

	for _, c := range cases {
		got, err := compare(c.op, c.actual, c.present, c.rhs)
		if err != nil {
			t.Fatalf("compare(%q): unexpected error: %v", c.op, err)
		}
		if got != c.want {
			t.Errorf("compare(%q, %q, %v, %v) = %v, want %v", c.op, c.actual, c.present, c.rhs, got, c.want)
		}
	}
}

func TestCompare_AbsentAttributeNonExFails(t *testing.T) {
	got, err := compare("eq", "", false, "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Fatal("non-ex comparator on an absent attribute must not match")
	}
}

func TestCompare_AbsentAttributeExceptions(t *testing.T) {
	// !eq and containsNoneOf are the two comparators (besides ex/!ex) that
	// return true, not false, when the attribute is absent.
	if got, _ := compare("!eq", "", false, "anything"); !got {
		t.Fatal("!eq on an absent attribute must match")
	}
	if got, _ := compare("containsNoneOf", "", false, []any{"a"}); !got {
		t.Fatal("containsNoneOf on an absent attribute must match")
	}
	if got, _ := compare("!oneOf", "", false, []any{"a"}); got {
		t.Fatal("!oneOf on an absent attribute must not match")
	}
}

func TestCompare_Regex(t *testing.T) {
	got, err := compare("regex", "user-123", true, map[string]any{"pattern": `^user-\d+$`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Fatal("expected regex match")
	}

	got, err = compare("!regex", "user-123", true, map[string]any{"pattern": `^admin-`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Fatal("expected !regex to match when pattern doesn't")
	}
}

func TestCompare_RegexCaseInsensitiveFlag(t *testing.T) {
	got, _ := compare("regex", "USER-123", true, map[string]any{"pattern": `^user-\d+$`, "flags": "i"})
	if !got {
		t.Fatal("expected case-insensitive regex match via flags")
	}
}

func TestCompare_RegexInvalidPattern(t *testing.T) {
	got, err := compare("regex", "x", true, map[string]any{"pattern": `(unclosed`})
	if err != nil {
		t.Fatalf("invalid regex must not error, just fail the condition: %v", err)
	}
	if got {
		t.Fatal("invalid regex pattern must not match")
	}
}

func TestCompare_OrderedLexicographicFallback(t *testing.T) {
	got, err := compare("gt", "banana", true, "apple")
	if err != nil || !got {
		t.Fatalf("compare(gt, lexicographic) = %v, %v, want true, nil", got, err)
	}
	got, err = compare("lt", "apple", true, "banana")
	if err != nil || !got {
		t.Fatalf("compare(lt, lexicographic) = %v, %v, want true, nil", got, err)
	}
}

func TestCompare_DateComparators(t *testing.T) {
	got, err := compare("before", "2024-01-01T00:00:00Z", true, "2024-06-01T00:00:00Z")
	if err != nil || !got {
		t.Fatalf("compare(before) = %v, %v, want true, nil", got, err)
	}
	got, err = compare("after", "2024-06-01T00:00:00Z", true, "2024-01-01T00:00:00Z")
	if err != nil || !got {
		t.Fatalf("compare(after) = %v, %v, want true, nil", got, err)
	}
}
