package datafile

import (
	"encoding/json"
	"testing"
)

func TestEnvironmentConfig_UnmarshalPaused(t *testing.T) {
	var e EnvironmentConfig
	if err := json.Unmarshal([]byte(`2`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Kind != EnvPaused || e.VariantIndex != 2 {
		t.Fatalf("got %+v, want paused index 2", e)
	}
}

func TestEnvironmentConfig_UnmarshalReuse(t *testing.T) {
	var e EnvironmentConfig
	if err := json.Unmarshal([]byte(`{"reuse":"production"}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Kind != EnvReuse || e.ReuseEnvironment != "production" {
		t.Fatalf("got %+v, want reuse of production", e)
	}
}

func TestEnvironmentConfig_UnmarshalActive(t *testing.T) {
	raw := `{
		"targets": [{}, {"user": {"id": ["u1"]}}],
		"rules": [{"id": "r1", "conditions": [{"lhs": ["user", "plan"], "op": "eq", "rhs": "pro"}], "outcome": 0}],
		"fallthrough": 1
	}`
	var e EnvironmentConfig
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Kind != EnvActive {
		t.Fatalf("got kind %v, want active", e.Kind)
	}
	if len(e.Targets) != 2 || len(e.Rules) != 1 {
		t.Fatalf("got %+v, want 2 targets and 1 rule", e)
	}
	if e.Targets[1]["user"]["id"][0] != "u1" {
		t.Fatalf("targets[1] = %+v, want user.id = [u1]", e.Targets[1])
	}
	if e.Fallthrough.Kind != OutcomeIndex || e.Fallthrough.VariantIndex != 1 {
		t.Fatalf("fallthrough = %+v, want index 1", e.Fallthrough)
	}
}

func TestOutcome_UnmarshalSplit(t *testing.T) {
	raw := `{"type": "split", "base": "user.id", "weights": [30, 70], "defaultVariant": 0}`
	var o Outcome
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.Kind != OutcomeSplit || o.Split == nil {
		t.Fatalf("got %+v, want split outcome", o)
	}
	if o.Split.Base != "user.id" || len(o.Split.Weights) != 2 {
		t.Fatalf("split = %+v", o.Split)
	}
}

func TestSegmentOutcome_UnmarshalFullAndSplit(t *testing.T) {
	var full SegmentOutcome
	if err := json.Unmarshal([]byte(`true`), &full); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if full.Kind != SegmentFullMatch {
		t.Fatalf("got %+v, want full match", full)
	}

	var split SegmentOutcome
	if err := json.Unmarshal([]byte(`{"type":"split","base":"user.id","passPromille":50000}`), &split); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if split.Kind != SegmentSplitMatch || split.Split.PassPromille != 50000 {
		t.Fatalf("got %+v", split)
	}
}

func TestTargetList_Matches(t *testing.T) {
	tl := TargetList{
		"user": {"id": {"u1", "u2"}},
	}
	if !tl.Matches(map[string]map[string]string{"user": {"id": "u2"}}) {
		t.Fatal("expected match on u2")
	}
	if tl.Matches(map[string]map[string]string{"user": {"id": "u3"}}) {
		t.Fatal("expected no match on u3")
	}
	if tl.Matches(nil) {
		t.Fatal("expected no match on nil attrs")
	}
}

func TestTargetList_UnmarshalsBareMapping(t *testing.T) {
	var tl TargetList
	if err := json.Unmarshal([]byte(`{"user":{"id":["u1"]}}`), &tl); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tl["user"]["id"][0] != "u1" {
		t.Fatalf("got %+v", tl)
	}
}

func TestSegmentOutcome_UnmarshalsNumericFullMatch(t *testing.T) {
	var o SegmentOutcome
	if err := json.Unmarshal([]byte(`1`), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o.Kind != SegmentFullMatch {
		t.Fatalf("got %+v, want full match for numeric constant 1", o)
	}
}
