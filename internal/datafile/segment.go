package datafile

import (
	"encoding/json"
	"fmt"
)

// Segment is a named, reusable set of matching rules referenced from flag
// conditions via the "segment" LHS. Include/Exclude short-circuit
// the rule list: an explicit include always matches, an explicit exclude
// always fails, and otherwise the rules decide.
type Segment struct {
	Include TargetList    `json:"include,omitempty"`
	Exclude TargetList    `json:"exclude,omitempty"`
	Rules   []SegmentRule `json:"rules,omitempty"`
}

// SegmentRule pairs conditions with a boolean outcome: either an
// unconditional match or a hashed split that only partially admits matching
// entities.
type SegmentRule struct {
	ID         string         `json:"id,omitempty"`
	Conditions []Condition    `json:"conditions"`
	Outcome    SegmentOutcome `json:"outcome"`
}

// SegmentOutcomeKind distinguishes a full match from a partial, hashed one.
type SegmentOutcomeKind int

const (
	SegmentFullMatch SegmentOutcomeKind = iota
	SegmentSplitMatch
)

// SegmentOutcome is the boolean-valued counterpart of Outcome: instead of
// selecting a variant, it decides membership. On the wire, a literal `true`
// (or non-zero number) means full match; an object means a hashed split.
type SegmentOutcome struct {
	Kind  SegmentOutcomeKind
	Split *SplitBoolOutcome
}

// SplitBoolOutcome admits a fraction of entities to a segment, measured in
// parts-per-hundred-thousand, hashed on Base.
type SplitBoolOutcome struct {
	Base         string `json:"base"`
	PassPromille int    `json:"passPromille"`
}

func (s SegmentOutcome) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SegmentFullMatch:
		return json.Marshal(true)
	case SegmentSplitMatch:
		return json.Marshal(struct {
			Type string `json:"type"`
			SplitBoolOutcome
		}{Type: "split", SplitBoolOutcome: *s.Split})
	default:
		return nil, fmt.Errorf("datafile: unknown segment outcome kind %d", s.Kind)
	}
}

func (s *SegmentOutcome) UnmarshalJSON(data []byte) error {
	var asBool bool
	if err := json.Unmarshal(data, &asBool); err == nil {
		if asBool {
			*s = SegmentOutcome{Kind: SegmentFullMatch}
			return nil
		}
		*s = SegmentOutcome{Kind: SegmentSplitMatch, Split: &SplitBoolOutcome{PassPromille: 0}}
		return nil
	}

	// The outcome constant 1 (full match) may also arrive as a bare number.
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		n, err := asNumber.Int64()
		if err != nil {
			return fmt.Errorf("datafile: segment outcome numeric constant not an integer: %w", err)
		}
		if n != 0 {
			*s = SegmentOutcome{Kind: SegmentFullMatch}
			return nil
		}
		*s = SegmentOutcome{Kind: SegmentSplitMatch, Split: &SplitBoolOutcome{PassPromille: 0}}
		return nil
	}

	var split SplitBoolOutcome
	if err := json.Unmarshal(data, &split); err != nil {
		return fmt.Errorf("datafile: segment outcome is neither boolean, number, nor split object: %w", err)
	}
	*s = SegmentOutcome{Kind: SegmentSplitMatch, Split: &split}
	return nil
}
