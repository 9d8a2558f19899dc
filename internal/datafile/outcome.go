package datafile

import (
	"encoding/json"
	"fmt"
)

// OutcomeKind distinguishes the two shapes an Outcome can take on the wire:
// a bare variant index, or a weighted split across several variants.
type OutcomeKind int

const (
	OutcomeIndex OutcomeKind = iota
	OutcomeSplit
)

// Outcome is what a matched rule, or a flag's fallthrough, resolves to
// before the split/variant lookup runs. It is a tagged union on the
// wire: a bare JSON number means OutcomeIndex, an object means OutcomeSplit.
type Outcome struct {
	Kind         OutcomeKind
	VariantIndex int
	Split        *SplitOutcome
}

// SplitOutcome is a weighted assignment across variants, bucketed by the
// hash of an entity attribute (the "base").
type SplitOutcome struct {
	Base           string `json:"base"`
	Weights        []int  `json:"weights"`
	DefaultVariant int    `json:"defaultVariant"`
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OutcomeIndex:
		return json.Marshal(o.VariantIndex)
	case OutcomeSplit:
		return json.Marshal(struct {
			Type string `json:"type"`
			SplitOutcome
		}{Type: "split", SplitOutcome: *o.Split})
	default:
		return nil, fmt.Errorf("datafile: unknown outcome kind %d", o.Kind)
	}
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		idx, err := asNumber.Int64()
		if err != nil {
			return fmt.Errorf("datafile: outcome index not an integer: %w", err)
		}
		*o = Outcome{Kind: OutcomeIndex, VariantIndex: int(idx)}
		return nil
	}

	var split SplitOutcome
	if err := json.Unmarshal(data, &split); err != nil {
		return fmt.Errorf("datafile: outcome is neither an index nor a split object: %w", err)
	}
	*o = Outcome{Kind: OutcomeSplit, Split: &split}
	return nil
}
