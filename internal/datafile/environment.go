package datafile

import (
	"encoding/json"
	"fmt"
)

// EnvConfigKind distinguishes the three shapes an EnvironmentConfig can take
// on the wire: a paused flag pinned to one variant, a pointer that
// reuses another environment's config verbatim, or an active config with
// its own targets/rules/fallthrough.
type EnvConfigKind int

const (
	EnvPaused EnvConfigKind = iota
	EnvReuse
	EnvActive
)

// EnvironmentConfig is how a single flag resolves within one environment.
type EnvironmentConfig struct {
	Kind EnvConfigKind

	// Set when Kind == EnvPaused.
	VariantIndex int

	// Set when Kind == EnvReuse: the environment key whose config this one
	// defers to.
	ReuseEnvironment string

	// Set when Kind == EnvActive.
	Targets     []TargetList `json:"targets,omitempty"`
	Rules       []Rule       `json:"rules,omitempty"`
	Fallthrough Outcome      `json:"fallthrough,omitempty"`
}

type envReuseWire struct {
	Reuse string `json:"reuse"`
}

type envActiveWire struct {
	Targets     []TargetList `json:"targets,omitempty"`
	Rules       []Rule       `json:"rules,omitempty"`
	Fallthrough Outcome      `json:"fallthrough"`
}

func (e EnvironmentConfig) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EnvPaused:
		return json.Marshal(e.VariantIndex)
	case EnvReuse:
		return json.Marshal(envReuseWire{Reuse: e.ReuseEnvironment})
	case EnvActive:
		return json.Marshal(envActiveWire{Targets: e.Targets, Rules: e.Rules, Fallthrough: e.Fallthrough})
	default:
		return nil, fmt.Errorf("datafile: unknown environment config kind %d", e.Kind)
	}
}

func (e *EnvironmentConfig) UnmarshalJSON(data []byte) error {
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		idx, err := asNumber.Int64()
		if err != nil {
			return fmt.Errorf("datafile: paused environment config not an integer: %w", err)
		}
		*e = EnvironmentConfig{Kind: EnvPaused, VariantIndex: int(idx)}
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("datafile: environment config is neither an index nor an object: %w", err)
	}

	if _, ok := probe["reuse"]; ok {
		var reuse envReuseWire
		if err := json.Unmarshal(data, &reuse); err != nil {
			return err
		}
		*e = EnvironmentConfig{Kind: EnvReuse, ReuseEnvironment: reuse.Reuse}
		return nil
	}

	var active envActiveWire
	if err := json.Unmarshal(data, &active); err != nil {
		return fmt.Errorf("datafile: active environment config malformed: %w", err)
	}
	*e = EnvironmentConfig{
		Kind:        EnvActive,
		Targets:     active.Targets,
		Rules:       active.Rules,
		Fallthrough: active.Fallthrough,
	}
	return nil
}
