package datafile

import (
	"encoding/json"
	"strconv"
)

// Freshness is the configUpdatedAt token used to decide whether a newly
// arrived Datafile supersedes the one currently held. The wire format
// is tolerant: a bare JSON number or a numeric JSON string both parse, and
// the field may be entirely absent.
type Freshness struct {
	value int64
	known bool
}

// NewFreshness builds a known Freshness from an int64 timestamp.
func NewFreshness(v int64) Freshness {
	return Freshness{value: v, known: true}
}

// Known reports whether a value was present on the wire.
func (f Freshness) Known() bool {
	return f.known
}

// Value returns the underlying timestamp. Callers must check Known first.
func (f Freshness) Value() int64 {
	return f.value
}

// After reports whether f is strictly newer than other. Updates are
// accepted only on a strict greater-than: equal or older timestamps are
// rejected, and an unknown incoming token never supersedes a known one.
// An unknown current token accepts any known incoming token.
func (f Freshness) After(other Freshness) bool {
	if !other.known {
		// A current token with no parseable timestamp may be overwritten
		// by any incoming datafile, known or unknown: the
		// later-arriving one always wins once the current one is
		// unparseable.
		return true
	}
	if !f.known {
		return false
	}
	return f.value > other.value
}

func (f Freshness) MarshalJSON() ([]byte, error) {
	if !f.known {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

func (f *Freshness) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` || s == "" {
		*f = Freshness{}
		return nil
	}

	if s[0] == '"' {
		var asString string
		if err := json.Unmarshal(data, &asString); err != nil {
			return err
		}
		if asString == "" {
			*f = Freshness{}
			return nil
		}
		v, err := strconv.ParseInt(asString, 10, 64)
		if err != nil {
			return err
		}
		*f = NewFreshness(v)
		return nil
	}

	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return err
	}
	v, err := asNumber.Int64()
	if err != nil {
		return err
	}
	*f = NewFreshness(v)
	return nil
}
