// Package sdkkey parses the SDK key supplied by callers, which may be a
// bare key or a connection string carrying additional options.
package sdkkey

import (
	"errors"
	"net/url"
	"strings"
)

// ErrMissingSDKKey is returned when no usable key can be extracted.
var ErrMissingSDKKey = errors.New("flags: missing SDK key")

// keyPrefix is the required prefix for a bare or connection-string-embedded
// SDK key.
const keyPrefix = "vf_"

// Parsed is a decoded SDK key plus any connection-string options that rode
// along with it.
type Parsed struct {
	// Key is the bare "vf_..." key used for Authorization headers.
	Key string

	// Options holds any additional "key=value" pairs from a connection
	// string (e.g. a custom baseUrl override).
	Options map[string]string
}

// Parse accepts either a bare key ("vf_abc123") or a connection string of
// the form "flags:k1=v1&k2=v2&sdkKey=vf_abc123". The sdkKey field is
// required in the connection-string form.
func Parse(raw string) (Parsed, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Parsed{}, ErrMissingSDKKey
	}

	if !strings.HasPrefix(raw, "flags:") {
		if !strings.HasPrefix(raw, keyPrefix) {
			return Parsed{}, ErrMissingSDKKey
		}
		return Parsed{Key: raw}, nil
	}

	qs, err := url.ParseQuery(strings.TrimPrefix(raw, "flags:"))
	if err != nil {
		return Parsed{}, err
	}

	key := qs.Get("sdkKey")
	if key == "" || !strings.HasPrefix(key, keyPrefix) {
		return Parsed{}, ErrMissingSDKKey
	}

	opts := make(map[string]string, len(qs))
	for k, v := range qs {
		if k == "sdkKey" || len(v) == 0 {
			continue
		}
		opts[k] = v[0]
	}

	return Parsed{Key: key, Options: opts}, nil
}
