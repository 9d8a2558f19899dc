package datafile

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"
)

// ObservedDigest returns d.Digest if the server supplied one, or a locally
// computed 64-bit content fingerprint otherwise. The wire digest is
// opaque and server-defined; this local fallback exists purely so logging
// and metrics have something stable to key on when a source (in
// particular the bundled artifact, which has no server round trip to
// stamp one) doesn't carry one. It is never compared across processes —
// only used for "did this change since last time" observability.
func (d *Datafile) ObservedDigest() string {
	if d == nil {
		return ""
	}
	if d.Digest != "" {
		return d.Digest
	}
	raw, err := json.Marshal(d.Definitions)
	if err != nil {
		return ""
	}
	return formatDigest(xxhash.Sum64(raw))
}

func formatDigest(sum uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[sum&0xf]
		sum >>= 4
	}
	return string(buf)
}
