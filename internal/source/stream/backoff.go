package stream

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

// ErrMaxRetriesExceeded is returned by reconnectBackOff.NextBackOff once
// retryCount has exceeded MaxRetryCount, signaling the reconnect loop to
// give up and hand control back to the Controller.
var ErrMaxRetriesExceeded = errors.New("stream: max retry count exceeded")

// MaxRetryCount bounds how many reconnect attempts the stream source makes
// before giving up and leaving the Controller to fall back to another
// source.
const MaxRetryCount = 15

// MinReconnectGap is the floor on time between the end of one connection
// attempt and the start of the next, even when the computed backoff would
// be shorter — it exists purely to guard against reconnect storms on a
// flapping network.
const MinReconnectGap = 1 * time.Second

// computeBackoff implements the reconnect delay formula: the first retry
// has no backoff of its own (the reconnect loop still waits
// MinReconnectGap), and each one after backs off exponentially up to a
// 60s ceiling, with up to 1s of jitter so many SDK instances reconnecting
// at once don't all retry in lockstep.
func computeBackoff(retryCount int) time.Duration {
	if retryCount <= 1 {
		return 0
	}
	base := math.Min(1000*math.Pow(2, float64(retryCount-2)), 60000)
	jitter := rand.Float64() * 1000
	d := time.Duration(base+jitter) * time.Millisecond
	if d < MinReconnectGap {
		return MinReconnectGap
	}
	return d
}

// reconnectBackOff tracks the retry count across one reconnect sequence
// and turns it into a delay via computeBackoff. Once retryCount exceeds
// MaxRetryCount it reports ErrMaxRetriesExceeded, handing control back to
// the Controller to fall back to another source.
type reconnectBackOff struct {
	retryCount int
}

func (b *reconnectBackOff) NextBackOff() (time.Duration, error) {
	b.retryCount++
	if b.retryCount > MaxRetryCount {
		return 0, ErrMaxRetriesExceeded
	}
	return computeBackoff(b.retryCount), nil
}

// Reset zeroes the retry count, as if no reconnect attempts had been made.
// Called whenever a datafile message arrives, since a successful message
// resets the backoff sequence even mid-connection.
func (b *reconnectBackOff) Reset() {
	b.retryCount = 0
}
