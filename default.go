package flags

import (
	"os"
	"sync"
)

// DefaultSDKKeyEnvVar is the environment variable Default reads its SDK
// key from to build the process-global default client.
const DefaultSDKKeyEnvVar = "FLAGS_SDK_KEY"

var (
	defaultOnce   sync.Once
	defaultClient *Client
	defaultErr    error
)

// Default returns the process-wide default Client, building it lazily on
// first use from the FLAGS_SDK_KEY environment variable. An unset or
// malformed key fails every call with ErrMissingSdkKey — the failure is
// memoized too, since a key that's invalid once won't become valid later
// in the same process.
func Default() (*Client, error) {
	defaultOnce.Do(func() {
		defaultClient, defaultErr = New(os.Getenv(DefaultSDKKeyEnvVar), Options{})
	})
	return defaultClient, defaultErr
}

// ResetDefault clears the memoized default Client so the next Default
// call constructs a fresh one. This exists for tests only — production
// code has no reason to reconstruct the default client mid-process.
func ResetDefault() {
	defaultOnce = sync.Once{}
	defaultClient = nil
	defaultErr = nil
}
