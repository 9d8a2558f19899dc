// Package transport holds the HTTP request-building details shared by
// every configuration source and the usage tracker: auth headers, the
// default base URL, and the retry-attempt header sources attach when
// reconnecting.
package transport

import (
	"context"
	"fmt"
	"net/http"
)

const (
	// DefaultBaseURL is the edge API root. The fallback a Client uses when
	// neither a caller option nor an SDK key connection string overrides
	// it comes from internal/config, which holds the same value.
	DefaultBaseURL = "https://flags.vercel.com"

	// sdkVersion is bumped alongside tagged releases.
	sdkVersion = "0.1.0"
	userAgent  = "VercelFlagsCore/" + sdkVersion
)

// NewRequest builds an HTTP request carrying the standard auth and
// identification headers for a given SDK key. attempt is the zero-based
// retry count for reconnect attempts; pass 0 for a first attempt.
func NewRequest(ctx context.Context, method, url, sdkKey string, attempt int) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sdkKey)
	req.Header.Set("User-Agent", userAgent)
	if attempt > 0 {
		req.Header.Set("X-Retry-Attempt", fmt.Sprintf("%d", attempt))
	}
	return req, nil
}

// IsUnauthorized reports whether resp represents an auth failure that
// should stop a source from retrying.
func IsUnauthorized(resp *http.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusUnauthorized
}
