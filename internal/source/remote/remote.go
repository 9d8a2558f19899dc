// Package remote implements a one-shot GET fetch of the current datafile,
// used for on-demand refresh, polling, and build-step resolution.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vercel/flags-sub000/internal/datafile"
	"github.com/vercel/flags-sub000/internal/transport"
)

// ErrUnauthorized is returned when the server rejects the SDK key.
var ErrUnauthorized = errors.New("remote: unauthorized")

// Source performs a single GET against baseURL+/v1/datafile and decodes
// the response body as a Datafile.
type Source struct {
	httpClient *http.Client
	baseURL    string
	sdkKey     string
}

// New builds a remote Source.
func New(httpClient *http.Client, baseURL, sdkKey string) *Source {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Source{httpClient: httpClient, baseURL: baseURL, sdkKey: sdkKey}
}

// Fetch performs the one-shot request. A 401 response is surfaced as
// ErrUnauthorized so callers can suppress further usage reporting.
func (s *Source) Fetch(ctx context.Context) (*datafile.Datafile, error) {
	req, err := transport.NewRequest(ctx, http.MethodGet, s.baseURL+"/v1/datafile", s.sdkKey, 0)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: request failed: %w", err)
	}
	defer resp.Body.Close()

	if transport.IsUnauthorized(resp) {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: unexpected status %d", resp.StatusCode)
	}

	var df datafile.Datafile
	if err := json.NewDecoder(resp.Body).Decode(&df); err != nil {
		return nil, fmt.Errorf("remote: decode response: %w", err)
	}
	return &df, nil
}
