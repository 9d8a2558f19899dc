package flags

import (
	"context"

	"github.com/vercel/flags-sub000/internal/datafile"
	"github.com/vercel/flags-sub000/internal/source/bundled"
)

// GetDatafile returns the datafile currently in effect: the
// installed snapshot while the live source is connected, or a one-shot
// remote fetch otherwise. ctx can cancel the underlying HTTP request
// (per-call cancellation).
func (c *Client) GetDatafile(ctx context.Context) (*datafile.Datafile, error) {
	df, _, err := c.ctrl.GetDatafile(ctx)
	if err != nil {
		return nil, err
	}
	return df, nil
}

// GetFallbackDatafile returns the bundled snapshot without ever touching
// the network. It maps the bundled source's load state onto the
// error taxonomy.
func (c *Client) GetFallbackDatafile() (*datafile.Datafile, error) {
	res := c.ctrl.GetFallbackDatafile()
	switch res.State {
	case bundled.StateOK:
		return res.Datafile, nil
	case bundled.StateMissingFile:
		return nil, ErrFallbackNotFound
	case bundled.StateMissingEntry:
		return nil, ErrFallbackEntryNotFound
	default:
		return nil, &UnexpectedBundledError{Cause: res.Err}
	}
}

// Metrics returns a snapshot of the Client's current health: which
// source is in effect, whether the live connection is up, and the
// resolution mode.
func (c *Client) Metrics() datafile.Metrics {
	return c.ctrl.Metrics()
}
