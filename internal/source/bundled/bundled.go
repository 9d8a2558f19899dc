// Package bundled loads a datafile shipped alongside the application
// itself — the fallback source used when no network source can be reached
// before the caller needs an answer.
package bundled

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vercel/flags-sub000/internal/datafile"
)

// State classifies the outcome of loading the bundled file.
type State string

const (
	StateOK           State = "ok"
	StateMissingFile  State = "missing-file"
	StateMissingEntry State = "missing-entry"
	StateError        State = "unexpected-error"
)

// Result is the outcome of a Load call.
type Result struct {
	State    State
	Datafile *datafile.Datafile
	Err      error
}

// Source reads a bundled JSON file the first time Load is called and
// memoizes the result — the file is expected to be static for the life of
// the process, so there is no reason to re-read it on every call.
type Source struct {
	path   string
	sdkKey string

	once   sync.Once
	result Result
}

// New builds a bundled Source that reads path, a JSON object mapping SDK
// key to its Datafile, and looks up sdkKey within it.
func New(path, sdkKey string) *Source {
	return &Source{path: path, sdkKey: sdkKey}
}

// Load returns the memoized load result, reading and parsing the file on
// the first call.
func (s *Source) Load() Result {
	s.once.Do(func() {
		s.result = s.load()
	})
	return s.result
}

func (s *Source) load() Result {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{State: StateMissingFile, Err: err}
		}
		return Result{State: StateError, Err: fmt.Errorf("bundled: read %s: %w", s.path, err)}
	}

	var bundle map[string]*datafile.Datafile
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return Result{State: StateError, Err: fmt.Errorf("bundled: parse %s: %w", s.path, err)}
	}

	df, ok := bundle[s.sdkKey]
	if !ok {
		return Result{State: StateMissingEntry, Err: fmt.Errorf("bundled: no entry for sdk key in %s", s.path)}
	}

	return Result{State: StateOK, Datafile: df}
}
