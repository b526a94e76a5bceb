package model

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// LoadError describes a failure encountered while discovering tests.
type LoadError struct {
	Name    string `json:"Name"`
	Message string `json:"Message"`
}

// LoadResult is the outcome of test discovery: the tests found, and the errors hit while
// looking for them.
type LoadResult struct {
	Tests      []TestCase  `json:"Tests"`
	LoadErrors []LoadError `json:"LoadErrors"`
}

// NewLoadResult returns an empty LoadResult whose sequences are non-nil.
func NewLoadResult() LoadResult {
	return LoadResult{Tests: []TestCase{}, LoadErrors: []LoadError{}}
}

// AddTest appends a discovered test case.
func (r *LoadResult) AddTest(tc TestCase) {
	r.Tests = append(r.Tests, tc)
}

// AddError appends a load error.
func (r *LoadResult) AddError(name, message string) {
	r.LoadErrors = append(r.LoadErrors, LoadError{Name: name, Message: message})
}

// Dedup drops every test case whose Key was already seen earlier in Tests. Tests is
// replaced by a new slice; the old backing array is left untouched.
func (r *LoadResult) Dedup() {
	seen := make(map[string]struct{}, len(r.Tests))
	kept := make([]TestCase, 0, len(r.Tests))
	for _, tc := range r.Tests {
		k := Key(tc)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, tc)
	}
	r.Tests = kept
}

// Validate checks the fields that are required on the wire.
func (r LoadResult) Validate() error {
	for i, tc := range r.Tests {
		if err := tc.Validate(); err != nil {
			return errors.Wrapf(err, "Tests[%d]", i)
		}
	}
	for i, le := range r.LoadErrors {
		if le.Name == "" {
			return errors.Errorf("LoadErrors[%d] has an empty Name", i)
		}
	}
	return nil
}

func (r LoadResult) MarshalJSON() ([]byte, error) {
	type plain LoadResult
	p := plain(r)
	if p.Tests == nil {
		p.Tests = []TestCase{}
	}
	if p.LoadErrors == nil {
		p.LoadErrors = []LoadError{}
	}
	return json.Marshal(p)
}
