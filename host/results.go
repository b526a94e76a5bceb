// Package host contains helpers for the process on the reading end of the pipe: keeping
// the latest result for each test, selecting tests by name, and starting a plugin with
// a reporting pipe attached.
package host

import (
	"sync"

	"github.com/OpenTestSolar/testtool-sdk-golang/model"
)

// Results accumulates the events read from one plugin.
//
// A plugin may report the same test several times (RUNNING, then SUCCEED); the most
// recent record for a test identity replaces the earlier one, while the test keeps its
// position from when it was first seen. Results is safe for concurrent use.
type Results struct {
	tests      []model.TestCase
	loadErrors []model.LoadError
	results    map[string]model.TestResult
	order      []string
	undecoded  []error
	lock       sync.Mutex
}

// NewResults returns an empty Results.
func NewResults() *Results {
	return &Results{results: make(map[string]model.TestResult)}
}

// AddLoadResult records discovered tests and load errors. Tests already discovered
// under the same identity are not added twice.
func (r *Results) AddLoadResult(load model.LoadResult) {
	r.lock.Lock()
	defer r.lock.Unlock()
	known := make(map[string]struct{}, len(r.tests))
	for _, tc := range r.tests {
		known[model.Key(tc)] = struct{}{}
	}
	for _, tc := range load.Tests {
		if _, ok := known[model.Key(tc)]; ok {
			continue
		}
		known[model.Key(tc)] = struct{}{}
		r.tests = append(r.tests, tc)
	}
	r.loadErrors = append(r.loadErrors, load.LoadErrors...)
}

// AddTestResult records a test result, superseding any earlier one for the same test.
func (r *Results) AddTestResult(result model.TestResult) {
	r.lock.Lock()
	defer r.lock.Unlock()
	key := model.Key(result.Test)
	if _, ok := r.results[key]; !ok {
		r.order = append(r.order, key)
	}
	r.results[key] = result
}

// AddDecodeError records an event that arrived in a well-formed frame but could not be
// decoded.
func (r *Results) AddDecodeError(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.undecoded = append(r.undecoded, err)
}

// DecodeErrors returns the recorded decode errors in arrival order.
func (r *Results) DecodeErrors() []error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]error(nil), r.undecoded...)
}

// Tests returns the discovered test cases in discovery order.
func (r *Results) Tests() []model.TestCase {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]model.TestCase(nil), r.tests...)
}

// LoadErrors returns every load error received.
func (r *Results) LoadErrors() []model.LoadError {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]model.LoadError(nil), r.loadErrors...)
}

// Latest returns the most recent result for tc, if any.
func (r *Results) Latest(tc model.TestCase) (model.TestResult, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	result, ok := r.results[model.Key(tc)]
	return result, ok
}

// TestResults returns the latest result of every test, in the order tests were first
// reported.
func (r *Results) TestResults() []model.TestResult {
	return r.filter(func(model.TestResult) bool { return true })
}

// Failures returns the latest results whose status is a failure.
func (r *Results) Failures() []model.TestResult {
	return r.filter(func(tr model.TestResult) bool { return tr.ResultType.IsFailure() })
}

// Pending returns the latest results that are not final yet, e.g. still RUNNING.
func (r *Results) Pending() []model.TestResult {
	return r.filter(func(tr model.TestResult) bool { return !tr.ResultType.IsFinal() })
}

func (r *Results) filter(keep func(model.TestResult) bool) []model.TestResult {
	r.lock.Lock()
	defer r.lock.Unlock()
	var ret []model.TestResult
	for _, key := range r.order {
		if tr := r.results[key]; keep(tr) {
			ret = append(ret, tr)
		}
	}
	return ret
}

// OK is true if there were no load errors, no undecodable events and no failed tests.
func (r *Results) OK() bool {
	return len(r.LoadErrors()) == 0 && len(r.DecodeErrors()) == 0 && len(r.Failures()) == 0
}
