package reporter

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"

	"github.com/OpenTestSolar/testtool-sdk-golang/frame"
	"github.com/OpenTestSolar/testtool-sdk-golang/model"
)

type flusher interface {
	Flush() error
}

// PipeReporter writes each report as one frame on a shared stream.
//
// Any number of goroutines may report through the same PipeReporter. Each call holds
// the reporter's lock while it serializes, frames, writes and flushes, so the bytes of
// two frames never interleave and frames appear in the order the lock was acquired.
type PipeReporter struct {
	w       io.Writer
	loggers ldlog.Loggers
	metrics *Metrics
	lock    sync.Mutex
}

// NewPipeReporter returns a reporter that writes frames to w.
func NewPipeReporter(w io.Writer, opts ...Option) *PipeReporter {
	o := buildOptions(opts)
	return &PipeReporter{
		w:       w,
		loggers: o.loggers,
		metrics: o.metrics,
	}
}

// ReportLoadResult sends the outcome of test discovery.
func (r *PipeReporter) ReportLoadResult(result model.LoadResult) error {
	return r.report(kindLoadResult, result)
}

// ReportRunCaseResult sends the outcome, or interim state, of one test run. Every call
// produces one frame, even for a test that was already reported.
func (r *PipeReporter) ReportRunCaseResult(result model.TestResult) error {
	return r.report(kindTestResult, result)
}

func (r *PipeReporter) report(kind string, v validator) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	n, err := r.writeLocked(v)
	if err != nil {
		r.metrics.recordError(kind, err)
		r.loggers.Errorf("Failed to report %s: %s", kind, err)
		return err
	}
	r.metrics.recordWrite(kind, n)
	r.loggers.Debugf("Reported %s (%d bytes)", kind, n)
	return nil
}

func (r *PipeReporter) writeLocked(v validator) (int, error) {
	payload, err := marshal(v)
	if err != nil {
		return 0, err
	}
	data, err := frame.Encode(payload)
	if err != nil {
		return 0, err
	}
	n, err := r.w.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return n, &WriteError{Written: n, Size: len(data), Err: err}
	}
	if f, ok := r.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return n, &WriteError{Written: n, Size: len(data), Err: errors.Wrap(err, "flush")}
		}
	}
	return n, nil
}

// Close closes the underlying writer if it is an io.Closer. Reports made after Close
// fail with ErrWriteFailure.
func (r *PipeReporter) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if c, ok := r.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
