// Package reporter is the write side of the reporting protocol: the object that test
// execution code calls to send discovery results and test results to the host.
package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"

	"github.com/OpenTestSolar/testtool-sdk-golang/logging"
	"github.com/OpenTestSolar/testtool-sdk-golang/model"
)

// ErrWriteFailure wraps errors returned by the underlying transport. The reporter never
// retries; the caller decides whether to try again or give up.
var ErrWriteFailure = errors.New("failed to write report")

// WriteError is returned when the transport rejects a write. It matches ErrWriteFailure
// with errors.Is and unwraps to the transport's own error.
type WriteError struct {
	Written int
	Size    int
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s: wrote %d of %d bytes: %s", ErrWriteFailure, e.Written, e.Size, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWriteFailure }

// ErrInvalidPayload is returned when a value fails validation before being sent.
var ErrInvalidPayload = errors.New("invalid report payload")

// InvalidPayloadError carries the validation failure. It matches ErrInvalidPayload with
// errors.Is and unwraps to the validation error.
type InvalidPayloadError struct {
	Err error
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidPayload, e.Err)
}

func (e *InvalidPayloadError) Unwrap() error { return e.Err }

func (e *InvalidPayloadError) Is(target error) bool { return target == ErrInvalidPayload }

// Reporter sends events to the host. Implementations are safe for concurrent use.
type Reporter interface {
	ReportLoadResult(result model.LoadResult) error
	ReportRunCaseResult(result model.TestResult) error
}

const (
	kindLoadResult = "load_result"
	kindTestResult = "test_result"
)

type options struct {
	loggers ldlog.Loggers
	metrics *Metrics
}

// Option configures a PipeReporter or FileReporter.
type Option func(*options)

// WithLoggers sets the loggers used for debug and error output.
func WithLoggers(loggers ldlog.Loggers) Option {
	return func(o *options) { o.loggers = loggers }
}

// WithMetrics records frame and error counts in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{loggers: logging.Disabled()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type validator interface {
	Validate() error
}

// marshal validates and serializes a payload. The returned bytes are a snapshot, so
// later changes by the caller to the value do not affect what is sent.
func marshal(v validator) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, &InvalidPayloadError{Err: err}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize report")
	}
	return data, nil
}
