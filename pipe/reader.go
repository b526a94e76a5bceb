// Package pipe is the read side of the reporting protocol. It recovers whole events
// from the stream, one frame at a time, in the order they were written.
//
// A stream has a single reader; Reader does no locking of its own.
package pipe

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"

	"github.com/OpenTestSolar/testtool-sdk-golang/frame"
	"github.com/OpenTestSolar/testtool-sdk-golang/logging"
	"github.com/OpenTestSolar/testtool-sdk-golang/model"
)

// ErrDecode is matched by every DecodeError.
var ErrDecode = errors.New("cannot decode event payload")

// DecodeError means a frame was read intact but its payload was not a valid encoding of
// the expected type. The stream is still aligned, so the next read can proceed.
type DecodeError struct {
	Kind    Kind
	Payload []byte
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s payload (%d bytes): %s", e.Kind, len(e.Payload), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// IsFatal reports whether err leaves the stream unusable. Framing errors and transport
// errors are fatal; DecodeError is not.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrDecode)
}

// Option configures a Reader or EventStream.
type Option func(*Reader)

// WithLoggers sets the loggers used for debug output.
func WithLoggers(loggers ldlog.Loggers) Option {
	return func(r *Reader) { r.loggers = loggers }
}

// Reader reads events from one stream.
type Reader struct {
	r       io.Reader
	loggers ldlog.Loggers
}

// NewReader returns a Reader that reads frames from r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	p := &Reader{r: r, loggers: logging.Disabled()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ReadLoadResult reads the next frame and decodes it as a LoadResult. It blocks until a
// whole frame is available or the stream ends.
func (p *Reader) ReadLoadResult() (model.LoadResult, error) {
	var result model.LoadResult
	err := p.readInto(KindLoadResult, &result)
	return result, err
}

// ReadTestResult reads the next frame and decodes it as a TestResult. It blocks until a
// whole frame is available or the stream ends.
func (p *Reader) ReadTestResult() (model.TestResult, error) {
	var result model.TestResult
	err := p.readInto(KindTestResult, &result)
	return result, err
}

func (p *Reader) readFrame() ([]byte, error) {
	payload, err := frame.ReadFrame(p.r)
	if err != nil {
		if err != frame.ErrEndOfStream {
			p.loggers.Debugf("Frame read failed: %s", err)
		}
		return nil, err
	}
	p.loggers.Debugf("Read frame (%d bytes)", len(payload))
	return payload, nil
}

type validatable interface {
	Validate() error
}

func (p *Reader) readInto(kind Kind, dest validatable) error {
	payload, err := p.readFrame()
	if err != nil {
		return err
	}
	return decodePayload(kind, payload, dest)
}

func decodePayload(kind Kind, payload []byte, dest validatable) error {
	if err := json.Unmarshal(payload, dest); err != nil {
		return &DecodeError{Kind: kind, Payload: payload, Err: err}
	}
	if err := dest.Validate(); err != nil {
		return &DecodeError{Kind: kind, Payload: payload, Err: err}
	}
	return nil
}

// ReadLoadResult reads one LoadResult frame from r.
func ReadLoadResult(r io.Reader) (model.LoadResult, error) {
	return NewReader(r).ReadLoadResult()
}

// ReadTestResult reads one TestResult frame from r.
func ReadTestResult(r io.Reader) (model.TestResult, error) {
	return NewReader(r).ReadTestResult()
}
