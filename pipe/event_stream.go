package pipe

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

// ErrStreamClosed is returned by AwaitEvent once the stream has ended and every event
// read from it has been consumed.
var ErrStreamClosed = errors.New("event stream closed")

// ErrTimeout is returned by AwaitEvent when no event arrived in time.
var ErrTimeout = errors.New("timed out waiting for event")

const eventBufferSize = 100

// EventStream reads events from a stream on a background goroutine, so a host can wait
// for the next event with a timeout.
//
// The goroutine keeps reading after a DecodeError, which is delivered like an event. It
// stops after end of stream or any fatal error; a fatal error other than end of stream
// is delivered before the stream reports ErrStreamClosed.
type EventStream struct {
	reader    *Reader
	closer    io.Closer
	loggers   ldlog.Loggers
	items     chan streamItem
	done      chan struct{}
	closeOnce sync.Once
}

type streamItem struct {
	event Event
	err   error
}

// NewEventStream starts reading events from r. If r is an io.Closer, Close closes it.
func NewEventStream(r io.Reader, opts ...Option) *EventStream {
	reader := NewReader(r, opts...)
	s := &EventStream{
		reader:  reader,
		loggers: reader.loggers,
		items:   make(chan streamItem, eventBufferSize),
		done:    make(chan struct{}),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	go s.readStream()
	return s
}

func (s *EventStream) readStream() {
	defer close(s.items)
	for {
		event, err := s.reader.ReadEvent()
		if err == io.EOF {
			s.loggers.Debug("Event stream reached end of stream")
			return
		}
		if err != nil {
			s.loggers.Warnf("Error reading event stream: %s", err)
		} else {
			s.loggers.Debugf("Received %s event", event.Kind)
		}
		select {
		case s.items <- streamItem{event: event, err: err}:
		case <-s.done:
			return
		}
		if IsFatal(err) {
			return
		}
	}
}

// AwaitEvent waits for the next event. A timeout of zero or less waits indefinitely.
func (s *EventStream) AwaitEvent(timeout time.Duration) (Event, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	select {
	case item, ok := <-s.items:
		if !ok {
			return Event{}, ErrStreamClosed
		}
		return item.event, item.err
	case <-deadline:
		return Event{}, ErrTimeout
	}
}

// Events returns every remaining event until the stream closes. Decode errors do not
// stop it; they are returned in skipped, in stream order. The first fatal error, if any,
// is returned along with the events before it.
func (s *EventStream) Events() (events []Event, skipped []error, err error) {
	for {
		event, err := s.AwaitEvent(0)
		switch {
		case err == ErrStreamClosed:
			return events, skipped, nil
		case IsFatal(err):
			return events, skipped, err
		case err != nil:
			skipped = append(skipped, err)
			continue
		}
		events = append(events, event)
	}
}

// Close stops the background reader and closes the underlying stream if it is closable.
func (s *EventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}
