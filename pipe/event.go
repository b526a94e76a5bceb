package pipe

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/OpenTestSolar/testtool-sdk-golang/model"
)

// Kind says which payload type an event carries.
type Kind string

const (
	KindLoadResult Kind = "LoadResult"
	KindTestResult Kind = "TestResult"
	KindUnknown    Kind = "unknown"
)

// Event is one decoded frame whose type was not known in advance. Exactly one of
// LoadResult and TestResult is set, according to Kind.
type Event struct {
	Kind       Kind
	LoadResult *model.LoadResult
	TestResult *model.TestResult
}

// ReadEvent reads the next frame and decodes it as whichever payload type it holds.
// The type is recognized from the payload's top-level fields.
func (p *Reader) ReadEvent() (Event, error) {
	payload, err := p.readFrame()
	if err != nil {
		return Event{}, err
	}
	return decodeEvent(payload)
}

func decodeEvent(payload []byte) (Event, error) {
	kind, err := sniffKind(payload)
	if err != nil {
		return Event{}, &DecodeError{Kind: KindUnknown, Payload: payload, Err: err}
	}
	switch kind {
	case KindLoadResult:
		var result model.LoadResult
		if err := decodePayload(kind, payload, &result); err != nil {
			return Event{}, err
		}
		return Event{Kind: kind, LoadResult: &result}, nil
	default:
		var result model.TestResult
		if err := decodePayload(kind, payload, &result); err != nil {
			return Event{}, err
		}
		return Event{Kind: kind, TestResult: &result}, nil
	}
}

func sniffKind(payload []byte) (Kind, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return KindUnknown, err
	}
	_, hasTest := fields["Test"]
	_, hasResultType := fields["ResultType"]
	if hasTest || hasResultType {
		return KindTestResult, nil
	}
	_, hasTests := fields["Tests"]
	_, hasLoadErrors := fields["LoadErrors"]
	if hasTests || hasLoadErrors {
		return KindLoadResult, nil
	}
	return KindUnknown, errors.New("payload is neither a LoadResult nor a TestResult")
}
