package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TimeFormat is the layout used for every timestamp on the wire. Values are always
// converted to UTC first, so the zone designator is always "Z".
const TimeFormat = "2006-01-02T15:04:05.999999999Z07:00"

// UTCTime is a point in time that always serializes in UTC with an explicit "Z" suffix,
// no matter what time.Local is set to in the reporting process.
type UTCTime struct {
	time.Time
}

// NewUTCTime converts t to UTC and drops any monotonic clock reading.
func NewUTCTime(t time.Time) UTCTime {
	return UTCTime{Time: t.UTC().Round(0)}
}

// Now returns the current time as a UTCTime.
func Now() UTCTime {
	return NewUTCTime(time.Now())
}

// Ptr returns a pointer to a copy of t, for the optional EndTime fields.
func (t UTCTime) Ptr() *UTCTime {
	return &t
}

// Equal reports whether t and u represent the same instant.
func (t UTCTime) Equal(u UTCTime) bool {
	return t.Time.Equal(u.Time)
}

func (t UTCTime) String() string {
	return t.Time.UTC().Format(TimeFormat)
}

func (t UTCTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *UTCTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "timestamp must be a JSON string")
	}
	if !hasZoneDesignator(s) {
		return errors.Errorf("timestamp %q has no zone designator", s)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return errors.Wrapf(err, "malformed timestamp %q", s)
	}
	*t = NewUTCTime(parsed)
	return nil
}

func hasZoneDesignator(s string) bool {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return true
	}
	// "+hh:mm" or "-hh:mm"
	if len(s) < 6 {
		return false
	}
	sign := s[len(s)-6]
	return (sign == '+' || sign == '-') && s[len(s)-3] == ':'
}
