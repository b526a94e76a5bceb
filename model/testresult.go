package model

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ResultType is the status of a test run.
type ResultType string

const (
	ResultTypeUnknown    ResultType = "UNKNOWN"
	ResultTypeSucceed    ResultType = "SUCCEED"
	ResultTypeFailed     ResultType = "FAILED"
	ResultTypeLoadFailed ResultType = "LOAD_FAILED"
	ResultTypeIgnored    ResultType = "IGNORED"
	ResultTypeRunning    ResultType = "RUNNING"
	ResultTypeWaiting    ResultType = "WAITING"
)

var allResultTypes = []ResultType{
	ResultTypeUnknown,
	ResultTypeSucceed,
	ResultTypeFailed,
	ResultTypeLoadFailed,
	ResultTypeIgnored,
	ResultTypeRunning,
	ResultTypeWaiting,
}

// IsValid reports whether r is one of the declared result types.
func (r ResultType) IsValid() bool {
	for _, v := range allResultTypes {
		if r == v {
			return true
		}
	}
	return false
}

// IsFinal is true for statuses after which no further record for the same test is
// expected.
func (r ResultType) IsFinal() bool {
	switch r {
	case ResultTypeSucceed, ResultTypeFailed, ResultTypeLoadFailed, ResultTypeIgnored:
		return true
	}
	return false
}

// IsFailure is true for statuses the host counts as failures.
func (r ResultType) IsFailure() bool {
	return r == ResultTypeFailed || r == ResultTypeLoadFailed
}

func (r *ResultType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(r), "ResultType", func(s string) bool { return ResultType(s).IsValid() })
}

// LogLevel is the severity of a TestCaseLog. The wire strings of TRACE and WARN differ
// from their names and must stay that way for existing consumers.
type LogLevel string

const (
	LogLevelTrace LogLevel = "VERBOSE"
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARNNING"
	LogLevelError LogLevel = "ERROR"
)

// IsValid reports whether l is one of the declared log levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

func (l *LogLevel) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(l), "LogLevel", func(s string) bool { return LogLevel(s).IsValid() })
}

// AttachmentType says how Attachment.Url should be interpreted.
type AttachmentType string

const (
	AttachmentFile   AttachmentType = "FILE"
	AttachmentURL    AttachmentType = "URL"
	AttachmentIframe AttachmentType = "IFRAME"
)

// IsValid reports whether a is one of the declared attachment types.
func (a AttachmentType) IsValid() bool {
	switch a {
	case AttachmentFile, AttachmentURL, AttachmentIframe:
		return true
	}
	return false
}

func (a *AttachmentType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, (*string)(a), "AttachmentType", func(s string) bool { return AttachmentType(s).IsValid() })
}

func unmarshalEnum(data []byte, dest *string, typeName string, valid func(string) bool) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrapf(err, "%s must be a JSON string", typeName)
	}
	if !valid(s) {
		return errors.Errorf("unknown %s %q", typeName, s)
	}
	*dest = s
	return nil
}

// Attachment is a file, link or embeddable page attached to a log entry.
type Attachment struct {
	Name           string         `json:"Name"`
	Url            string         `json:"Url"`
	AttachmentType AttachmentType `json:"AttachmentType"`
}

// TestCaseAssertError describes a failed assertion.
type TestCaseAssertError struct {
	Expect  string `json:"Expect"`
	Actual  string `json:"Actual"`
	Message string `json:"Message"`
}

// TestCaseRuntimeError describes an unexpected error raised while running a test.
type TestCaseRuntimeError struct {
	Summary string `json:"Summary"`
	Detail  string `json:"Detail"`
}

// TestCaseLog is one log entry within a step.
type TestCaseLog struct {
	Time         UTCTime               `json:"Time"`
	Level        LogLevel              `json:"Level"`
	Content      string                `json:"Content"`
	AssertError  *TestCaseAssertError  `json:"AssertError"`
	RuntimeError *TestCaseRuntimeError `json:"RuntimeError"`
	Attachments  []Attachment          `json:"Attachments"`
}

// TestCaseStep is a named phase of a test run. EndTime is nil while the step is open.
type TestCaseStep struct {
	StartTime UTCTime       `json:"StartTime"`
	Title     string        `json:"Title"`
	EndTime   *UTCTime      `json:"EndTime"`
	Logs      []TestCaseLog `json:"Logs"`
}

// TestResult is the outcome of running one test case. A plugin may report several
// TestResults for the same test, e.g. RUNNING followed by SUCCEED; the most recent one
// wins. EndTime is nil while the test is still running.
type TestResult struct {
	Test       TestCase       `json:"Test"`
	StartTime  UTCTime        `json:"StartTime"`
	ResultType ResultType     `json:"ResultType"`
	Message    string         `json:"Message"`
	EndTime    *UTCTime       `json:"EndTime"`
	Steps      []TestCaseStep `json:"Steps"`
}

// Validate checks the fields that are required on the wire.
func (r TestResult) Validate() error {
	if err := r.Test.Validate(); err != nil {
		return errors.Wrap(err, "Test")
	}
	if r.StartTime.IsZero() {
		return errors.New("StartTime is missing")
	}
	if !r.ResultType.IsValid() {
		return errors.Errorf("unknown ResultType %q", r.ResultType)
	}
	for i, step := range r.Steps {
		if step.StartTime.IsZero() {
			return errors.Errorf("Steps[%d]: StartTime is missing", i)
		}
		for j, log := range step.Logs {
			if log.Time.IsZero() {
				return errors.Errorf("Steps[%d].Logs[%d]: Time is missing", i, j)
			}
			if !log.Level.IsValid() {
				return errors.Errorf("Steps[%d].Logs[%d]: unknown LogLevel %q", i, j, log.Level)
			}
			for k, att := range log.Attachments {
				if !att.AttachmentType.IsValid() {
					return errors.Errorf("Steps[%d].Logs[%d].Attachments[%d]: unknown AttachmentType %q",
						i, j, k, att.AttachmentType)
				}
			}
		}
	}
	return nil
}

func (r TestResult) MarshalJSON() ([]byte, error) {
	type plain TestResult
	p := plain(r)
	if p.Steps == nil {
		p.Steps = []TestCaseStep{}
	}
	return json.Marshal(p)
}

func (s TestCaseStep) MarshalJSON() ([]byte, error) {
	type plain TestCaseStep
	p := plain(s)
	if p.Logs == nil {
		p.Logs = []TestCaseLog{}
	}
	return json.Marshal(p)
}

func (l TestCaseLog) MarshalJSON() ([]byte, error) {
	type plain TestCaseLog
	p := plain(l)
	if p.Attachments == nil {
		p.Attachments = []Attachment{}
	}
	return json.Marshal(p)
}
