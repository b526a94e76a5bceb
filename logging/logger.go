// Package logging connects the SDK's components to ldlog, and provides a logger that
// captures output in memory so it can be shown later, e.g. only for failed tests.
package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Disabled returns loggers that discard everything. Library components default to this.
func Disabled() ldlog.Loggers {
	return ldlog.NewDisabledLoggers()
}

// Console returns loggers that write to the default destination, with debug output
// enabled if debug is true.
func Console(prefix string, debug bool) ldlog.Loggers {
	loggers := ldlog.NewDefaultLoggers()
	if prefix != "" {
		loggers.SetPrefix(prefix)
	}
	if debug {
		loggers.SetMinLevel(ldlog.Debug)
	}
	return loggers
}

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger is an ldlog.BaseLogger that keeps every message in memory.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

// Loggers returns ldlog.Loggers that send every level, including debug, to l.
func (l *CapturingLogger) Loggers() ldlog.Loggers {
	var loggers ldlog.Loggers
	loggers.SetBaseLogger(l)
	loggers.SetMinLevel(ldlog.Debug)
	return loggers
}

func (l *CapturingLogger) Println(values ...interface{}) {
	l.add(strings.TrimSuffix(fmt.Sprintln(values...), "\n"))
}

func (l *CapturingLogger) Printf(format string, values ...interface{}) {
	l.add(fmt.Sprintf(format, values...))
}

func (l *CapturingLogger) add(message string) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: message})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Contains reports whether any captured message contains substr.
func (output CapturedOutput) Contains(substr string) bool {
	for _, m := range output {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}
