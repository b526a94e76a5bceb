package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturingLoggerKeepsAllLevels(t *testing.T) {
	var l CapturingLogger
	loggers := l.Loggers()
	loggers.Debugf("debug %d", 1)
	loggers.Info("info")
	loggers.Errorf("error %s", "x")

	output := l.Output()
	require.Len(t, output, 3)
	assert.True(t, output.Contains("debug 1"))
	assert.True(t, output.Contains("info"))
	assert.True(t, output.Contains("error x"))
	assert.False(t, output.Contains("warn"))
}

func TestCapturingLoggerIsSafeForConcurrentUse(t *testing.T) {
	var l CapturingLogger
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Printf("message %d", i)
		}(i)
	}
	wg.Wait()
	assert.Len(t, l.Output(), 50)
}

func TestCapturedOutputDump(t *testing.T) {
	var l CapturingLogger
	l.Println("first", "line")
	l.Printf("second")

	var buf bytes.Buffer
	l.Output().Dump(&buf, "  DEBUG ")
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "  DEBUG ["))
	assert.True(t, strings.HasSuffix(lines[0], "] first line"))
	assert.True(t, strings.HasSuffix(lines[1], "] second"))
}
