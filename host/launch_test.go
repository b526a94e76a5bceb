package host

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTestSolar/testtool-sdk-golang/frame"
	"github.com/OpenTestSolar/testtool-sdk-golang/logging"
	"github.com/OpenTestSolar/testtool-sdk-golang/model"
	"github.com/OpenTestSolar/testtool-sdk-golang/model/modeltest"
	"github.com/OpenTestSolar/testtool-sdk-golang/pipe"
	"github.com/OpenTestSolar/testtool-sdk-golang/reporter"
)

const helperEnv = "TESTSOLAR_HOST_HELPER_PLUGIN"

// TestMain lets the test binary act as a plugin when launched by the tests below.
func TestMain(m *testing.M) {
	if mode := os.Getenv(helperEnv); mode != "" {
		os.Exit(runHelperPlugin(mode))
	}
	os.Exit(m.Run())
}

func runHelperPlugin(mode string) int {
	config, err := reporter.ConfigFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	// Each mode opens the descriptor exactly once, since a second *os.File for it would
	// close it when finalized.
	var rep reporter.Reporter
	switch mode {
	case "corrupt":
		return writeGarbage(os.NewFile(uintptr(config.FD), "report"))
	case "undecodable":
		f := os.NewFile(uintptr(config.FD), "report")
		if _, err := frame.WriteFrame(f, []byte(`{"Test":`)); err != nil {
			return 3
		}
		rep = reporter.NewPipeReporter(f)
	default:
		rep, err = reporter.Open(config)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	}
	if err := rep.ReportLoadResult(modeltest.LoadResult(3, 0)); err != nil {
		return 3
	}
	for i := 0; i < 3; i++ {
		running := modeltest.TestResult(i, 0, 0)
		running.ResultType = model.ResultTypeRunning
		running.EndTime = nil
		if err := rep.ReportRunCaseResult(running); err != nil {
			return 3
		}
		final := modeltest.TestResult(i, 1, 1)
		if mode == "fail" && i == 1 {
			final.ResultType = model.ResultTypeFailed
		}
		if err := rep.ReportRunCaseResult(final); err != nil {
			return 3
		}
	}
	return 0
}

// writeGarbage writes a bad marker followed by far more than a pipe buffer holds, and
// only stops when the reading end goes away.
func writeGarbage(f *os.File) int {
	if _, err := f.Write([]byte("garbage!")); err != nil {
		return 4
	}
	chunk := make([]byte, 4096)
	for written := 0; written < 1<<20; written += len(chunk) {
		if _, err := f.Write(chunk); err != nil {
			return 4
		}
	}
	return 0
}

func launchHelper(t *testing.T, mode string, opts ...LaunchOption) *Session {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	opts = append(opts, WithEnv(helperEnv+"="+mode))
	s, err := Launch(ctx, []string{os.Args[0], "-test.run=^$"}, opts...)
	require.NoError(t, err)
	return s
}

func TestLaunchCollectsPluginReports(t *testing.T) {
	var captured logging.CapturingLogger
	s := launchHelper(t, "pass", WithLoggers(captured.Loggers()))

	results := NewResults()
	require.NoError(t, s.Collect(results))

	assert.Len(t, results.Tests(), 3)
	all := results.TestResults()
	require.Len(t, all, 3)
	for i, tr := range all {
		assert.Equal(t, modeltest.TestName(i), tr.Test.Name)
		assert.Equal(t, model.ResultTypeSucceed, tr.ResultType)
	}
	assert.True(t, results.OK())
	assert.True(t, captured.Output().Contains("Starting plugin"))
}

func TestLaunchReportsFailures(t *testing.T) {
	s := launchHelper(t, "fail")
	results := NewResults()
	require.NoError(t, s.Collect(results))

	failures := results.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, modeltest.TestName(1), failures[0].Test.Name)
	assert.Empty(t, results.Pending())
}

func TestLaunchEventStreamOrder(t *testing.T) {
	s := launchHelper(t, "pass")
	events, skipped, err := s.Events().Events()
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.NoError(t, s.Wait())

	require.Len(t, events, 7)
	assert.NotNil(t, events[0].LoadResult)
	for i := 0; i < 3; i++ {
		assert.Equal(t, model.ResultTypeRunning, events[1+2*i].TestResult.ResultType)
		assert.Equal(t, model.ResultTypeSucceed, events[2+2*i].TestResult.ResultType)
	}
}

func TestCollectStopsPluginWhenStreamIsCorrupt(t *testing.T) {
	var captured logging.CapturingLogger
	s := launchHelper(t, "corrupt", WithLoggers(captured.Loggers()))

	start := time.Now()
	err := s.Collect(NewResults())
	assert.True(t, errors.Is(err, frame.ErrFrameCorrupt), "got %v", err)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.True(t, captured.Output().Contains("stopping plugin"))
}

func TestCollectRecordsUndecodableEvents(t *testing.T) {
	s := launchHelper(t, "undecodable")
	results := NewResults()
	require.NoError(t, s.Collect(results))

	require.Len(t, results.DecodeErrors(), 1)
	assert.True(t, errors.Is(results.DecodeErrors()[0], pipe.ErrDecode))
	assert.Len(t, results.TestResults(), 3)
	assert.False(t, results.OK())
}

func TestLaunchRequiresCommand(t *testing.T) {
	_, err := Launch(context.Background(), nil)
	assert.Error(t, err)
}

func TestCommandBuilderQuotes(t *testing.T) {
	var b commandBuilder
	b.add("plugin", "--name", "two words", "it's")
	assert.Equal(t, `plugin --name 'two words' 'it'"'"'s'`, b.String())
}
