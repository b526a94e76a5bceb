package host

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"

	"github.com/OpenTestSolar/testtool-sdk-golang/logging"
	"github.com/OpenTestSolar/testtool-sdk-golang/pipe"
	"github.com/OpenTestSolar/testtool-sdk-golang/reporter"
)

// pluginFD is the descriptor number the pipe appears as in the plugin: ExtraFiles[0]
// is always fd 3 in the child.
const pluginFD = 3

type launchOptions struct {
	loggers ldlog.Loggers
	env     []string
	dir     string
	stdout  io.Writer
	stderr  io.Writer
}

// LaunchOption configures Launch.
type LaunchOption func(*launchOptions)

// WithLoggers sets the loggers used by the session and its event stream.
func WithLoggers(loggers ldlog.Loggers) LaunchOption {
	return func(o *launchOptions) { o.loggers = loggers }
}

// WithEnv adds "KEY=value" entries to the plugin's environment.
func WithEnv(env ...string) LaunchOption {
	return func(o *launchOptions) { o.env = append(o.env, env...) }
}

// WithDir sets the plugin's working directory.
func WithDir(dir string) LaunchOption {
	return func(o *launchOptions) { o.dir = dir }
}

// WithOutput sets where the plugin's stdout and stderr go. By default they are
// discarded.
func WithOutput(stdout, stderr io.Writer) LaunchOption {
	return func(o *launchOptions) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// Session is a running plugin whose reports arrive on an anonymous pipe.
type Session struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	events  *pipe.EventStream
	loggers ldlog.Loggers
}

// Launch starts the plugin command in args with the write end of a pipe as fd 3, and
// sets the reporter environment variables so reporter.ConfigFromEnv finds it.
func Launch(ctx context.Context, args []string, opts ...LaunchOption) (*Session, error) {
	if len(args) == 0 {
		return nil, errors.New("no plugin command given")
	}
	o := launchOptions{loggers: logging.Disabled()}
	for _, opt := range opts {
		opt(&o)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "cannot create reporting pipe")
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.ExtraFiles = []*os.File{pw}
	cmd.Dir = o.dir
	cmd.Stdout = o.stdout
	cmd.Stderr = o.stderr
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%s=%s", reporter.EnvReporterType, reporter.TypePipe),
		fmt.Sprintf("%s=%d", reporter.EnvReporterFD, pluginFD),
		reporter.EnvReporterPipe+"=",
	)
	cmd.Env = append(cmd.Env, o.env...)

	var line commandBuilder
	line.add(args...)
	o.loggers.Infof("Starting plugin: %s", line)

	if err := cmd.Start(); err != nil {
		cancel()
		_ = pr.Close()
		_ = pw.Close()
		return nil, errors.Wrapf(err, "cannot start plugin %s", line)
	}
	// The child has its own copy; closing ours lets the reader see end of stream once
	// the plugin exits.
	_ = pw.Close()

	return &Session{
		cmd:     cmd,
		cancel:  cancel,
		events:  pipe.NewEventStream(pr, pipe.WithLoggers(o.loggers)),
		loggers: o.loggers,
	}, nil
}

// Events returns the stream of events reported by the plugin.
func (s *Session) Events() *pipe.EventStream {
	return s.events
}

// Wait waits for the plugin to exit.
func (s *Session) Wait() error {
	err := s.cmd.Wait()
	s.cancel()
	return err
}

// Abort gives up on the plugin: it closes the read end of the pipe, so further writes
// by the plugin fail, and kills the plugin. Wait still has to be called.
func (s *Session) Abort() {
	_ = s.events.Close()
	s.cancel()
}

// Collect reads every event into results until the plugin closes the pipe, and waits
// for the plugin to exit. Decode errors are logged and recorded in results. If the
// stream breaks, the plugin is aborted and the stream error is returned; otherwise the
// plugin's exit error is.
func (s *Session) Collect(results *Results) error {
	var readErr, waitErr error
	var wg conc.WaitGroup
	wg.Go(func() { readErr = s.collect(results) })
	wg.Go(func() { waitErr = s.Wait() })
	wg.Wait()
	_ = s.events.Close()
	if readErr != nil {
		return readErr
	}
	return waitErr
}

func (s *Session) collect(results *Results) error {
	for {
		event, err := s.events.AwaitEvent(0)
		switch {
		case err == pipe.ErrStreamClosed:
			return nil
		case pipe.IsFatal(err):
			s.loggers.Errorf("Reporting stream is broken, stopping plugin: %s", err)
			s.Abort()
			return err
		case err != nil:
			s.loggers.Warnf("Skipping undecodable event: %s", err)
			results.AddDecodeError(err)
			continue
		}
		Apply(results, event)
	}
}

// Apply adds one event to results.
func Apply(results *Results, event pipe.Event) {
	switch event.Kind {
	case pipe.KindLoadResult:
		results.AddLoadResult(*event.LoadResult)
	case pipe.KindTestResult:
		results.AddTestResult(*event.TestResult)
	}
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
