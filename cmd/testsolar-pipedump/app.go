package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/OpenTestSolar/testtool-sdk-golang/host"
	"github.com/OpenTestSolar/testtool-sdk-golang/logging"
	"github.com/OpenTestSolar/testtool-sdk-golang/pipe"
)

const envVarPrefix = "TESTSOLAR_PIPEDUMP_"

var (
	inputFlag = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Value:   "-",
		EnvVars: []string{envVarPrefix + "INPUT"},
		Usage:   "file or named pipe to read frames from, - for standard input",
	}
	execFlag = &cli.BoolFlag{
		Name:    "exec",
		Aliases: []string{"e"},
		EnvVars: []string{envVarPrefix + "EXEC"},
		Usage:   "launch the plugin command given as arguments and read its reports instead of --input",
	}
	runFlag = &cli.StringSliceFlag{
		Name:    "run",
		EnvVars: []string{envVarPrefix + "RUN"},
		Usage:   "regex pattern(s) selecting which tests to print",
	}
	skipFlag = &cli.StringSliceFlag{
		Name:    "skip",
		EnvVars: []string{envVarPrefix + "SKIP"},
		Usage:   "regex pattern(s) selecting tests not to print",
	}
	timeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		Value:   0,
		EnvVars: []string{envVarPrefix + "TIMEOUT"},
		Usage:   "give up if no event arrives within this interval (0 waits forever)",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		EnvVars: []string{envVarPrefix + "VERBOSE"},
		Usage:   "print steps and logs of each test result",
	}
	debugFlag = &cli.BoolFlag{
		Name:    "debug",
		EnvVars: []string{envVarPrefix + "DEBUG"},
		Usage:   "enable debug logging",
	}
	noColorFlag = &cli.BoolFlag{
		Name:    "no-color",
		EnvVars: []string{envVarPrefix + "NO_COLOR"},
		Usage:   "disable colored output",
	}
)

func newApp(stdout io.Writer, stdin io.Reader) *cli.App {
	return &cli.App{
		Name:      "testsolar-pipedump",
		Usage:     "print the events a test plugin reports over its pipe",
		ArgsUsage: "[plugin command...]",
		Writer:    stdout,
		Flags: []cli.Flag{
			inputFlag,
			execFlag,
			runFlag,
			skipFlag,
			timeoutFlag,
			verboseFlag,
			debugFlag,
			noColorFlag,
		},
		// exit codes are handled by main so that tests can run the app
		ExitErrHandler: func(*cli.Context, error) {},
		Action: func(c *cli.Context) error {
			return run(c, stdin)
		},
	}
}

func run(c *cli.Context, stdin io.Reader) error {
	if c.Bool(noColorFlag.Name) {
		color.NoColor = true
	}
	filters, err := buildFilters(c.StringSlice(runFlag.Name), c.StringSlice(skipFlag.Name))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	loggers := logging.Console("[pipedump] ", c.Bool(debugFlag.Name))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var stream *pipe.EventStream
	var session *host.Session
	if c.Bool(execFlag.Name) {
		if c.Args().Len() == 0 {
			return cli.Exit("--exec requires a plugin command", 2)
		}
		session, err = host.Launch(ctx, c.Args().Slice(),
			host.WithLoggers(loggers),
			host.WithOutput(os.Stderr, os.Stderr),
		)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		stream = session.Events()
	} else {
		if c.Args().Len() > 0 {
			return cli.Exit("unexpected arguments; use --exec to launch a plugin", 2)
		}
		input, err := openInput(c.String(inputFlag.Name), stdin)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		stream = pipe.NewEventStream(input, pipe.WithLoggers(loggers))
	}
	defer stream.Close()

	printer := &consolePrinter{
		out:     c.App.Writer,
		filters: filters,
		verbose: c.Bool(verboseFlag.Name),
	}
	if d := filters.Describe(); d != "" {
		printer.Notef("Filter: %s", d)
	}
	results := host.NewResults()
	streamErr := consume(stream, results, printer, c.Duration(timeoutFlag.Name))

	if streamErr != nil {
		// nothing reads the pipe any more, so a plugin still reporting would block
		if session != nil {
			session.Abort()
		}
		_ = stream.Close()
	}
	var pluginErr error
	if session != nil {
		pluginErr = session.Wait()
	}
	printer.Summary(results)

	switch {
	case streamErr != nil:
		return cli.Exit("stream error: "+streamErr.Error(), 1)
	case pluginErr != nil:
		return cli.Exit("plugin error: "+pluginErr.Error(), 1)
	case !results.OK():
		return cli.Exit("", 1)
	}
	return nil
}

func buildFilters(run, skip []string) (host.RegexFilters, error) {
	mustMatch, err := host.NewRegexList(run...)
	if err != nil {
		return host.RegexFilters{}, err
	}
	mustNotMatch, err := host.NewRegexList(skip...)
	if err != nil {
		return host.RegexFilters{}, err
	}
	return host.RegexFilters{MustMatch: mustMatch, MustNotMatch: mustNotMatch}, nil
}

func openInput(path string, stdin io.Reader) (io.Reader, error) {
	if path == "-" {
		return stdin, nil
	}
	return os.Open(path)
}

func consume(stream *pipe.EventStream, results *host.Results, printer *consolePrinter, timeout time.Duration) error {
	for {
		event, err := stream.AwaitEvent(timeout)
		switch {
		case err == pipe.ErrStreamClosed:
			return nil
		case pipe.IsFatal(err):
			return err
		case err != nil:
			results.AddDecodeError(err)
			printer.DecodeError(err)
			continue
		}
		host.Apply(results, event)
		printer.Event(event)
	}
}
