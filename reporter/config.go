package reporter

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvReporterType = "TESTSOLAR_REPORTER_TYPE"
	EnvReporterPipe = "TESTSOLAR_REPORTER_PIPE"
	EnvReporterFD   = "TESTSOLAR_REPORTER_FD"
	EnvReportDir    = "TESTSOLAR_REPORT_DIR"
)

// Type selects the transport a reporter uses.
type Type string

const (
	TypePipe Type = "pipe"
	TypeFile Type = "file"
)

// DefaultFD is the inherited file descriptor the host passes the pipe on.
const DefaultFD = 3

// Config describes where reports go.
type Config struct {
	Type Type
	// PipePath is a named pipe to open for writing. If empty, FD is used.
	PipePath string
	// FD is an inherited file descriptor for the pipe.
	FD int
	// ReportDir is the output directory for TypeFile.
	ReportDir string
}

// ConfigFromEnv builds a Config from the TESTSOLAR_* environment variables, applying
// defaults for anything that is not set.
func ConfigFromEnv() (Config, error) {
	c := Config{Type: TypePipe, FD: DefaultFD}
	if v := os.Getenv(EnvReporterType); v != "" {
		c.Type = Type(v)
	}
	c.PipePath = os.Getenv(EnvReporterPipe)
	c.ReportDir = os.Getenv(EnvReportDir)
	if v := os.Getenv(EnvReporterFD); v != "" {
		fd, err := strconv.Atoi(v)
		if err != nil || fd < 0 {
			return Config{}, errors.Errorf("%s must be a non-negative integer, got %q", EnvReporterFD, v)
		}
		c.FD = fd
	}
	return c, c.Validate()
}

// Validate checks that the config names a usable destination.
func (c Config) Validate() error {
	switch c.Type {
	case TypePipe:
		return nil
	case TypeFile:
		if c.ReportDir == "" {
			return errors.Errorf("%s is required when the reporter type is %q", EnvReportDir, TypeFile)
		}
		return nil
	default:
		return errors.Errorf("unknown reporter type %q", c.Type)
	}
}

// Open creates the reporter described by c. For TypePipe, opening a named pipe blocks
// until the host opens the other end.
func Open(c Config, opts ...Option) (Reporter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Type == TypeFile {
		return NewFileReporter(c.ReportDir, opts...)
	}
	if c.PipePath != "" {
		f, err := os.OpenFile(c.PipePath, os.O_WRONLY, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot open reporter pipe %s", c.PipePath)
		}
		return NewPipeReporter(f, opts...), nil
	}
	f := os.NewFile(uintptr(c.FD), fmt.Sprintf("reporter-fd-%d", c.FD))
	if f == nil {
		return nil, errors.Errorf("invalid reporter file descriptor %d", c.FD)
	}
	return NewPipeReporter(f, opts...), nil
}
