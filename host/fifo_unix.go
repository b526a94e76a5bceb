//go:build unix

package host

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// MakeNamedPipe creates a FIFO at path that a plugin can report to by setting
// TESTSOLAR_REPORTER_PIPE. Opening either end blocks until the other end is opened.
func MakeNamedPipe(path string) error {
	if err := unix.Mkfifo(path, 0o600); err != nil {
		return errors.Wrapf(err, "cannot create named pipe %s", path)
	}
	return nil
}
