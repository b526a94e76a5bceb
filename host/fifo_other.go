//go:build !unix

package host

import "github.com/pkg/errors"

// MakeNamedPipe is not supported on this platform.
func MakeNamedPipe(path string) error {
	return errors.Errorf("cannot create named pipe %s: not supported on this platform", path)
}
