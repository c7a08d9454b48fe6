// Package file reads preparation inputs from the local disk.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Stdin is the path that selects standard input instead of a file.
const Stdin = "-"

// Local opens one file, or standard input when its path is Stdin.
type Local struct {
	path  string
	stdin io.Reader
}

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path, stdin: os.Stdin} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// Open fails fast with ctx.Err() when ctx is already done. Missing files
// still satisfy errors.Is(err, os.ErrNotExist) after wrapping.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.path == Stdin {
		// The caller owns the process stdin, so Close leaves it open.
		return io.NopCloser(l.stdin), nil
	}

	st, err := os.Stat(l.path)
	switch {
	case err != nil:
		return nil, fmt.Errorf("input %s: %w", l.path, err)
	case st.IsDir():
		return nil, fmt.Errorf("input %s: is a directory", l.path)
	case !st.Mode().IsRegular() && st.Mode()&os.ModeNamedPipe == 0:
		return nil, fmt.Errorf("input %s: not a regular file (%s)", l.path, st.Mode().Type())
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", l.path, err)
	}
	return f, nil
}
