//go:build unix

package handoff

import (
	"os/signal"

	"golang.org/x/sys/unix"
)

// execFn is replaced in tests.
var execFn = replaceImage

// replaceImage calls execve. Signal dispositions installed by the
// supervisor are reset first so the application starts with the defaults.
func replaceImage(path string, argv, env []string) error {
	signal.Reset()
	return unix.Exec(path, argv, env)
}
