package cmd

import (
	"io"
	"os"
)

// listWarningThreshold is the number of items above which we warn about using --limit.
const listWarningThreshold = 100

// errWriter receives warnings and --watch failures.
var errWriter io.Writer = os.Stderr

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
