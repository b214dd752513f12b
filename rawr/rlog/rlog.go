// Package rlog is the arbiter's logging shim. The host module carries no
// structured-logging library — operator-facing warnings go straight to
// os.Stderr with fmt.Fprintf — so this package follows the same idiom
// rather than introducing one.
package rlog

import (
	"fmt"
	"os"
)

// Warnf writes a warning line to stderr, using the same "<prefix>: warning:
// ..." framing the rest of the host uses for its own warnings.
func Warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "rawr: warning: %s\n", fmt.Sprintf(format, args...))
}
