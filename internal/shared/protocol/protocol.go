// Package protocol defines the wire format shared by the collector and the
// emitter: a decimal protocol version line followed by a single message
// line, both newline-terminated. There is no length prefix and no checksum.
package protocol

import (
	"fmt"
	"io"
)

// Version is the current protocol version. Frames carrying any other
// version are rejected by the collector.
const Version = 1

// WriteFrame writes one frame to w. The message must not contain a
// newline; callers are expected to sanitize multi-line payloads first.
func WriteFrame(w io.Writer, version int, message string) error {
	if _, err := fmt.Fprintf(w, "%d\n%s\n", version, message); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
