// Package sink fans collected entries out to their consumers. Sinks are
// invoked synchronously from the connection handler; implementations must
// not block.
package sink

import (
	"fmt"
	"io"
	"os"

	"logsock/internal/shared/types"
	"logsock/internal/store"
)

// Sink consumes one accepted frame.
type Sink interface {
	Consume(e *types.Entry)
}

// ConsoleSink prints the raw message to its writer, one line per frame.
// This is the collector's primary observable behavior: the collected
// stream stays unformatted, without timestamps or levels of its own.
type ConsoleSink struct {
	w io.Writer
}

// NewConsole returns a sink writing to w. Pass nil for stdout.
func NewConsole(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Consume(e *types.Entry) {
	fmt.Fprintln(s.w, e.Message)
}

// StoreSink appends entries to the history ring.
type StoreSink struct {
	ring *store.Ring
}

func NewStore(ring *store.Ring) *StoreSink {
	return &StoreSink{ring: ring}
}

func (s *StoreSink) Consume(e *types.Entry) {
	s.ring.Append(e)
}

// Broadcaster is implemented by the web hub. Declared here so the sink
// package does not depend on the web service.
type Broadcaster interface {
	BroadcastEntry(e *types.Entry)
}

// HubSink pushes entries to the live-tail hub. The hub's broadcast is
// non-blocking, so a stalled websocket client cannot back up the
// collector.
type HubSink struct {
	hub Broadcaster
}

func NewHub(hub Broadcaster) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Consume(e *types.Entry) {
	s.hub.BroadcastEntry(e)
}
