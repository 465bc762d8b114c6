package types

import (
	"sync/atomic"
	"time"
)

// PeerInfo identifies the process on the other end of a unix socket
// connection. Only populated on platforms that expose SO_PEERCRED.
type PeerInfo struct {
	PID int32 `json:"pid,omitempty"`
	UID int32 `json:"uid,omitempty"`
	GID int32 `json:"gid,omitempty"`
}

// Entry is a single collected log frame.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Version   int       `json:"version"`
	ConnID    string    `json:"conn_id"`
	Peer      PeerInfo  `json:"peer"`
}

// Stats are the daemon's lifetime counters. All fields are updated with
// atomics; a Snapshot is safe to take from any goroutine.
type Stats struct {
	Accepted         atomic.Int64
	Frames           atomic.Int64
	VersionMismatch  atomic.Int64
	MalformedVersion atomic.Int64
	Incomplete       atomic.Int64
	Oversize         atomic.Int64
	InvalidUTF8      atomic.Int64
	MuxSessions      atomic.Int64
}

// StatsSnapshot is the JSON form served by the status API.
type StatsSnapshot struct {
	Accepted         int64 `json:"accepted_connections"`
	Frames           int64 `json:"frames"`
	VersionMismatch  int64 `json:"version_mismatches"`
	MalformedVersion int64 `json:"malformed_versions"`
	Incomplete       int64 `json:"incomplete_frames"`
	Oversize         int64 `json:"oversize_lines"`
	InvalidUTF8      int64 `json:"invalid_utf8_frames"`
	MuxSessions      int64 `json:"mux_sessions"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Accepted:         s.Accepted.Load(),
		Frames:           s.Frames.Load(),
		VersionMismatch:  s.VersionMismatch.Load(),
		MalformedVersion: s.MalformedVersion.Load(),
		Incomplete:       s.Incomplete.Load(),
		Oversize:         s.Oversize.Load(),
		InvalidUTF8:      s.InvalidUTF8.Load(),
		MuxSessions:      s.MuxSessions.Load(),
	}
}
