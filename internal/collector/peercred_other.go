//go:build !linux

package collector

import (
	"net"

	"logsock/internal/shared/types"
)

// peerCredentials is a no-op where SO_PEERCRED is unavailable.
func peerCredentials(conn net.Conn) types.PeerInfo {
	return types.PeerInfo{}
}
