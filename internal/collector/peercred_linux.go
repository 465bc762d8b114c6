//go:build linux

package collector

import (
	"net"

	"golang.org/x/sys/unix"

	"logsock/internal/shared/types"
)

// peerCredentials reads SO_PEERCRED from the connection. Failures are
// not fatal; the frame is still collected, just unattributed.
func peerCredentials(conn net.Conn) types.PeerInfo {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return types.PeerInfo{}
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return types.PeerInfo{}
	}
	var cred *unix.Ucred
	var credErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if ctrlErr != nil || credErr != nil || cred == nil {
		return types.PeerInfo{}
	}
	return types.PeerInfo{
		PID: cred.Pid,
		UID: int32(cred.Uid),
		GID: int32(cred.Gid),
	}
}
