// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// SendStdout transmits f's descriptor to the peer as SCM_RIGHTS
// ancillary data. One byte of ordinary payload rides along because
// the kernel will not deliver ancillary data on a zero-length
// message.
func SendStdout(conn *net.UnixConn, f *os.File) error {
	rights := unix.UnixRights(int(f.Fd()))
	n, oobn, err := conn.WriteMsgUnix([]byte{0}, rights, nil)
	if err != nil {
		return fmt.Errorf("%w: sending stdout descriptor: %v", ErrProtocol, err)
	}
	if n != 1 || oobn != len(rights) {
		return fmt.Errorf("%w: short stdout descriptor send (%d payload, %d ancillary bytes)", ErrProtocol, n, oobn)
	}
	return nil
}

// ReceiveStdout blocks until the peer's stdout descriptor arrives and
// returns it as a file. Exactly one control message carrying exactly
// one descriptor is accepted; anything else is a protocol error and
// the caller must abort the connection, since command output would
// otherwise land on an unknown target.
func ReceiveStdout(conn *net.UnixConn) (*os.File, error) {
	payload := make([]byte, 1)
	oob := make([]byte, unix.CmsgSpace(4)) // space for one int fd

	_, oobn, _, _, err := conn.ReadMsgUnix(payload, oob)
	if err != nil {
		return nil, fmt.Errorf("%w: receiving stdout descriptor: %v", ErrProtocol, err)
	}

	messages, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return nil, fmt.Errorf("%w: parsing control message: %v", ErrProtocol, err)
	}
	if len(messages) != 1 {
		return nil, fmt.Errorf("%w: expected one control message, got %d", ErrProtocol, len(messages))
	}

	fds, err := unix.ParseUnixRights(&messages[0])
	if err != nil {
		return nil, fmt.Errorf("%w: control message does not carry a descriptor: %v", ErrProtocol, err)
	}
	if len(fds) != 1 {
		for _, fd := range fds {
			unix.Close(fd)
		}
		return nil, fmt.Errorf("%w: expected one descriptor, got %d", ErrProtocol, len(fds))
	}

	unix.CloseOnExec(fds[0])
	return os.NewFile(uintptr(fds[0]), "remote-stdout"), nil
}
