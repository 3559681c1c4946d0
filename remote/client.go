// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/diskfish/diskfish/lib/codec"
	"github.com/diskfish/diskfish/lib/version"
)

// ErrServerNotRunning is returned when the target server process does
// not exist or its socket refuses the connection. Callers report it
// as an ordinary command failure with this diagnosis, not a crash.
var ErrServerNotRunning = errors.New("looks like the server is not running")

// Client performs one-shot remote calls against a listening server.
// The zero value uses the standard socket naming, this build's
// version string, and the process's own stdout.
type Client struct {
	// Naming is the socket naming convention, matching the server's.
	Naming Naming

	// Version is the handshake string. Empty means version.Info().
	Version string

	// Stdout is the descriptor handed to the server so that remote
	// command output appears at this process's terminal. Nil means
	// os.Stdout.
	Stdout *os.File
}

// Call locates the server by pid, connects, hands over stdout, and
// performs exactly one Call/Reply round trip. The wire protocol
// allows many Calls per connection, but a client process is
// short-lived and makes exactly one request; only the server's own
// loop structure uses the general form.
//
// The int result is the Reply's code (ReplyOK or ReplyFailure) when
// err is nil. A non-nil error means the communication itself failed —
// ErrServerNotRunning, ErrVersionMismatch via a dropped connection,
// or ErrProtocol — which callers surface on stderr distinctly from a
// command that ran and returned failure.
func (c *Client) Call(pid int, cmd string, args []string, exitOnError bool) (int, error) {
	// Probe before touching the filesystem: a stale socket path from
	// a dead server would otherwise hang or confuse connect, and a
	// probe failure must not create the socket directory as a side
	// effect.
	if err := probe(pid); err != nil {
		return ReplyFailure, err
	}

	path, err := c.Naming.SocketPath(pid)
	if err != nil {
		return ReplyFailure, err
	}

	conn, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return ReplyFailure, fmt.Errorf("%w (connect %s: %v)", ErrServerNotRunning, path, err)
	}
	defer conn.Close()

	stdout := c.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	if err := SendStdout(conn, stdout); err != nil {
		return ReplyFailure, err
	}

	encoder := codec.NewEncoder(conn)
	decoder := codec.NewDecoder(conn)

	clientVersion := c.Version
	if clientVersion == "" {
		clientVersion = version.Info()
	}
	if err := encoder.Encode(Hello{Version: clientVersion}); err != nil {
		return ReplyFailure, fmt.Errorf("%w: could not send greeting: %v", ErrProtocol, err)
	}

	call := Call{Cmd: cmd, Args: args, ExitOnError: exitOnError}
	if err := call.Validate(); err != nil {
		return ReplyFailure, err
	}
	if err := encoder.Encode(call); err != nil {
		return ReplyFailure, fmt.Errorf("%w: could not send call: %v", ErrProtocol, err)
	}

	var reply Reply
	if err := decoder.Decode(&reply); err != nil {
		// The common cause is the server dropping the connection on a
		// version mismatch; its log names both versions.
		return ReplyFailure, fmt.Errorf("%w: could not decode reply (a version mismatch is reported on the server's stderr): %v", ErrProtocol, err)
	}
	if reply.R != ReplyOK && reply.R != ReplyFailure {
		return ReplyFailure, fmt.Errorf("%w: reply carries undefined result %d", ErrProtocol, reply.R)
	}

	return reply.R, nil
}

// probe checks that pid names a live process using the null signal.
func probe(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid server pid %d", pid)
	}
	switch err := unix.Kill(pid, 0); err {
	case nil:
		return nil
	case unix.ESRCH:
		return fmt.Errorf("%w (no process with pid %d)", ErrServerNotRunning, pid)
	case unix.EPERM:
		// The process exists but belongs to someone else; the
		// per-user socket directory will reject the connection if it
		// is not ours.
		return nil
	default:
		return fmt.Errorf("probing server pid %d: %w", pid, err)
	}
}
