// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"errors"
	"fmt"
)

// Message size limits. All communication is over a local socket whose
// directory permissions restrict peers to the same user, so these
// bound allocation against a malformed local client rather than
// defend against the network.
const (
	// MaxCmdBytes is the maximum length of a command name.
	MaxCmdBytes = 4096

	// MaxArgs is the maximum number of arguments in one Call.
	MaxArgs = 4096

	// MaxArgBytes is the maximum length of a single argument.
	MaxArgBytes = 16 << 20
)

// Reply result codes. The protocol defines no other values.
const (
	// ReplyOK is the result of a successfully dispatched command.
	ReplyOK = 0

	// ReplyFailure is the result of a command that ran and failed.
	ReplyFailure = -1
)

// ErrProtocol tags failures of the wire exchange itself: truncated or
// garbled messages, missing descriptors, a reply that never came.
// Distinct from a command that ran and returned failure, which is
// carried as data in a Reply.
var ErrProtocol = errors.New("protocol error")

// ErrVersionMismatch is returned when the two sides were built from
// different sources. The handshake requires byte-for-byte equality;
// there is deliberately no forward or backward compatibility.
var ErrVersionMismatch = errors.New("version mismatch")

// Hello is the per-connection handshake message, sent once by the
// client immediately after the descriptor transfer.
type Hello struct {
	// Version is the client build's version string. The server
	// rejects the connection unless it equals its own exactly.
	Version string `cbor:"version"`
}

// Call is one remote command invocation.
type Call struct {
	// Cmd is the command name, as typed at a local prompt.
	Cmd string `cbor:"cmd"`

	// Args is the argument vector, order-preserving, possibly empty.
	// Transmitted as an explicit array, never with implicit
	// termination.
	Args []string `cbor:"args"`

	// ExitOnError reflects the client's own error-handling mode: when
	// set and the dispatched command fails, the server process
	// terminates after sending the Reply, mirroring the local shell's
	// abort-on-error script semantics.
	ExitOnError bool `cbor:"exit_on_error"`
}

// Reply answers exactly one Call, in order, on the same connection.
type Reply struct {
	// R is ReplyOK or ReplyFailure.
	R int `cbor:"r"`
}

// Validate checks a Call against the protocol's size limits. A
// violation is a protocol error that aborts the connection.
func (c *Call) Validate() error {
	if c.Cmd == "" {
		return fmt.Errorf("%w: empty command name", ErrProtocol)
	}
	if len(c.Cmd) > MaxCmdBytes {
		return fmt.Errorf("%w: command name is %d bytes, limit %d", ErrProtocol, len(c.Cmd), MaxCmdBytes)
	}
	if len(c.Args) > MaxArgs {
		return fmt.Errorf("%w: %d arguments, limit %d", ErrProtocol, len(c.Args), MaxArgs)
	}
	for i, arg := range c.Args {
		if len(arg) > MaxArgBytes {
			return fmt.Errorf("%w: argument %d is %d bytes, limit %d", ErrProtocol, i, len(arg), MaxArgBytes)
		}
	}
	return nil
}

// CheckVersion compares the local and remote version strings,
// returning an ErrVersionMismatch that names both on inequality. The
// two versions must match exactly.
func CheckVersion(local, remote string) error {
	if local != remote {
		return fmt.Errorf("%w: this side is version %q, peer is version %q; the two versions must match exactly",
			ErrVersionMismatch, local, remote)
	}
	return nil
}
