// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote implements diskfish's remote-control protocol: the
// --listen server and the --remote client.
//
// A listening diskfish process accepts connections on a Unix-domain
// socket under a private per-user directory, named after the server's
// process id. Each client invocation connects, hands over its own
// stdout file descriptor (SCM_RIGHTS), performs a version handshake,
// sends one command, and receives one integer reply. The descriptor
// transfer is what makes remote command output appear at the client's
// terminal rather than the server's: between connections the server's
// stdout points at /dev/null.
//
// The server is deliberately sequential. One connection is handled to
// completion before the next accept, which is what lets the shared
// command dispatch state (including the engine handle) go unlocked:
// the whole mechanism exists to let one controller at a time steer a
// single interactive session.
//
// On the wire each message is one CBOR item (lib/codec): Hello, then
// any number of Call/Reply pairs in strict order. Version strings
// must match exactly; this protocol connects two invocations of the
// same build, nothing else.
package remote
