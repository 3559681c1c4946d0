// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

// Package disk defines the disk-image engine handle that the shell
// dispatches commands against, and provides an in-memory engine
// implementation.
//
// The shell and the remote-control subsystem only ever see [Handle];
// the engine behind it is interchangeable. The in-memory engine
// models the lifecycle a real image engine imposes: drives are added
// first, the engine is launched, filesystems are mounted, and only
// then do file operations work. Each stage reports a precise error
// when used out of order.
package disk

import (
	"errors"
	"io"
)

// Common lifecycle errors returned by Handle operations.
var (
	ErrClosed      = errors.New("handle is closed")
	ErrNotLaunched = errors.New("engine is not launched, use the run command first")
	ErrLaunched    = errors.New("engine is already launched")
	ErrNoDrives    = errors.New("no drives have been added")
	ErrNotMounted  = errors.New("no filesystem is mounted")
)

// Handle is an open disk-image engine. Operations return an error on
// failure; the shell maps that to the protocol's -1 result. A Handle
// is not safe for concurrent use; the server loop guarantees a single
// caller at a time.
type Handle interface {
	// AddDrive attaches a disk image. Must be called before Launch.
	AddDrive(path string, readOnly bool) error

	// Launch starts the engine over the added drives.
	Launch() error

	// Mount mounts a device's filesystem at mountpoint.
	Mount(device, mountpoint string) error

	// EchoDaemon round-trips words through the engine and returns
	// them joined with single spaces. Exists to verify the engine is
	// reachable.
	EchoDaemon(words []string) (string, error)

	// Ls lists the names in a directory, sorted.
	Ls(dir string) ([]string, error)

	// Cat returns the contents of a file.
	Cat(path string) ([]byte, error)

	// Write creates or replaces a file with the given contents.
	Write(path string, data []byte) error

	// Rm removes a file.
	Rm(path string) error

	// Mkdir creates a directory.
	Mkdir(path string) error

	// TgzIn unpacks a gzip-compressed tar stream under dir.
	TgzIn(r io.Reader, dir string) error

	// TgzOut packs the tree under dir into a gzip-compressed tar
	// stream.
	TgzOut(dir string, w io.Writer) error

	// Close shuts the engine down and releases the handle. Further
	// operations fail with ErrClosed.
	Close() error
}
