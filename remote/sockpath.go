// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// sunPathMax is the usable sockaddr_un path budget: 108 bytes
// including the terminating NUL.
const sunPathMax = 107

// Naming encapsulates the socket naming convention: a private
// per-user directory <base>/.diskfish-<euid> containing one socket
// file per server process, socket-<pid>.
//
// The base directory is a world-writable shared location, so the
// per-user directory is re-validated on every use: it must be a real
// directory (not a symlink another local user planted), owned by the
// effective uid, with mode exactly 0700. A violation is a fatal
// configuration error, never something to work around silently.
type Naming struct {
	// BaseDir is the shared temporary-files location. Empty means
	// /tmp.
	BaseDir string
}

// base returns the effective base directory.
func (n Naming) base() string {
	if n.BaseDir == "" {
		return "/tmp"
	}
	return n.BaseDir
}

// Dir returns the private per-user socket directory path without
// creating or validating it.
func (n Naming) Dir() string {
	return fmt.Sprintf("%s/.diskfish-%d", n.base(), os.Geteuid())
}

// EnsureDir creates the private per-user directory if needed and
// validates its ownership and permissions. Returns the directory
// path.
func (n Naming) EnsureDir() (string, error) {
	dir := n.Dir()

	if err := os.Mkdir(dir, 0o700); err != nil && !os.IsExist(err) {
		return "", fmt.Errorf("creating socket directory %s: %w", dir, err)
	}

	// Lstat, not Stat: a symlink planted at this path must fail the
	// is-a-directory check rather than be followed.
	var stat unix.Stat_t
	if err := unix.Lstat(dir, &stat); err != nil {
		return "", fmt.Errorf("checking socket directory %s: %w", dir, err)
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFDIR {
		return "", fmt.Errorf("socket directory %s is not a directory", dir)
	}
	if perm := stat.Mode & 0o777; perm != 0o700 {
		return "", fmt.Errorf("socket directory %s has insecure permissions %04o, want 0700", dir, perm)
	}
	if int(stat.Uid) != os.Geteuid() {
		return "", fmt.Errorf("socket directory %s is owned by uid %d, not the effective uid %d", dir, stat.Uid, os.Geteuid())
	}

	return dir, nil
}

// SocketPath ensures the private directory and returns the socket
// path for the given server process id. Paths exceeding the
// platform's sockaddr_un limit fail fast instead of being silently
// truncated by the kernel.
func (n Naming) SocketPath(pid int) (string, error) {
	dir, err := n.EnsureDir()
	if err != nil {
		return "", err
	}

	path := fmt.Sprintf("%s/socket-%d", dir, pid)
	if len(path) > sunPathMax {
		return "", fmt.Errorf("socket path %s is %d bytes, exceeding the %d-byte unix socket path limit",
			path, len(path), sunPathMax)
	}
	return path, nil
}
