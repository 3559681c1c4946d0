// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// SpawnDetached starts binary with args as a detached background
// process in its own session, stdin and stdout on /dev/null, stderr
// inherited so fatal startup errors still reach the launching
// terminal. Returns the child's process id; the parent never waits on
// the child again.
func SpawnDetached(binary string, args []string) (int, error) {
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	defer devnull.Close()

	cmd := exec.Command(binary, args...)
	cmd.Stdin = devnull
	cmd.Stdout = devnull
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting background server: %w", err)
	}

	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

// WaitReady polls for the server socket of pid to appear, backing off
// between attempts, until timeout. Returns false if the socket never
// appeared or the child died first. Best-effort: the server creates
// its socket only after it has forked away from the launcher, so a
// very slow child may bind after the launcher has already reported
// the pid; callers print the pid regardless.
func WaitReady(naming Naming, pid int, timeout time.Duration) bool {
	path, err := naming.SocketPath(pid)
	if err != nil {
		return false
	}

	deadline := time.Now().Add(timeout)
	for attempt := 0; ; attempt++ {
		if _, err := os.Lstat(path); err == nil {
			return true
		}
		if err := unix.Kill(pid, 0); err != nil {
			// The child is gone; its startup error went to stderr.
			return false
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Duration(25*(attempt+1)) * time.Millisecond)
	}
}
