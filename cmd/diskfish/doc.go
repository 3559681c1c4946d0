// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

// Command diskfish is an interactive shell for inspecting and
// modifying disk images.
//
// Run with no mode flags it reads commands from stdin, with a prompt
// when stdin is a terminal. With --listen it detaches a background
// server on a per-user Unix socket and prints a shell assignment for
// DISKFISH_PID; with --remote it sends one command to that server,
// whose output appears on the caller's own stdout. This lets shell
// scripts drive a single long-lived session:
//
//	eval "$(diskfish --listen -a disk.img)"
//	diskfish --remote -- run
//	diskfish --remote -- mount /dev/sda /
//	diskfish --remote -- cat /etc/motd
//	diskfish --remote -- quit
package main
