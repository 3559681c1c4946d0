// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for the diskfish
// binary. It centralizes the one legitimate raw-stderr pattern that
// exists before the structured logger or the shell's own error
// reporting is available: fatal error reporting from main().
package process
