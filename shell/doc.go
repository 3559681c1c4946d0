// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

// Package shell implements the interactive command shell over a disk
// engine handle.
//
// A [Session] owns one engine handle and dispatches named commands
// against it. The same dispatch entry point serves three frontends:
// the interactive prompt, non-interactive script input on stdin, and
// remotely submitted commands arriving through the remote package's
// server. A remote caller therefore observes exactly the semantics of
// typing the command locally.
package shell
