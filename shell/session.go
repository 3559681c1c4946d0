// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package shell

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/diskfish/diskfish/disk"
	"github.com/diskfish/diskfish/remote"
)

// Prompt is printed before each interactive input line.
const Prompt = "><fs> "

// Session is one shell session over a disk engine handle. It is not
// safe for concurrent use; the remote server serializes connections
// for exactly this reason.
type Session struct {
	// Handle is the engine the commands operate on. The quit command
	// closes it and clears the field.
	Handle disk.Handle

	// Out receives command output. In a listening server this is the
	// process's stdout, which the server points at the current remote
	// client's terminal.
	Out io.Writer

	// Err receives error messages.
	Err io.Writer

	// Logger receives dispatch traces when Verbose is set. Nil means
	// slog.Default().
	Logger *slog.Logger

	// Verbose enables dispatch tracing.
	Verbose bool

	// ReadOnly makes every added drive read-only regardless of how it
	// was requested.
	ReadOnly bool

	quit bool
}

// Dispatch runs one named command. Underscores in the name are
// accepted as spelling variants of hyphens, so remote callers built by
// careless scripts still resolve. The int result is remote.ReplyOK or
// remote.ReplyFailure; the bool reports whether the command asked the
// session to quit.
//
// The exitOnError flag is the caller's error-handling mode. Dispatch
// itself never exits: the local script loop and the remote server each
// apply their own consequence to a failed call.
func (s *Session) Dispatch(cmd string, args []string, exitOnError bool) (int, bool) {
	name := strings.ReplaceAll(cmd, "_", "-")
	c := lookup(name)
	if c == nil {
		fmt.Fprintf(s.Err, "%s: unknown command, use help to list commands\n", cmd)
		return remote.ReplyFailure, s.quit
	}

	if s.Verbose {
		s.logger().Debug("dispatching command",
			"cmd", c.name, "args", args, "exit_on_error", exitOnError)
	}

	if len(args) < c.minArgs || (c.maxArgs >= 0 && len(args) > c.maxArgs) {
		fmt.Fprintf(s.Err, "%s: wrong number of arguments, usage: %s\n", c.name, c.usage)
		return remote.ReplyFailure, s.quit
	}

	if err := c.run(s, args); err != nil {
		fmt.Fprintf(s.Err, "%s: %v\n", c.name, err)
		return remote.ReplyFailure, s.quit
	}
	return remote.ReplyOK, s.quit
}

// Run reads and executes commands from in until end of input or quit.
// When interactive, a prompt is printed and a failed command returns
// to the prompt; otherwise any failure aborts the remaining script,
// unless the line opted out with a leading "-".
func (s *Session) Run(in io.Reader, interactive bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	for {
		if interactive {
			fmt.Fprint(s.Out, Prompt)
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		exitOnError := !interactive
		if strings.HasPrefix(line, "-") {
			exitOnError = false
			line = strings.TrimSpace(line[1:])
			if line == "" {
				continue
			}
		}

		tokens, err := Parse(line)
		if err != nil {
			fmt.Fprintf(s.Err, "parse error: %v\n", err)
			if exitOnError {
				return fmt.Errorf("parsing input line: %w", err)
			}
			continue
		}

		result, quit := s.Dispatch(tokens[0], tokens[1:], exitOnError)
		if quit {
			return nil
		}
		if result != remote.ReplyOK && exitOnError {
			// The command already reported its error on Err.
			return fmt.Errorf("command %q failed", tokens[0])
		}
	}
	return scanner.Err()
}

// Close shuts down the engine handle, once. Safe to call after quit.
func (s *Session) Close() error {
	if s.Handle == nil {
		return nil
	}
	err := s.Handle.Close()
	s.Handle = nil
	return err
}

// handle returns the engine handle, or an error after quit.
func (s *Session) handle() (disk.Handle, error) {
	if s.Handle == nil {
		return nil, fmt.Errorf("the session has been shut down")
	}
	return s.Handle, nil
}

func (s *Session) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
