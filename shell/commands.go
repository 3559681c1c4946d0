// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package shell

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/diskfish/diskfish/lib/version"
)

// command is one shell command. minArgs and maxArgs bound the
// argument count; maxArgs of -1 means unlimited.
type command struct {
	name    string
	aliases []string
	summary string
	usage   string
	minArgs int
	maxArgs int
	run     func(s *Session, args []string) error
}

var commands []*command

func init() {
	commands = []*command{
		{
			name:    "add",
			aliases: []string{"add-drive"},
			summary: "attach a disk image",
			usage:   "add filename",
			minArgs: 1, maxArgs: 1,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				return h.AddDrive(args[0], s.ReadOnly)
			},
		},
		{
			name:    "run",
			aliases: []string{"launch"},
			summary: "launch the engine over the added drives",
			usage:   "run",
			minArgs: 0, maxArgs: 0,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				return h.Launch()
			},
		},
		{
			name:    "mount",
			summary: "mount a device's filesystem",
			usage:   "mount device mountpoint",
			minArgs: 2, maxArgs: 2,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				return h.Mount(args[0], args[1])
			},
		},
		{
			name:    "ls",
			summary: "list the names in a directory",
			usage:   "ls directory",
			minArgs: 1, maxArgs: 1,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				names, err := h.Ls(args[0])
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(s.Out, name)
				}
				return nil
			},
		},
		{
			name:    "cat",
			summary: "print the contents of a file",
			usage:   "cat path",
			minArgs: 1, maxArgs: 1,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				data, err := h.Cat(args[0])
				if err != nil {
					return err
				}
				_, err = s.Out.Write(data)
				return err
			},
		},
		{
			name:    "write",
			summary: "create or replace a file with literal content",
			usage:   "write path content",
			minArgs: 2, maxArgs: 2,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				return h.Write(args[0], []byte(args[1]))
			},
		},
		{
			name:    "rm",
			summary: "remove a file",
			usage:   "rm path",
			minArgs: 1, maxArgs: 1,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				return h.Rm(args[0])
			},
		},
		{
			name:    "mkdir",
			summary: "create a directory",
			usage:   "mkdir path",
			minArgs: 1, maxArgs: 1,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				return h.Mkdir(args[0])
			},
		},
		{
			name:    "tgz-in",
			summary: "unpack a local gzip-compressed tarball into a directory",
			usage:   "tgz-in tarball directory",
			minArgs: 2, maxArgs: 2,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				return h.TgzIn(f, args[1])
			},
		},
		{
			name:    "tgz-out",
			summary: "pack a directory into a local gzip-compressed tarball",
			usage:   "tgz-out directory tarball",
			minArgs: 2, maxArgs: 2,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				f, err := os.Create(args[1])
				if err != nil {
					return err
				}
				if err := h.TgzOut(args[0], f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			},
		},
		{
			name:    "echo",
			summary: "print its arguments",
			usage:   "echo [words ...]",
			minArgs: 0, maxArgs: -1,
			run: func(s *Session, args []string) error {
				_, err := fmt.Fprintln(s.Out, strings.Join(args, " "))
				return err
			},
		},
		{
			name:    "echo-daemon",
			summary: "round-trip words through the engine",
			usage:   "echo-daemon [words ...]",
			minArgs: 0, maxArgs: -1,
			run: func(s *Session, args []string) error {
				h, err := s.handle()
				if err != nil {
					return err
				}
				out, err := h.EchoDaemon(args)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(s.Out, out)
				return err
			},
		},
		{
			name:    "sleep",
			summary: "pause for a number of seconds",
			usage:   "sleep secs",
			minArgs: 1, maxArgs: 1,
			run: func(s *Session, args []string) error {
				secs, err := strconv.Atoi(args[0])
				if err != nil || secs < 0 {
					return fmt.Errorf("%q is not a non-negative number of seconds", args[0])
				}
				time.Sleep(time.Duration(secs) * time.Second)
				return nil
			},
		},
		{
			name:    "version",
			summary: "print the program version",
			usage:   "version",
			minArgs: 0, maxArgs: 0,
			run: func(s *Session, args []string) error {
				_, err := fmt.Fprintln(s.Out, version.Full())
				return err
			},
		},
		{
			name:    "help",
			summary: "list commands, or describe one command",
			usage:   "help [cmd]",
			minArgs: 0, maxArgs: 1,
			run: func(s *Session, args []string) error {
				if len(args) == 1 {
					c := lookup(strings.ReplaceAll(args[0], "_", "-"))
					if c == nil {
						return fmt.Errorf("%s: unknown command", args[0])
					}
					fmt.Fprintf(s.Out, "%s - %s\n    usage: %s\n", c.name, c.summary, c.usage)
					return nil
				}
				names := make([]string, 0, len(commands))
				width := 0
				for _, c := range commands {
					names = append(names, c.name)
					if len(c.name) > width {
						width = len(c.name)
					}
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(s.Out, "%-*s  %s\n", width, name, lookup(name).summary)
				}
				return nil
			},
		},
		{
			name:    "quit",
			aliases: []string{"exit", "q"},
			summary: "shut down the engine and leave the shell",
			usage:   "quit",
			minArgs: 0, maxArgs: 0,
			run: func(s *Session, args []string) error {
				s.quit = true
				return s.Close()
			},
		},
	}
}

var commandIndex map[string]*command

func init() {
	commandIndex = buildIndex()
}

func buildIndex() map[string]*command {
	index := make(map[string]*command)
	for _, c := range commands {
		index[c.name] = c
		for _, alias := range c.aliases {
			index[alias] = c
		}
	}
	return index
}

// lookup resolves a hyphen-normalized command name or alias.
func lookup(name string) *command {
	return commandIndex[name]
}
