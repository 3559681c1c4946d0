// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/diskfish/diskfish/disk"
	"github.com/diskfish/diskfish/lib/config"
	"github.com/diskfish/diskfish/lib/process"
	"github.com/diskfish/diskfish/lib/version"
	"github.com/diskfish/diskfish/remote"
	"github.com/diskfish/diskfish/shell"
)

// pidEnvVar carries the server pid from --listen to later --remote
// invocations, through the calling shell's environment.
const pidEnvVar = "DISKFISH_PID"

// remoteFromEnv is the --remote value meaning "read the pid from the
// environment", used when the flag is given without a value.
const remoteFromEnv = "env"

// startupTimeout bounds how long --listen waits for the background
// server's socket before printing the pid anyway. Startup is normally
// milliseconds; a server that is merely slow still becomes reachable,
// and the first --remote call reports it cleanly if it never does.
const startupTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("diskfish", pflag.ContinueOnError)
	var (
		drives      []string
		readOnly    bool
		verbose     bool
		listen      bool
		remoteSpec  string
		csh         bool
		configPath  string
		socketDir   string
		showVersion bool
		listenChild bool
	)
	flags.StringArrayVarP(&drives, "add", "a", nil, "attach a disk image (repeatable)")
	flags.BoolVarP(&readOnly, "ro", "r", false, "add drives read-only")
	flags.BoolVarP(&verbose, "verbose", "v", false, "trace dispatched commands on stderr")
	flags.BoolVar(&listen, "listen", false, "start a background server and print its pid assignment")
	flags.StringVar(&remoteSpec, "remote", "", "send one command to the server with the given pid (default $"+pidEnvVar+")")
	flags.Lookup("remote").NoOptDefVal = remoteFromEnv
	flags.BoolVar(&csh, "csh", false, "make --listen print csh-style setenv syntax")
	flags.StringVar(&configPath, "config", "", "path to a config file (default $DISKFISH_CONFIG or ~/.config/diskfish/config.yaml)")
	flags.StringVar(&socketDir, "socket-dir", "", "base directory for the per-user socket directory (default /tmp)")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	flags.BoolVar(&listenChild, "listen-child", false, "")
	_ = flags.MarkHidden("listen-child")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if showVersion {
		fmt.Printf("diskfish %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flags.Changed("ro") {
		cfg.ReadOnly = readOnly
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}
	if flags.Changed("csh") {
		cfg.Csh = csh
	}
	if flags.Changed("socket-dir") {
		cfg.SocketDir = socketDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	naming := remote.Naming{BaseDir: cfg.SocketDir}

	switch {
	case listen && flags.Changed("remote"):
		return fmt.Errorf("--listen and --remote are mutually exclusive")

	case listenChild:
		return serve(cfg, drives, naming, logger)

	case listen:
		if flags.NArg() > 0 {
			return fmt.Errorf("--listen takes no command arguments, use --remote to send commands")
		}
		return spawnListener(cfg, drives, naming)

	case flags.Changed("remote"):
		return callRemote(remoteSpec, naming, flags.Args())

	default:
		return runShell(cfg, drives, logger)
	}
}

// loadConfig loads the effective configuration, honoring an explicit
// --config path over the environment and the default location.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// spawnListener re-executes this binary as a detached server and
// prints the pid assignment the calling shell evals. The assignment
// goes to stdout even when the socket has not appeared yet: a slow
// server becomes reachable moments later, and the first --remote call
// diagnoses one that died.
func spawnListener(cfg *config.Config, drives []string, naming remote.Naming) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating own binary: %w", err)
	}

	pid, err := remote.SpawnDetached(self, childArgs(cfg, drives))
	if err != nil {
		return err
	}

	if !remote.WaitReady(naming, pid, startupTimeout) {
		if unix.Kill(pid, 0) != nil {
			return fmt.Errorf("background server (pid %d) exited during startup", pid)
		}
	}

	fmt.Println(exportLine(pid, cfg.Csh))
	return nil
}

// childArgs builds the argument vector for the background server,
// forwarding the effective configuration as explicit flags so the
// child need not re-read config files.
func childArgs(cfg *config.Config, drives []string) []string {
	args := []string{"--listen-child"}
	for _, d := range drives {
		args = append(args, "--add", d)
	}
	if cfg.ReadOnly {
		args = append(args, "--ro")
	}
	if cfg.Verbose {
		args = append(args, "--verbose")
	}
	if cfg.SocketDir != "" {
		args = append(args, "--socket-dir", cfg.SocketDir)
	}
	return args
}

// exportLine formats the pid assignment for the calling shell.
func exportLine(pid int, csh bool) string {
	if csh {
		return fmt.Sprintf("setenv %s %d", pidEnvVar, pid)
	}
	return fmt.Sprintf("%s=%d; export %s", pidEnvVar, pid, pidEnvVar)
}

// serve runs the background server process: one engine, one session,
// one socket, connections handled in sequence until quit.
func serve(cfg *config.Config, drives []string, naming remote.Naming, logger *slog.Logger) error {
	handle := disk.New()
	session := &shell.Session{
		Handle:   handle,
		Out:      os.Stdout,
		Err:      os.Stderr,
		Logger:   logger,
		Verbose:  cfg.Verbose,
		ReadOnly: cfg.ReadOnly,
	}
	defer session.Close()

	for _, d := range drives {
		if err := handle.AddDrive(d, cfg.ReadOnly); err != nil {
			return fmt.Errorf("adding drive %s: %w", d, err)
		}
	}

	server := &remote.Server{
		Dispatcher: session,
		Naming:     naming,
		Logger:     logger,
	}
	if err := server.Listen(); err != nil {
		return err
	}
	logger.Info("listening for remote commands",
		"socket", server.SocketPath(), "pid", os.Getpid(), "drives", len(drives))
	return server.Serve()
}

// callRemote sends the positional arguments as one command to the
// server named by spec. A leading "-" on the command name opts out of
// killing the server when the command fails.
func callRemote(spec string, naming remote.Naming, words []string) error {
	pid, err := resolvePid(spec, os.Getenv(pidEnvVar))
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return fmt.Errorf("--remote needs a command, for example: diskfish --remote -- mount /dev/sda /")
	}

	cmd := words[0]
	exitOnError := true
	if strings.HasPrefix(cmd, "-") {
		exitOnError = false
		cmd = strings.TrimPrefix(cmd, "-")
	}

	client := &remote.Client{Naming: naming}
	result, err := client.Call(pid, cmd, words[1:], exitOnError)
	if err != nil {
		return err
	}
	if result != remote.ReplyOK {
		// The server reported the details on its own stderr.
		return fmt.Errorf("remote command %q failed", cmd)
	}
	return nil
}

// resolvePid turns the --remote flag value into a server pid, falling
// back to the environment when the flag was given without a value.
func resolvePid(spec, envValue string) (int, error) {
	source := spec
	if spec == remoteFromEnv {
		if envValue == "" {
			return 0, fmt.Errorf("%s is not set, run eval \"$(diskfish --listen)\" first or pass --remote=PID", pidEnvVar)
		}
		source = envValue
	}
	pid, err := strconv.Atoi(source)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid server pid %q", source)
	}
	return pid, nil
}

// runShell runs a local session over stdin until end of input or quit.
func runShell(cfg *config.Config, drives []string, logger *slog.Logger) error {
	handle := disk.New()
	session := &shell.Session{
		Handle:   handle,
		Out:      os.Stdout,
		Err:      os.Stderr,
		Logger:   logger,
		Verbose:  cfg.Verbose,
		ReadOnly: cfg.ReadOnly,
	}
	defer session.Close()

	for _, d := range drives {
		if err := handle.AddDrive(d, cfg.ReadOnly); err != nil {
			return fmt.Errorf("adding drive %s: %w", d, err)
		}
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		fmt.Printf("Welcome to diskfish, the disk image shell.\n\nType 'help' for a list of commands, 'quit' to leave.\n\n")
	}
	return session.Run(os.Stdin, interactive)
}
