// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/diskfish/diskfish/lib/codec"
	"github.com/diskfish/diskfish/lib/version"
)

// Dispatcher executes one named command against the session's engine
// handle. It is the same entry point used for locally-typed commands,
// so a remote caller observes identical semantics.
type Dispatcher interface {
	// Dispatch runs cmd with args. It returns the protocol result
	// (ReplyOK or ReplyFailure) and whether the session has been
	// asked to quit. exitOnError reflects the caller's error-handling
	// mode; the server itself decides what to do with a failed
	// exit-on-error call after the reply is sent.
	Dispatch(cmd string, args []string, exitOnError bool) (result int, quit bool)
}

// Server is a listening remote-control endpoint. Connections are
// handled strictly one at a time: the dispatch state behind
// Dispatcher (the engine handle above all) is single-session by
// design, and serializing here is what makes that safe without locks.
type Server struct {
	// Dispatcher executes remotely-submitted commands. Required.
	Dispatcher Dispatcher

	// Naming is the socket naming convention. The zero value uses the
	// standard per-user directory under /tmp.
	Naming Naming

	// Version is the handshake string. Empty means this build's
	// version.Info().
	Version string

	// Logger receives server-side protocol events. Nil means
	// slog.Default(). Fatal startup errors are returned, not logged;
	// they reach the process's original stderr through the caller.
	Logger *slog.Logger

	listener   *net.UnixListener
	socketPath string

	// installOutput takes ownership of the received descriptor and
	// makes it the process's standard output. Nil means dup onto fd 1.
	// Injectable for tests, which must not hijack the test runner's
	// stdout.
	installOutput func(*os.File) error

	// resetOutput points the process's standard output back at
	// /dev/null between connections, so that callers capturing the
	// launch command's output via command substitution never block on
	// an unread pipe. Nil means the dup-based default.
	resetOutput func() error

	// exit terminates the whole process for the exit-on-error
	// contract. Nil means os.Exit. Injectable for tests.
	exit func(code int)
}

// Listen binds the server's socket, named after this process's pid.
// A stale socket file left by an earlier process with the same pid is
// removed first.
func (s *Server) Listen() error {
	path, err := s.Naming.SocketPath(os.Getpid())
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", path, err)
	}

	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return fmt.Errorf("listening on %s: %w", path, err)
	}

	s.listener = listener
	s.socketPath = path
	return nil
}

// SocketPath returns the bound socket path. Empty before Listen.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Serve accepts and handles connections until a dispatched command
// requests quit, then removes the socket file and closes the
// listener. Accept, the descriptor receive, and each Call read block
// without timeout: a hung client parks the single connection slot,
// which is the accepted cost of a protocol meant for one cooperative
// controller.
func (s *Server) Serve() error {
	if s.listener == nil {
		return fmt.Errorf("server is not listening, call Listen first")
	}
	logger := s.logger()

	quit := false
	for !quit {
		// Park stdout on /dev/null before blocking in accept, so
		// output between connections goes nowhere rather than to the
		// last client's terminal.
		if err := s.reset(); err != nil {
			logger.Warn("resetting stdout", "error", err)
		}

		conn, err := s.listener.AcceptUnix()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			logger.Error("accept failed", "error", err)
			continue
		}
		quit = s.handleConnection(conn)
	}

	s.Close()
	return nil
}

// Close removes the socket file and closes the listener. Safe to call
// more than once.
func (s *Server) Close() {
	if s.socketPath != "" {
		_ = os.Remove(s.socketPath)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// handleConnection runs one connection to completion: descriptor
// receive, handshake, then Call/Reply pairs until the client closes.
// Protocol failures abort this connection only; the server keeps
// accepting. Returns whether a dispatched command requested quit.
//
// Every return path closes the accepted socket (deferred) and has
// already disposed of the received descriptor; the server is
// long-lived and a per-connection leak would compound.
func (s *Server) handleConnection(conn *net.UnixConn) bool {
	defer conn.Close()
	logger := s.logger()

	clientOut, err := ReceiveStdout(conn)
	if err != nil {
		logger.Error("aborting connection", "error", err)
		return false
	}
	// install takes ownership of clientOut: the default dups it onto
	// fd 1 and closes the original.
	if err := s.install(clientOut); err != nil {
		clientOut.Close()
		logger.Error("installing client stdout", "error", err)
		return false
	}

	decoder := codec.NewDecoder(conn)
	encoder := codec.NewEncoder(conn)

	var hello Hello
	if err := decoder.Decode(&hello); err != nil {
		logger.Error("protocol error: could not read hello", "error", err)
		return false
	}
	if err := CheckVersion(s.version(), hello.Version); err != nil {
		logger.Error("rejecting connection", "error", err)
		return false
	}

	quit := false
	for {
		var call Call
		if err := decoder.Decode(&call); err != nil {
			// A clean close at a message boundary ends the
			// connection; anything else is a protocol error.
			if !errors.Is(err, io.EOF) {
				logger.Error("protocol error: could not read call", "error", err)
			}
			return quit
		}
		if err := call.Validate(); err != nil {
			logger.Error("aborting connection", "error", err)
			return quit
		}

		logger.Debug("dispatching remote command", "cmd", call.Cmd, "args", call.Args)
		result, askedQuit := s.Dispatcher.Dispatch(call.Cmd, call.Args, call.ExitOnError)
		if askedQuit {
			quit = true
		}

		if err := encoder.Encode(Reply{R: result}); err != nil {
			logger.Error("protocol error: could not send reply", "error", err)
			return quit
		}

		// The remote caller's abort-on-error mode kills the whole
		// server, not just this connection: a scripted controller
		// wants the session gone after its first failure.
		if call.ExitOnError && result == ReplyFailure {
			_ = os.Remove(s.socketPath)
			s.doExit(1)
			return quit // reached only with an injected exit
		}
	}
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Server) version() string {
	if s.Version != "" {
		return s.Version
	}
	return version.Info()
}

func (s *Server) install(f *os.File) error {
	if s.installOutput != nil {
		return s.installOutput(f)
	}
	if err := unix.Dup3(int(f.Fd()), 1, 0); err != nil {
		return fmt.Errorf("dup onto stdout: %w", err)
	}
	return f.Close()
}

func (s *Server) reset() error {
	if s.resetOutput != nil {
		return s.resetOutput()
	}
	devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	defer devnull.Close()
	if err := unix.Dup3(int(devnull.Fd()), 1, 0); err != nil {
		return fmt.Errorf("dup onto stdout: %w", err)
	}
	return nil
}

func (s *Server) doExit(code int) {
	if s.exit != nil {
		s.exit(code)
		return
	}
	os.Exit(code)
}
