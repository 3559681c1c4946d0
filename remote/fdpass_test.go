// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bufio"
	"net"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// socketPair returns both ends of a connected Unix stream socket.
func socketPair(t *testing.T) (*net.UnixConn, *net.UnixConn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}

	wrap := func(fd int) *net.UnixConn {
		file := os.NewFile(uintptr(fd), "socketpair")
		defer file.Close() // net.FileConn dups the descriptor
		conn, err := net.FileConn(file)
		if err != nil {
			t.Fatalf("FileConn: %v", err)
		}
		unixConn, ok := conn.(*net.UnixConn)
		if !ok {
			t.Fatalf("FileConn returned %T, want *net.UnixConn", conn)
		}
		return unixConn
	}

	left, right := wrap(fds[0]), wrap(fds[1])
	t.Cleanup(func() {
		left.Close()
		right.Close()
	})
	return left, right
}

func TestStdoutTransfer(t *testing.T) {
	client, server := socketPair(t)

	pipeRead, pipeWrite, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer pipeRead.Close()
	defer pipeWrite.Close()

	sent := make(chan error, 1)
	go func() {
		sent <- SendStdout(client, pipeWrite)
	}()

	received, err := ReceiveStdout(server)
	if err != nil {
		t.Fatalf("ReceiveStdout: %v", err)
	}
	defer received.Close()
	if err := <-sent; err != nil {
		t.Fatalf("SendStdout: %v", err)
	}

	// The received descriptor is a duplicate of the pipe's write end:
	// bytes written through it come out of the original read end.
	if _, err := received.WriteString("crossed over\n"); err != nil {
		t.Fatalf("writing through received descriptor: %v", err)
	}
	line, err := bufio.NewReader(pipeRead).ReadString('\n')
	if err != nil {
		t.Fatalf("reading from pipe: %v", err)
	}
	if line != "crossed over\n" {
		t.Errorf("read %q, want %q", line, "crossed over\n")
	}
}

func TestReceiveStdoutRejectsBareMessage(t *testing.T) {
	client, server := socketPair(t)

	// A plain byte with no ancillary data is not a valid descriptor
	// transfer.
	if _, err := client.Write([]byte{0}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReceiveStdout(server); err == nil {
		t.Fatal("ReceiveStdout accepted a message without a descriptor")
	}
}
