// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/diskfish/diskfish/lib/codec"
)

func TestCallRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		call Call
	}{
		{"no args", Call{Cmd: "launch"}},
		{"empty args", Call{Cmd: "ls", Args: []string{}}},
		{"plain args", Call{Cmd: "mount", Args: []string{"/dev/sda", "/"}}},
		{
			// Arguments survive verbatim: no delimiter in the encoding
			// can collide with argument content.
			"hostile args",
			Call{Cmd: "echo-daemon", Args: []string{"a b", "line\nbreak", "", "\x00nul", "socket-1"}},
		},
		{"exit on error", Call{Cmd: "rm", Args: []string{"/x"}, ExitOnError: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := codec.Marshal(tt.call)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var got Call
			if err := codec.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got.Cmd != tt.call.Cmd {
				t.Errorf("Cmd = %q, want %q", got.Cmd, tt.call.Cmd)
			}
			if !slices.Equal(got.Args, tt.call.Args) {
				t.Errorf("Args = %q, want %q", got.Args, tt.call.Args)
			}
			if got.ExitOnError != tt.call.ExitOnError {
				t.Errorf("ExitOnError = %v, want %v", got.ExitOnError, tt.call.ExitOnError)
			}
		})
	}
}

func TestWireStreamOrdering(t *testing.T) {
	var buf bytes.Buffer
	encoder := codec.NewEncoder(&buf)
	for _, r := range []int{ReplyOK, ReplyFailure, ReplyOK} {
		if err := encoder.Encode(Reply{R: r}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := codec.NewDecoder(&buf)
	for i, want := range []int{ReplyOK, ReplyFailure, ReplyOK} {
		var reply Reply
		if err := decoder.Decode(&reply); err != nil {
			t.Fatalf("Decode %d: %v", i, err)
		}
		if reply.R != want {
			t.Errorf("reply %d = %d, want %d", i, reply.R, want)
		}
	}
}

func TestCallValidate(t *testing.T) {
	tests := []struct {
		name    string
		call    Call
		wantErr bool
	}{
		{"minimal", Call{Cmd: "quit"}, false},
		{"at command limit", Call{Cmd: strings.Repeat("c", MaxCmdBytes)}, false},
		{"empty command", Call{}, true},
		{"command too long", Call{Cmd: strings.Repeat("c", MaxCmdBytes+1)}, true},
		{"too many args", Call{Cmd: "echo", Args: make([]string, MaxArgs+1)}, true},
		{"arg too long", Call{Cmd: "write", Args: []string{strings.Repeat("x", MaxArgBytes+1)}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("Validate accepted an out-of-bounds call")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if err != nil && !errors.Is(err, ErrProtocol) {
				t.Errorf("error %v is not an ErrProtocol", err)
			}
		})
	}
}

func TestCheckVersion(t *testing.T) {
	if err := CheckVersion("1.2.3-abc", "1.2.3-abc"); err != nil {
		t.Fatalf("CheckVersion on equal strings: %v", err)
	}

	err := CheckVersion("1.2.3-abc", "1.2.3-def")
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("CheckVersion = %v, want ErrVersionMismatch", err)
	}
	// The message names both sides; that is the operator's only clue.
	for _, v := range []string{"1.2.3-abc", "1.2.3-def"} {
		if !strings.Contains(err.Error(), v) {
			t.Errorf("mismatch error %q does not mention %q", err, v)
		}
	}
}
