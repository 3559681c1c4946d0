// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package disk

import (
	"errors"
	"strings"
	"testing"
)

// launched returns a handle with one drive added, launched, and
// mounted at /.
func launched(t *testing.T) Handle {
	t.Helper()
	h := New()
	if err := h.AddDrive("test.img", false); err != nil {
		t.Fatalf("AddDrive: %v", err)
	}
	if err := h.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := h.Mount("/dev/sda", "/"); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return h
}

func TestLifecycleOrdering(t *testing.T) {
	h := New()

	if err := h.Launch(); !errors.Is(err, ErrNoDrives) {
		t.Errorf("Launch without drives: got %v, want ErrNoDrives", err)
	}
	if _, err := h.EchoDaemon([]string{"x"}); !errors.Is(err, ErrNotLaunched) {
		t.Errorf("EchoDaemon before launch: got %v, want ErrNotLaunched", err)
	}
	if err := h.Mount("/dev/sda", "/"); !errors.Is(err, ErrNotLaunched) {
		t.Errorf("Mount before launch: got %v, want ErrNotLaunched", err)
	}

	if err := h.AddDrive("a.img", false); err != nil {
		t.Fatalf("AddDrive: %v", err)
	}
	if err := h.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := h.Launch(); !errors.Is(err, ErrLaunched) {
		t.Errorf("second Launch: got %v, want ErrLaunched", err)
	}
	if err := h.AddDrive("b.img", false); !errors.Is(err, ErrLaunched) {
		t.Errorf("AddDrive after launch: got %v, want ErrLaunched", err)
	}

	if _, err := h.Ls("/"); !errors.Is(err, ErrNotMounted) {
		t.Errorf("Ls before mount: got %v, want ErrNotMounted", err)
	}
}

func TestEchoDaemon(t *testing.T) {
	h := launched(t)
	got, err := h.EchoDaemon([]string{"hello", "world"})
	if err != nil {
		t.Fatalf("EchoDaemon: %v", err)
	}
	if got != "hello world" {
		t.Errorf("EchoDaemon = %q, want %q", got, "hello world")
	}
}

func TestFileOperations(t *testing.T) {
	h := launched(t)

	if err := h.Mkdir("/etc"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := h.Write("/etc/hostname", []byte("guest\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := h.Write("/motd", []byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := h.Cat("/etc/hostname")
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	if string(data) != "guest\n" {
		t.Errorf("Cat = %q, want %q", data, "guest\n")
	}

	names, err := h.Ls("/")
	if err != nil {
		t.Fatalf("Ls: %v", err)
	}
	if strings.Join(names, ",") != "etc,motd" {
		t.Errorf("Ls / = %v, want [etc motd]", names)
	}

	if err := h.Rm("/motd"); err != nil {
		t.Fatalf("Rm: %v", err)
	}
	if _, err := h.Cat("/motd"); err == nil {
		t.Error("Cat of removed file succeeded")
	}

	if err := h.Write("relative", []byte("x")); err == nil {
		t.Error("Write accepted a relative path")
	}
	if err := h.Write("/nosuch/file", []byte("x")); err == nil {
		t.Error("Write accepted a missing parent directory")
	}
}

func TestReadOnlyDriveRejectsWrites(t *testing.T) {
	h := New()
	if err := h.AddDrive("test.img", true); err != nil {
		t.Fatalf("AddDrive: %v", err)
	}
	if err := h.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := h.Mount("/dev/sda", "/"); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if err := h.Write("/f", []byte("x")); err == nil {
		t.Error("Write on a read-only drive succeeded")
	}
	if _, err := h.Ls("/"); err != nil {
		t.Errorf("Ls on a read-only drive: %v", err)
	}
}

func TestMountUnknownDevice(t *testing.T) {
	h := New()
	if err := h.AddDrive("test.img", false); err != nil {
		t.Fatalf("AddDrive: %v", err)
	}
	if err := h.Launch(); err != nil {
		t.Fatalf("Launch: %v", err)
	}

	if err := h.Mount("/dev/sdb", "/"); err == nil {
		t.Error("Mount of a device beyond the drive list succeeded")
	}
	if err := h.Mount("/dev/nvme0n1", "/"); err == nil {
		t.Error("Mount of an unrecognized device name succeeded")
	}
}

func TestCloseInvalidatesHandle(t *testing.T) {
	h := launched(t)
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close: got %v, want ErrClosed", err)
	}
	if _, err := h.Ls("/"); !errors.Is(err, ErrClosed) {
		t.Errorf("Ls after Close: got %v, want ErrClosed", err)
	}
}
