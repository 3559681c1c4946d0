// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package disk

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
)

// tgz builds a gzip-compressed tar archive from name → content pairs.
// A trailing slash marks a directory entry.
func tgz(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buffer bytes.Buffer
	gz := gzip.NewWriter(&buffer)
	archive := tar.NewWriter(gz)
	for name, content := range entries {
		header := &tar.Header{Name: name, Mode: 0o644, Typeflag: tar.TypeReg, Size: int64(len(content))}
		if name[len(name)-1] == '/' {
			header.Typeflag = tar.TypeDir
			header.Size = 0
		}
		if err := archive.WriteHeader(header); err != nil {
			t.Fatalf("WriteHeader(%q): %v", name, err)
		}
		if header.Typeflag == tar.TypeReg {
			if _, err := archive.Write([]byte(content)); err != nil {
				t.Fatalf("Write(%q): %v", name, err)
			}
		}
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	return buffer.Bytes()
}

func TestTgzInUnpacks(t *testing.T) {
	h := launched(t)
	archive := tgz(t, map[string]string{
		"etc/":         "",
		"etc/hostname": "guest\n",
		"motd":         "hi",
	})

	if err := h.TgzIn(bytes.NewReader(archive), "/"); err != nil {
		t.Fatalf("TgzIn: %v", err)
	}

	data, err := h.Cat("/etc/hostname")
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	if string(data) != "guest\n" {
		t.Errorf("Cat = %q, want %q", data, "guest\n")
	}
	if _, err := h.Ls("/etc"); err != nil {
		t.Errorf("Ls /etc: %v", err)
	}
}

func TestTgzInRejectsEscapingEntries(t *testing.T) {
	h := launched(t)

	for _, name := range []string{"../evil", "/abs"} {
		archive := tgz(t, map[string]string{name: "x"})
		if err := h.TgzIn(bytes.NewReader(archive), "/"); err == nil {
			t.Errorf("TgzIn accepted entry %q", name)
		}
	}
}

func TestTgzInRejectsGarbage(t *testing.T) {
	h := launched(t)
	if err := h.TgzIn(bytes.NewReader([]byte("not a gzip stream")), "/"); err == nil {
		t.Error("TgzIn accepted a non-gzip stream")
	}
}

func TestTgzRoundtrip(t *testing.T) {
	h := launched(t)
	if err := h.Mkdir("/data"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := h.Mkdir("/data/sub"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := h.Write("/data/a.txt", []byte("alpha")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := h.Write("/data/sub/b.txt", []byte("beta")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var buffer bytes.Buffer
	if err := h.TgzOut("/data", &buffer); err != nil {
		t.Fatalf("TgzOut: %v", err)
	}

	other := launched(t)
	if err := other.Mkdir("/restore"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := other.TgzIn(bytes.NewReader(buffer.Bytes()), "/restore"); err != nil {
		t.Fatalf("TgzIn: %v", err)
	}

	data, err := other.Cat("/restore/sub/b.txt")
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	if string(data) != "beta" {
		t.Errorf("Cat = %q, want %q", data, "beta")
	}
}

func TestTgzOutDeterministic(t *testing.T) {
	h := launched(t)
	if err := h.Write("/x", []byte("1")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := h.Write("/y", []byte("2")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var first, second bytes.Buffer
	if err := h.TgzOut("/", &first); err != nil {
		t.Fatalf("TgzOut (first): %v", err)
	}
	if err := h.TgzOut("/", &second); err != nil {
		t.Fatalf("TgzOut (second): %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("TgzOut produced different archives for the same tree")
	}
}
