// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package disk

import (
	"archive/tar"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// TgzIn unpacks a gzip-compressed tar stream under dir. Entry names
// are interpreted relative to dir; absolute names and names escaping
// dir (..) are rejected.
func (m *image) TgzIn(r io.Reader, dir string) error {
	if err := m.fsCheck(true); err != nil {
		return err
	}
	base, err := clean(dir)
	if err != nil {
		return err
	}
	if !m.dirs[base] {
		return fmt.Errorf("%s: no such directory", dir)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("reading gzip stream: %w", err)
	}
	defer gz.Close()

	archive := tar.NewReader(gz)
	for {
		header, err := archive.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar stream: %w", err)
		}

		name := path.Clean(header.Name)
		if name == "." {
			continue
		}
		if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
			return fmt.Errorf("tar entry %q escapes the target directory", header.Name)
		}
		target := path.Join(base, name)

		switch header.Typeflag {
		case tar.TypeDir:
			m.ensureDirs(target)
		case tar.TypeReg:
			data, err := io.ReadAll(archive)
			if err != nil {
				return fmt.Errorf("reading tar entry %q: %w", header.Name, err)
			}
			m.ensureDirs(path.Dir(target))
			m.files[target] = data
		default:
			return fmt.Errorf("tar entry %q: unsupported type %q", header.Name, header.Typeflag)
		}
	}
}

// ensureDirs marks target and all its ancestors as directories.
func (m *image) ensureDirs(target string) {
	for p := target; ; p = path.Dir(p) {
		m.dirs[p] = true
		if p == "/" {
			return
		}
	}
}

// TgzOut packs the tree under dir into a gzip-compressed tar stream.
// Entries are emitted in sorted path order so the same tree always
// produces the same archive.
func (m *image) TgzOut(dir string, w io.Writer) error {
	if err := m.fsCheck(false); err != nil {
		return err
	}
	base, err := clean(dir)
	if err != nil {
		return err
	}
	if !m.dirs[base] {
		return fmt.Errorf("%s: no such directory", dir)
	}

	gz := gzip.NewWriter(w)
	archive := tar.NewWriter(gz)

	var entries []string
	for sub := range m.dirs {
		if sub != base && underneath(sub, base) {
			entries = append(entries, sub)
		}
	}
	for file := range m.files {
		if underneath(file, base) {
			entries = append(entries, file)
		}
	}
	sort.Strings(entries)

	for _, entry := range entries {
		relative := strings.TrimPrefix(strings.TrimPrefix(entry, base), "/")
		if m.dirs[entry] {
			err = archive.WriteHeader(&tar.Header{
				Name:     relative + "/",
				Typeflag: tar.TypeDir,
				Mode:     0o755,
			})
		} else {
			data := m.files[entry]
			err = archive.WriteHeader(&tar.Header{
				Name:     relative,
				Typeflag: tar.TypeReg,
				Mode:     0o644,
				Size:     int64(len(data)),
			})
			if err == nil {
				_, err = archive.Write(data)
			}
		}
		if err != nil {
			return fmt.Errorf("writing tar entry %q: %w", relative, err)
		}
	}

	if err := archive.Close(); err != nil {
		return fmt.Errorf("finishing tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finishing gzip stream: %w", err)
	}
	return nil
}

// underneath reports whether p is strictly below base ("/" included).
func underneath(p, base string) bool {
	if base == "/" {
		return p != "/"
	}
	return strings.HasPrefix(p, base+"/")
}
