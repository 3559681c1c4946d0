// Copyright 2026 The Diskfish Authors
// SPDX-License-Identifier: Apache-2.0

package disk

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// drive is one attached disk image.
type drive struct {
	path     string
	readOnly bool
}

// image is the in-memory engine. The filesystem is a flat map of
// absolute cleaned paths; directories are tracked explicitly so that
// empty directories survive and Ls can distinguish "missing" from
// "empty".
type image struct {
	closed   bool
	launched bool
	mounted  bool
	readOnly bool

	drives []drive
	files  map[string][]byte
	dirs   map[string]bool
}

// New returns an in-memory engine handle.
func New() Handle {
	return &image{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (m *image) AddDrive(drivePath string, readOnly bool) error {
	if m.closed {
		return ErrClosed
	}
	if m.launched {
		return ErrLaunched
	}
	if drivePath == "" {
		return fmt.Errorf("drive path is empty")
	}
	m.drives = append(m.drives, drive{path: drivePath, readOnly: readOnly})
	return nil
}

func (m *image) Launch() error {
	if m.closed {
		return ErrClosed
	}
	if m.launched {
		return ErrLaunched
	}
	if len(m.drives) == 0 {
		return ErrNoDrives
	}
	m.launched = true
	return nil
}

func (m *image) Mount(device, mountpoint string) error {
	if m.closed {
		return ErrClosed
	}
	if !m.launched {
		return ErrNotLaunched
	}
	if mountpoint != "/" {
		return fmt.Errorf("mountpoint %q: only / is supported", mountpoint)
	}
	index, err := m.deviceIndex(device)
	if err != nil {
		return err
	}
	m.mounted = true
	m.readOnly = m.drives[index].readOnly
	m.dirs["/"] = true
	return nil
}

// deviceIndex maps a /dev/sdX device name to a drive, in the order the
// drives were added.
func (m *image) deviceIndex(device string) (int, error) {
	suffix, ok := strings.CutPrefix(device, "/dev/sd")
	if !ok || len(suffix) == 0 {
		return 0, fmt.Errorf("unknown device %q", device)
	}
	index := int(suffix[0] - 'a')
	if index < 0 || index >= len(m.drives) {
		return 0, fmt.Errorf("device %q: no such drive (have %d)", device, len(m.drives))
	}
	return index, nil
}

func (m *image) EchoDaemon(words []string) (string, error) {
	if m.closed {
		return "", ErrClosed
	}
	if !m.launched {
		return "", ErrNotLaunched
	}
	return strings.Join(words, " "), nil
}

// fsCheck validates that filesystem operations are possible, and for
// mutations, that the mounted drive is writable.
func (m *image) fsCheck(write bool) error {
	if m.closed {
		return ErrClosed
	}
	if !m.launched {
		return ErrNotLaunched
	}
	if !m.mounted {
		return ErrNotMounted
	}
	if write && m.readOnly {
		return fmt.Errorf("drive is mounted read-only")
	}
	return nil
}

// clean normalizes a guest path to an absolute, cleaned form.
func clean(guestPath string) (string, error) {
	if !strings.HasPrefix(guestPath, "/") {
		return "", fmt.Errorf("path %q is not absolute", guestPath)
	}
	return path.Clean(guestPath), nil
}

func (m *image) Ls(dir string) ([]string, error) {
	if err := m.fsCheck(false); err != nil {
		return nil, err
	}
	cleaned, err := clean(dir)
	if err != nil {
		return nil, err
	}
	if !m.dirs[cleaned] {
		return nil, fmt.Errorf("%s: no such directory", dir)
	}

	seen := make(map[string]bool)
	collect := func(entry string) {
		parent, name := path.Split(entry)
		if path.Clean(parent) == cleaned && name != "" {
			seen[name] = true
		}
	}
	for file := range m.files {
		collect(file)
	}
	for sub := range m.dirs {
		if sub != "/" {
			collect(sub)
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *image) Cat(filePath string) ([]byte, error) {
	if err := m.fsCheck(false); err != nil {
		return nil, err
	}
	cleaned, err := clean(filePath)
	if err != nil {
		return nil, err
	}
	data, ok := m.files[cleaned]
	if !ok {
		return nil, fmt.Errorf("%s: no such file", filePath)
	}
	return append([]byte(nil), data...), nil
}

func (m *image) Write(filePath string, data []byte) error {
	if err := m.fsCheck(true); err != nil {
		return err
	}
	cleaned, err := clean(filePath)
	if err != nil {
		return err
	}
	if m.dirs[cleaned] {
		return fmt.Errorf("%s: is a directory", filePath)
	}
	if !m.dirs[path.Dir(cleaned)] {
		return fmt.Errorf("%s: parent directory does not exist", filePath)
	}
	m.files[cleaned] = append([]byte(nil), data...)
	return nil
}

func (m *image) Rm(filePath string) error {
	if err := m.fsCheck(true); err != nil {
		return err
	}
	cleaned, err := clean(filePath)
	if err != nil {
		return err
	}
	if _, ok := m.files[cleaned]; !ok {
		return fmt.Errorf("%s: no such file", filePath)
	}
	delete(m.files, cleaned)
	return nil
}

func (m *image) Mkdir(dirPath string) error {
	if err := m.fsCheck(true); err != nil {
		return err
	}
	cleaned, err := clean(dirPath)
	if err != nil {
		return err
	}
	if m.dirs[cleaned] {
		return fmt.Errorf("%s: directory exists", dirPath)
	}
	if _, ok := m.files[cleaned]; ok {
		return fmt.Errorf("%s: file exists", dirPath)
	}
	if !m.dirs[path.Dir(cleaned)] {
		return fmt.Errorf("%s: parent directory does not exist", dirPath)
	}
	m.dirs[cleaned] = true
	return nil
}

func (m *image) Close() error {
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	m.launched = false
	m.mounted = false
	m.files = nil
	m.dirs = nil
	m.drives = nil
	return nil
}
