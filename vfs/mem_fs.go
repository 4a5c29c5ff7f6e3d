// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors/oserror"
)

// NewMem returns a new memory-backed FS implementation, used by tests that
// want to exercise table/log/manifest I/O without touching disk.
func NewMem() *MemFS {
	return &MemFS{root: newMemDir("/")}
}

// MemFS implements FS in memory, under a single coarse lock. It is meant
// for test fixtures, not for concurrent production use.
type MemFS struct {
	mu   sync.Mutex
	root *memDir
}

type memDir struct {
	name     string
	children map[string]*memDir
	files    map[string]*memFile
}

func newMemDir(name string) *memDir {
	return &memDir{name: name, children: map[string]*memDir{}, files: map[string]*memFile{}}
}

func cleanPath(name string) []string {
	name = filepath.ToSlash(filepath.Clean(name))
	name = strings.TrimPrefix(name, "/")
	if name == "." || name == "" {
		return nil
	}
	return strings.Split(name, "/")
}

func (y *MemFS) walkDir(parts []string, create bool) (*memDir, error) {
	dir := y.root
	for _, p := range parts {
		child, ok := dir.children[p]
		if !ok {
			if !create {
				return nil, os.ErrNotExist
			}
			child = newMemDir(p)
			dir.children[p] = child
		}
		dir = child
	}
	return dir, nil
}

func (y *MemFS) Create(name string) (File, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	parts := cleanPath(name)
	if len(parts) == 0 {
		return nil, errNotExist(name)
	}
	dir, err := y.walkDir(parts[:len(parts)-1], true)
	if err != nil {
		return nil, err
	}
	base := parts[len(parts)-1]
	f := &memFile{name: base}
	dir.files[base] = f
	return &memFileHandle{memFile: f}, nil
}

func (y *MemFS) Link(oldname, newname string) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	src, err := y.lookupFile(oldname)
	if err != nil {
		return err
	}
	dparts := cleanPath(newname)
	if len(dparts) == 0 {
		return errNotExist(newname)
	}
	dir, err := y.walkDir(dparts[:len(dparts)-1], true)
	if err != nil {
		return err
	}
	dir.files[dparts[len(dparts)-1]] = src
	return nil
}

func (y *MemFS) lookupFile(name string) (*memFile, error) {
	parts := cleanPath(name)
	if len(parts) == 0 {
		return nil, errNotExist(name)
	}
	dir, err := y.walkDir(parts[:len(parts)-1], false)
	if err != nil {
		return nil, errNotExist(name)
	}
	f, ok := dir.files[parts[len(parts)-1]]
	if !ok {
		return nil, errNotExist(name)
	}
	return f, nil
}

func (y *MemFS) Open(name string, opts ...OpenOption) (File, error) {
	y.mu.Lock()
	f, err := y.lookupFile(name)
	y.mu.Unlock()
	if err != nil {
		return nil, err
	}
	h := &memFileHandle{memFile: f}
	for _, opt := range opts {
		opt.Apply(h)
	}
	return h, nil
}

func (y *MemFS) OpenDir(name string) (File, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if _, err := y.walkDir(cleanPath(name), false); err != nil {
		return nil, errNotExist(name)
	}
	return &memFileHandle{memFile: &memFile{name: name}}, nil
}

func (y *MemFS) Remove(name string) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	parts := cleanPath(name)
	if len(parts) == 0 {
		return errNotExist(name)
	}
	dir, err := y.walkDir(parts[:len(parts)-1], false)
	if err != nil {
		return errNotExist(name)
	}
	base := parts[len(parts)-1]
	if _, ok := dir.files[base]; ok {
		delete(dir.files, base)
		return nil
	}
	if child, ok := dir.children[base]; ok {
		if len(child.files) > 0 || len(child.children) > 0 {
			return errNotExist(name)
		}
		delete(dir.children, base)
		return nil
	}
	return errNotExist(name)
}

func (y *MemFS) Rename(oldname, newname string) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	oparts := cleanPath(oldname)
	if len(oparts) == 0 {
		return errNotExist(oldname)
	}
	odir, err := y.walkDir(oparts[:len(oparts)-1], false)
	if err != nil {
		return errNotExist(oldname)
	}
	obase := oparts[len(oparts)-1]
	f, ok := odir.files[obase]
	if !ok {
		return errNotExist(oldname)
	}

	nparts := cleanPath(newname)
	if len(nparts) == 0 {
		return errNotExist(newname)
	}
	ndir, err := y.walkDir(nparts[:len(nparts)-1], true)
	if err != nil {
		return err
	}
	delete(odir.files, obase)
	ndir.files[nparts[len(nparts)-1]] = f
	return nil
}

func (y *MemFS) MkdirAll(dir string, perm os.FileMode) error {
	y.mu.Lock()
	defer y.mu.Unlock()
	_, err := y.walkDir(cleanPath(dir), true)
	return err
}

// Lock implements FS. A memory lock is just a regular file; there is no
// cross-process coordination to simulate.
func (y *MemFS) Lock(name string) (io.Closer, error) {
	f, err := y.Create(name)
	if err != nil {
		return nil, err
	}
	return f.(io.Closer), nil
}

func (y *MemFS) List(dir string) ([]string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	d, err := y.walkDir(cleanPath(dir), false)
	if err != nil {
		return nil, errNotExist(dir)
	}
	names := make([]string, 0, len(d.files)+len(d.children))
	for n := range d.files {
		names = append(names, n)
	}
	for n := range d.children {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (y *MemFS) Stat(name string) (os.FileInfo, error) {
	y.mu.Lock()
	f, err := y.lookupFile(name)
	y.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.stat()
}

func (*MemFS) PathBase(p string) string { return filepath.Base(p) }
func (*MemFS) PathDir(p string) string  { return filepath.Dir(p) }
func (*MemFS) PathJoin(elem ...string) string {
	return filepath.Join(elem...)
}

func errNotExist(name string) error {
	return &os.PathError{Op: "open", Path: name, Err: oserror.ErrNotExist}
}

// memFile is an in-memory file's shared backing buffer.
type memFile struct {
	name string
	mu   sync.Mutex
	data []byte
	modT time.Time
}

func (f *memFile) readAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *memFile) write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = append(f.data, p...)
	f.modT = time.Now()
	return len(p), nil
}

func (f *memFile) stat() (os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &memFileInfo{name: f.name, size: int64(len(f.data)), modT: f.modT}, nil
}

// memFileHandle is one open handle onto a memFile; it holds its own
// sequential-read offset so multiple handles can read the same file
// independently, matching os.File semantics.
type memFileHandle struct {
	*memFile
	off int64
}

func (h *memFileHandle) Close() error { return nil }

func (h *memFileHandle) Read(p []byte) (int, error) {
	n, err := h.memFile.readAt(p, h.off)
	h.off += int64(n)
	return n, err
}

func (h *memFileHandle) ReadAt(p []byte, off int64) (int, error) {
	return h.memFile.readAt(p, off)
}

func (h *memFileHandle) Write(p []byte) (int, error) {
	return h.memFile.write(p)
}

func (h *memFileHandle) Stat() (os.FileInfo, error) {
	return h.memFile.stat()
}

func (h *memFileHandle) Sync() error { return nil }

type memFileInfo struct {
	name string
	size int64
	modT time.Time
}

func (fi *memFileInfo) Name() string       { return fi.name }
func (fi *memFileInfo) Size() int64        { return fi.size }
func (fi *memFileInfo) Mode() os.FileMode  { return 0644 }
func (fi *memFileInfo) ModTime() time.Time { return fi.modT }
func (fi *memFileInfo) IsDir() bool        { return false }
func (fi *memFileInfo) Sys() interface{}   { return nil }
