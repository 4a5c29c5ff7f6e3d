// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import "github.com/your-org/leveldbplus/internal/base"

// Cleaner disposes of a table or log file that a compaction or flush has
// made obsolete.
type Cleaner interface {
	Clean(fs FS, fileType base.FileType, path string) error
}

// DeleteCleaner deletes the file outright. The default.
type DeleteCleaner struct{}

func (DeleteCleaner) Clean(fs FS, fileType base.FileType, path string) error {
	return fs.Remove(path)
}

func (DeleteCleaner) String() string { return "delete" }

// ArchiveCleaner moves obsolete tables and manifests into an "archive"
// subdirectory instead of deleting them, for post-mortem debugging.
type ArchiveCleaner struct{}

func (ArchiveCleaner) Clean(fs FS, fileType base.FileType, path string) error {
	switch fileType {
	case base.FileTypeTable, base.FileTypeManifest:
		destDir := fs.PathJoin(fs.PathDir(path), "archive")
		if err := fs.MkdirAll(destDir, 0755); err != nil {
			return err
		}
		return fs.Rename(path, fs.PathJoin(destDir, fs.PathBase(path)))
	default:
		return fs.Remove(path)
	}
}

func (ArchiveCleaner) String() string { return "archive" }
