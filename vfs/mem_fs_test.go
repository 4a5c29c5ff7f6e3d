// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemFSCreateWriteReopenRead(t *testing.T) {
	fs := NewMem()
	f, err := fs.Create("/a/b/000001.sst")
	require.NoError(t, err)
	_, err = f.Write([]byte("hello world"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := fs.Open("/a/b/000001.sst")
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(got))
}

func TestMemFSListAndRemove(t *testing.T) {
	fs := NewMem()
	for _, name := range []string{"/dir/a.sst", "/dir/b.sst"} {
		f, err := fs.Create(name)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	names, err := fs.List("/dir")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.sst", "b.sst"}, names)

	require.NoError(t, fs.Remove("/dir/a.sst"))
	names, err = fs.List("/dir")
	require.NoError(t, err)
	require.Equal(t, []string{"b.sst"}, names)
}

func TestMemFSRename(t *testing.T) {
	fs := NewMem()
	f, err := fs.Create("/dir/old.sst")
	require.NoError(t, err)
	_, _ = f.Write([]byte("x"))
	require.NoError(t, f.Close())

	require.NoError(t, fs.Rename("/dir/old.sst", "/dir/new.sst"))
	_, err = fs.Open("/dir/old.sst")
	require.Error(t, err)
	r, err := fs.Open("/dir/new.sst")
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "x", string(got))
}

func TestMemFSLockAndRelease(t *testing.T) {
	fs := NewMem()
	closer, err := fs.Lock("/dir/LOCK")
	require.NoError(t, err)
	require.NoError(t, closer.Close())
}

func TestMemFSRandomAccess(t *testing.T) {
	fs := NewMem()
	f, err := fs.Create("/a.sst")
	require.NoError(t, err)
	_, err = f.Write([]byte("0123456789"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := f.(io.ReaderAt).ReadAt(buf, 3)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "3456", string(buf))
}
