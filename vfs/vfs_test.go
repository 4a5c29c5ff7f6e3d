// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultFSCreateWriteLock(t *testing.T) {
	dir := t.TempDir()
	path := Default.PathJoin(dir, "000001.sst")

	f, err := Default.Create(path)
	require.NoError(t, err)
	_, err = f.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := Default.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 3, info.Size())

	lockPath := Default.PathJoin(dir, "LOCK")
	closer, err := Default.Lock(lockPath)
	require.NoError(t, err)

	// The lock is advisory: opening the locked file through a second,
	// ordinary descriptor still succeeds.
	_, err = os.OpenFile(lockPath, os.O_RDWR, 0644)
	require.NoError(t, err)

	require.NoError(t, closer.Close())
}

func TestDefaultFSList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.sst", "b.sst"} {
		f, err := Default.Create(Default.PathJoin(dir, name))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}
	names, err := Default.List(dir)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.sst", "b.sst"}, names)
}
