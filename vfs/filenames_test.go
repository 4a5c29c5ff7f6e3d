// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/leveldbplus/internal/base"
)

func TestParseFilepath(t *testing.T) {
	testCases := map[string]bool{
		"000000.log":      true,
		"000000.sst":      true,
		"000000.log.zip":  false,
		"a000000.log":     false,
		"LOCK":            true,
		"xLOCK":           false,
		"MANIFEST-000001": true,
		"MANIFEST":        false,
		"MANIFEST-":       false,
	}
	fs := NewMem()
	for tc, want := range testCases {
		_, _, got := ParseFilepath(fs, fs.PathJoin("foo", tc))
		require.Equal(t, want, got, tc)
	}
}

func TestFilepathRoundTrip(t *testing.T) {
	for _, typ := range []base.FileType{base.FileTypeLog, base.FileTypeTable, base.FileTypeManifest} {
		path := MakeFilepath(Default, "dir", typ, base.FileNum(42))
		gotType, gotNum, ok := ParseFilepath(Default, path)
		require.True(t, ok)
		require.Equal(t, typ, gotType)
		require.Equal(t, base.FileNum(42), gotNum)
	}
}

func TestLockFilepathIsUnnumbered(t *testing.T) {
	path := MakeFilepath(Default, "dir", base.FileTypeLock, 0)
	require.Equal(t, Default.PathJoin("dir", "LOCK"), path)
}
