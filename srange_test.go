// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package leveldbplus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSRangeGetMemtable(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"10"}`)))
	require.NoError(t, d.Put([]byte(`{"pk":"user/2","age":"20"}`)))
	require.NoError(t, d.Put([]byte(`{"pk":"user/3","age":"30"}`)))

	hits, err := d.SRangeGet("15", "25", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "user/2", hits[0].PrimaryKey)
}

func TestSRangeGetAfterFlush(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"10"}`)))
	require.NoError(t, d.Put([]byte(`{"pk":"user/2","age":"20"}`)))
	require.NoError(t, d.Put([]byte(`{"pk":"user/3","age":"30"}`)))
	require.NoError(t, d.Flush())

	hits, err := d.SRangeGet("05", "25", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestSRangeGetExcludesOutOfRange(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"10"}`)))
	require.NoError(t, d.Flush())

	hits, err := d.SRangeGet("20", "30", 0)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSRangeGetViaITreeMode(t *testing.T) {
	opts := &Options{IntervalTreeFileName: t.TempDir() + "/tree.chk"}
	d := openTestDB(t, opts)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"10"}`)))
	require.NoError(t, d.Put([]byte(`{"pk":"user/2","age":"20"}`)))
	require.NoError(t, d.Flush())

	hits, err := d.SRangeGet("05", "15", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "user/1", hits[0].PrimaryKey)
}
