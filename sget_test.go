// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package leveldbplus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSGetFindsMemtableMatch(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"30"}`)))
	require.NoError(t, d.Put([]byte(`{"pk":"user/2","age":"31"}`)))

	hits, err := d.SGet("30", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "user/1", hits[0].PrimaryKey)
}

func TestSGetFindsOnDiskMatchAfterFlush(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"30"}`)))
	require.NoError(t, d.Flush())

	hits, err := d.SGet("30", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "user/1", hits[0].PrimaryKey)
}

func TestSGetExcludesDeletedKey(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"30"}`)))
	require.NoError(t, d.Flush())
	require.NoError(t, d.Delete("user/1"))

	hits, err := d.SGet("30", 0)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSGetFindsNewestOverwriteValue(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"30"}`)))
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"31"}`)))

	hits, err := d.SGet("31", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "user/1", hits[0].PrimaryKey)
}

func TestSGetRespectsTopK(t *testing.T) {
	d := openTestDB(t, nil)
	for _, pk := range []string{"user/1", "user/2", "user/3"} {
		require.NoError(t, d.Put([]byte(`{"pk":"`+pk+`","age":"30"}`)))
	}

	hits, err := d.SGet("30", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestSGetViaITreeMode(t *testing.T) {
	opts := &Options{IntervalTreeFileName: t.TempDir() + "/tree.chk"}
	d := openTestDB(t, opts)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"30"}`)))
	require.NoError(t, d.Flush())

	hits, err := d.SGet("30", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "user/1", hits[0].PrimaryKey)
}
