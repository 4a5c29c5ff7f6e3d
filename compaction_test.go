// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package leveldbplus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactMergesTablesPreservingReads(t *testing.T) {
	d := openTestDB(t, nil)

	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"10"}`)))
	require.NoError(t, d.Flush())
	require.NoError(t, d.Put([]byte(`{"pk":"user/2","age":"20"}`)))
	require.NoError(t, d.Flush())
	require.NoError(t, d.Put([]byte(`{"pk":"user/3","age":"30"}`)))
	require.NoError(t, d.Flush())

	require.Len(t, d.versions.Current().Tables, 3)

	require.NoError(t, d.Compact())

	require.Len(t, d.versions.Current().Tables, 1)

	for pk, age := range map[string]string{"user/1": "10", "user/2": "20", "user/3": "30"} {
		got, err := d.Get(pk)
		require.NoError(t, err)
		require.JSONEq(t, `{"pk":"`+pk+`","age":"`+age+`"}`, string(got))
	}

	hits, err := d.SGet("20", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "user/2", hits[0].PrimaryKey)
}

func TestCompactDropsSupersededVersions(t *testing.T) {
	d := openTestDB(t, nil)

	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"10"}`)))
	require.NoError(t, d.Flush())
	require.NoError(t, d.Delete("user/1"))
	require.NoError(t, d.Flush())

	require.NoError(t, d.Compact())

	_, err := d.Get("user/1")
	require.Error(t, err)
}

func TestCompactWithFewerThanTwoTablesIsNoop(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"10"}`)))
	require.NoError(t, d.Flush())

	require.NoError(t, d.Compact())
	require.Len(t, d.versions.Current().Tables, 1)
}
