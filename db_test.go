// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package leveldbplus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/leveldbplus/internal/base"
	"github.com/your-org/leveldbplus/vfs"
)

func openTestDB(t *testing.T, opts *Options) *DB {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	if opts.FS == nil {
		opts.FS = vfs.NewMem()
	}
	if opts.SecondaryKey == "" {
		opts.SecondaryKey = "age"
	}
	if opts.PrimaryKey == "" {
		opts.PrimaryKey = "pk"
	}
	d, err := Open("db", opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, d.Close()) })
	return d
}

func TestPutGetRoundTrip(t *testing.T) {
	d := openTestDB(t, nil)

	payload := []byte(`{"pk":"user/1","age":"30"}`)
	require.NoError(t, d.Put(payload))

	got, err := d.Get("user/1")
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestGetMissingKeyReturnsErrNotFound(t *testing.T) {
	d := openTestDB(t, nil)
	_, err := d.Get("nope")
	require.ErrorIs(t, err, base.ErrNotFound)
}

func TestDeleteHidesKey(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"30"}`)))
	require.NoError(t, d.Delete("user/1"))

	_, err := d.Get("user/1")
	require.ErrorIs(t, err, base.ErrNotFound)
}

func TestPutOverwriteReturnsNewestVersion(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"30"}`)))
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"31"}`)))

	got, err := d.Get("user/1")
	require.NoError(t, err)
	require.JSONEq(t, `{"pk":"user/1","age":"31"}`, string(got))
}

func TestGetSurvivesFlush(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"30"}`)))
	require.NoError(t, d.Flush())

	got, err := d.Get("user/1")
	require.NoError(t, err)
	require.JSONEq(t, `{"pk":"user/1","age":"30"}`, string(got))
}

func TestDeleteAfterFlushStillHidesKey(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"30"}`)))
	require.NoError(t, d.Flush())
	require.NoError(t, d.Delete("user/1"))

	_, err := d.Get("user/1")
	require.ErrorIs(t, err, base.ErrNotFound)
}

func TestOpenRecoversTablesAcrossRestart(t *testing.T) {
	fs := vfs.NewMem()
	opts := &Options{FS: fs, SecondaryKey: "age", PrimaryKey: "pk"}

	d, err := Open("db", opts)
	require.NoError(t, err)
	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"30"}`)))
	require.NoError(t, d.Flush())
	require.NoError(t, d.Close())

	d2, err := Open("db", opts)
	require.NoError(t, err)
	defer d2.Close()

	got, err := d2.Get("user/1")
	require.NoError(t, err)
	require.JSONEq(t, `{"pk":"user/1","age":"30"}`, string(got))
}

func TestPutRejectsWritesAfterClose(t *testing.T) {
	opts := &Options{FS: vfs.NewMem(), SecondaryKey: "age", PrimaryKey: "pk"}
	d, err := Open("db", opts)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	err = d.Put([]byte(`{"pk":"user/1","age":"30"}`))
	require.Error(t, err)
}

func TestOpenRequiresSecondaryKey(t *testing.T) {
	_, err := Open("db", &Options{FS: vfs.NewMem()})
	require.Error(t, err)
	require.ErrorIs(t, err, base.ErrInvalidArgument)
}
