// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCompare(t *testing.T) {
	require.Equal(t, 0, DefaultCompare([]byte("abc"), []byte("abc")))
	require.Less(t, DefaultCompare([]byte("abc"), []byte("abd")), 0)
	require.Greater(t, DefaultCompare([]byte("b"), []byte("a")), 0)
}

func TestInternalCompare(t *testing.T) {
	a := MakeInternalKey([]byte("k"), 10, InternalKeyKindSet)
	b := MakeInternalKey([]byte("k"), 5, InternalKeyKindSet)
	require.Less(t, InternalCompare(DefaultCompare, a, b), 0, "higher seq num sorts first")

	c := MakeInternalKey([]byte("j"), 100, InternalKeyKindSet)
	require.Greater(t, InternalCompare(DefaultCompare, a, c), 0, "user key dominates seq num")
}

func TestTrailerRoundTrip(t *testing.T) {
	tr := MakeTrailer(SeqNum(1234), InternalKeyKindDelete)
	require.Equal(t, SeqNum(1234), tr.SeqNum())
	require.Equal(t, InternalKeyKindDelete, tr.Kind())
}

func TestInternalKeyEncodeDecode(t *testing.T) {
	k := MakeInternalKey([]byte("hello"), 42, InternalKeyKindSet)
	buf := make([]byte, k.Size())
	k.Encode(buf)
	got := DecodeInternalKey(buf)
	require.Equal(t, k.UserKey, got.UserKey)
	require.Equal(t, k.Trailer, got.Trailer)
}
