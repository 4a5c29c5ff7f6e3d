// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package leveldbplus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlushIsNoopOnEmptyMemtable(t *testing.T) {
	d := openTestDB(t, nil)
	require.NoError(t, d.Flush())
	require.Empty(t, d.versions.Current().Tables)
}

func TestFlushProducesOneTablePerCall(t *testing.T) {
	d := openTestDB(t, nil)

	require.NoError(t, d.Put([]byte(`{"pk":"user/1","age":"10"}`)))
	require.NoError(t, d.Flush())
	require.Len(t, d.versions.Current().Tables, 1)

	require.NoError(t, d.Put([]byte(`{"pk":"user/2","age":"20"}`)))
	require.NoError(t, d.Flush())
	require.Len(t, d.versions.Current().Tables, 2)
}

func TestAutomaticFlushTriggersPastThreshold(t *testing.T) {
	d := openTestDB(t, nil)

	big := make([]byte, memTableFlushThreshold)
	for i := range big {
		big[i] = 'x'
	}
	payload := []byte(`{"pk":"user/1","age":"10","blob":"` + string(big) + `"}`)

	require.NoError(t, d.Put(payload))
	require.NotEmpty(t, d.versions.Current().Tables, "a write crossing the flush threshold should flush inline")
}
