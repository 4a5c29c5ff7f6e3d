// Copyright 2013 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bloom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyFilterRejectsEverything(t *testing.T) {
	require.False(t, MayContain([]byte{}, []byte("x")))
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewFilterPolicy(10).NewWriter()
	keys := [][]byte{[]byte("hello"), []byte("world"), []byte("age:5")}
	for _, k := range keys {
		w.AddKey(k)
	}
	filter, ok := w.Finish()
	require.True(t, ok)

	for _, k := range keys {
		require.True(t, MayContain(filter, k))
	}
}

func TestWriterFinishWithNoKeys(t *testing.T) {
	w := NewFilterPolicy(10).NewWriter()
	_, ok := w.Finish()
	require.False(t, ok)
}

func TestFalsePositiveRateIsBounded(t *testing.T) {
	w := NewFilterPolicy(10).NewWriter()
	const n = 10000
	for i := 0; i < n; i++ {
		w.AddKey([]byte(fmt.Sprintf("key-%d", i)))
	}
	filter, ok := w.Finish()
	require.True(t, ok)

	falsePositives := 0
	const probeCount = 10000
	for i := 0; i < probeCount; i++ {
		if MayContain(filter, []byte(fmt.Sprintf("absent-%d", i))) {
			falsePositives++
		}
	}
	// ~1% expected at 10 bits/key; allow generous slack for a synthetic test.
	require.Less(t, falsePositives, probeCount/10)
}

func TestPolicyName(t *testing.T) {
	p := NewFilterPolicy(10)
	require.Equal(t, "leveldbplus.BloomFilter(10)", p.Name())
}

func TestNewFilterPolicyPanicsOnInvalidBitsPerKey(t *testing.T) {
	require.Panics(t, func() { NewFilterPolicy(0) })
}
