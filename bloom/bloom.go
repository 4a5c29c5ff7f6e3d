// Copyright 2013 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package bloom implements a classic full-file Bloom filter, shared by the
// engine's primary filter block and the secondary attribute index's filter
// block.
package bloom

import "fmt"

// This table contains the optimal number of probes for each bitsPerKey. For
// bits per key over 10, probes[10] should be used.
var probes = [11]uint32{
	1:  1,
	2:  1,
	3:  2,
	4:  3,
	5:  3,
	6:  4,
	7:  4,
	8:  5,
	9:  5,
	10: 6,
}

func calculateProbes(bitsPerKey uint32) uint32 {
	if bitsPerKey > 10 {
		return probes[10]
	}
	return probes[bitsPerKey]
}

// hash implements a hashing algorithm similar to the Murmur hash.
func hash(b []byte) uint32 {
	const (
		seed = 0xbc9f1d34
		m    = 0xc6a4a793
	)
	h := uint32(seed) ^ (uint32(len(b)) * m)
	for ; len(b) >= 4; b = b[4:] {
		h += uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		h *= m
		h ^= h >> 16
	}

	// The code below first casts each byte to a signed 8-bit integer. This is
	// necessary to match RocksDB's behavior. Note that the `byte` type in Go is
	// unsigned.
	switch len(b) {
	case 3:
		h += uint32(int8(b[2])) << 16
		fallthrough
	case 2:
		h += uint32(int8(b[1])) << 8
		fallthrough
	case 1:
		h += uint32(int8(b[0]))
		h *= m
		h ^= h >> 24
	}
	return h
}

// FilterPolicy names and builds full-file Bloom filters with the given
// number of bits per key (approximately). A good value is 10, which yields
// a filter with ~1% false positive rate.
type FilterPolicy struct {
	BitsPerKey uint32
}

// NewFilterPolicy validates bitsPerKey and returns a FilterPolicy, panicking
// on an invalid value the way the teacher's constructor does.
func NewFilterPolicy(bitsPerKey uint32) *FilterPolicy {
	if bitsPerKey < 1 {
		panic(fmt.Sprintf("bloom: invalid bitsPerKey %d", bitsPerKey))
	}
	return &FilterPolicy{BitsPerKey: bitsPerKey}
}

// Name identifies the policy in an SSTable's metaindex, matching the naming
// convention "filter.<policy name>" / "secondaryfilter.<policy name>".
func (p *FilterPolicy) Name() string {
	return fmt.Sprintf("leveldbplus.BloomFilter(%d)", p.BitsPerKey)
}

// NewWriter returns a fresh Writer accumulating keys for one filter.
func (p *FilterPolicy) NewWriter() *Writer {
	return &Writer{numProbes: calculateProbes(p.BitsPerKey), bitsPerKey: p.BitsPerKey}
}

// MayContain reports whether key might be a member of filter. False
// positives are possible; false negatives are not.
func (p *FilterPolicy) MayContain(filter, key []byte) bool {
	return MayContain(filter, key)
}

// Writer accumulates keys and produces one full-file Bloom filter, built
// once every key has been added via Finish.
type Writer struct {
	bitsPerKey uint32
	numProbes  uint32
	keyHashes  []uint32
}

// AddKey hashes key and records it for the next Finish call.
func (w *Writer) AddKey(key []byte) {
	w.keyHashes = append(w.keyHashes, hash(key))
}

// Len reports how many keys have been added since the last Finish.
func (w *Writer) Len() int { return len(w.keyHashes) }

// Finish builds the filter bitmap for every key added so far and resets
// the writer for the next block/file. Returns (nil, false) if no keys
// were added.
func (w *Writer) Finish() ([]byte, bool) {
	if len(w.keyHashes) == 0 {
		return nil, false
	}

	nBits := uint32(len(w.keyHashes)) * w.bitsPerKey
	if nBits < 64 {
		nBits = 64
	}
	nBytes := (nBits + 7) / 8
	nBits = nBytes * 8

	// +1 byte for the trailing number-of-probes byte, matching the
	// on-disk layout LevelDB uses so the reader can recover numProbes
	// without consulting the policy name.
	filter := make([]byte, nBytes+1)
	for _, h := range w.keyHashes {
		delta := h>>17 | h<<15
		for i := uint32(0); i < w.numProbes; i++ {
			bitPos := h % nBits
			filter[bitPos/8] |= 1 << (bitPos % 8)
			h += delta
		}
	}
	filter[nBytes] = byte(w.numProbes)

	w.keyHashes = w.keyHashes[:0]
	return filter, true
}

// MayContain reports whether key might be a member of the set that
// produced filter. filter must be a buffer previously returned by
// Writer.Finish.
func MayContain(filter, key []byte) bool {
	if len(filter) < 1 {
		return false
	}
	nBytes := uint32(len(filter) - 1)
	nBits := nBytes * 8
	if nBits == 0 {
		return false
	}
	numProbes := uint32(filter[len(filter)-1])

	h := hash(key)
	delta := h>>17 | h<<15
	for i := uint32(0); i < numProbes; i++ {
		bitPos := h % nBits
		if filter[bitPos/8]&(1<<(bitPos%8)) == 0 {
			return false
		}
		h += delta
	}
	return true
}
