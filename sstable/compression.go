// Copyright 2021 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"

	"github.com/your-org/leveldbplus/internal/base"
)

// Compression selects how a block's payload is stored on disk, following
// the teacher's own choice of github.com/golang/snappy for this tier of
// compression (sstable/compression.go).
type Compression uint8

const (
	// NoCompression stores the raw block payload.
	NoCompression Compression = 0
	// SnappyCompression compresses the block payload with snappy.
	SnappyCompression Compression = 1
)

// blockTrailerLen is the 1-byte compression type plus the 4-byte masked
// CRC32C checksum appended after every block's payload, matching
// original_source/table/table_builder.cc's WriteBlock trailer layout. No
// dedicated crc32c package appears anywhere in the example corpus, so this
// module uses the standard library's hash/crc32 with the Castagnoli
// polynomial (see DESIGN.md).
const blockTrailerLen = 5

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// maskCRC applies the same bit-rotate-and-offset mask LevelDB uses so that
// a checksum of zeros doesn't collide with an all-zero trailer.
func maskCRC(crc uint32) uint32 {
	return ((crc >> 15) | (crc << 17)) + 0xa282ead8
}

func unmaskCRC(masked uint32) uint32 {
	rot := masked - 0xa282ead8
	return (rot >> 17) | (rot << 15)
}

// compressBlock compresses raw per compression and appends the trailer,
// returning the full on-disk representation of one block.
func compressBlock(raw []byte, compression Compression) []byte {
	var payload []byte
	switch compression {
	case NoCompression:
		payload = raw
	case SnappyCompression:
		payload = snappy.Encode(nil, raw)
	}

	out := make([]byte, len(payload)+blockTrailerLen)
	copy(out, payload)
	out[len(payload)] = byte(compression)

	crc := crc32.Checksum(payload, castagnoliTable)
	crc = crc32.Update(crc, castagnoliTable, []byte{byte(compression)})
	binary.LittleEndian.PutUint32(out[len(payload)+1:], maskCRC(crc))
	return out
}

// decompressBlock validates the trailer checksum and returns the
// decompressed payload.
func decompressBlock(onDisk []byte) ([]byte, error) {
	if len(onDisk) < blockTrailerLen {
		return nil, errors.Mark(errors.New("sstable: block shorter than trailer"), base.ErrCorruption)
	}
	n := len(onDisk) - blockTrailerLen
	payload := onDisk[:n]
	compression := Compression(onDisk[n])
	wantCRC := binary.LittleEndian.Uint32(onDisk[n+1:])

	crc := crc32.Checksum(payload, castagnoliTable)
	crc = crc32.Update(crc, castagnoliTable, onDisk[n:n+1])
	if maskCRC(crc) != wantCRC {
		return nil, errors.Mark(errors.New("sstable: block checksum mismatch"), base.ErrCorruption)
	}

	switch compression {
	case NoCompression:
		return payload, nil
	case SnappyCompression:
		return snappy.Decode(nil, payload)
	default:
		return nil, errors.Mark(errors.Newf("sstable: unknown compression %d", compression), base.ErrCorruption)
	}
}
