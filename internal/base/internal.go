// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"encoding/binary"
	"fmt"
)

// SeqNum is a sequence number defining precedence among identical keys. A key
// with a higher sequence number takes precedence over a key with an equal
// user key of a lower sequence number. As records are committed they are
// assigned increasing sequence numbers; readers use a sequence number to
// read a consistent snapshot of the database, ignoring keys committed after
// it.
type SeqNum uint64

const (
	// SeqNumZero is the zero sequence number. Never assigned to a live
	// record; used as a sentinel for "no snapshot restriction".
	SeqNumZero SeqNum = 0
	// SeqNumStart is the first sequence number assigned to a committed
	// record.
	SeqNumStart SeqNum = 1
	// SeqNumMax is the largest valid sequence number.
	SeqNumMax SeqNum = 1<<56 - 1
)

func (s SeqNum) String() string {
	if s == SeqNumMax {
		return "inf"
	}
	return fmt.Sprintf("%d", uint64(s))
}

// InternalKeyKind enumerates the kind of key stored under an InternalKey's
// trailer: a live value, or a deletion tombstone.
type InternalKeyKind uint8

// These two values are part of the on-disk format and must not be changed.
const (
	InternalKeyKindDelete InternalKeyKind = 0
	InternalKeyKindSet    InternalKeyKind = 1
)

func (k InternalKeyKind) String() string {
	switch k {
	case InternalKeyKindDelete:
		return "DEL"
	case InternalKeyKindSet:
		return "SET"
	default:
		return "UNKNOWN"
	}
}

// InternalKeyTrailer holds the sequence number and kind, packed as
// seqNum<<8 | kind, in the low 8 bytes of every on-disk key.
type InternalKeyTrailer uint64

// InternalTrailerLen is the number of bytes a trailer occupies when encoded.
const InternalTrailerLen = 8

// MakeTrailer packs a sequence number and a kind into a single trailer.
func MakeTrailer(seqNum SeqNum, kind InternalKeyKind) InternalKeyTrailer {
	return InternalKeyTrailer(uint64(seqNum)<<8 | uint64(kind))
}

// SeqNum extracts the sequence number from a trailer.
func (t InternalKeyTrailer) SeqNum() SeqNum {
	return SeqNum(uint64(t) >> 8)
}

// Kind extracts the kind from a trailer.
func (t InternalKeyTrailer) Kind() InternalKeyKind {
	return InternalKeyKind(t & 0xff)
}

// InternalKey is a key together with the trailer that orders it against
// other internal keys sharing the same user key.
type InternalKey struct {
	UserKey []byte
	Trailer InternalKeyTrailer
}

// MakeInternalKey constructs an InternalKey from its parts.
func MakeInternalKey(userKey []byte, seqNum SeqNum, kind InternalKeyKind) InternalKey {
	return InternalKey{UserKey: userKey, Trailer: MakeTrailer(seqNum, kind)}
}

// SeqNum returns the key's sequence number.
func (k InternalKey) SeqNum() SeqNum { return k.Trailer.SeqNum() }

// Kind returns the key's kind.
func (k InternalKey) Kind() InternalKeyKind { return k.Trailer.Kind() }

// Size returns the encoded size of the key.
func (k InternalKey) Size() int { return len(k.UserKey) + InternalTrailerLen }

// Encode writes the key, including its trailer, to buf. buf must be at
// least k.Size() bytes.
func (k InternalKey) Encode(buf []byte) {
	i := copy(buf, k.UserKey)
	binary.LittleEndian.PutUint64(buf[i:], uint64(k.Trailer))
}

// EncodeAppend appends the encoded key to dst and returns the result.
func (k InternalKey) EncodeAppend(dst []byte) []byte {
	dst = append(dst, k.UserKey...)
	var trailer [InternalTrailerLen]byte
	binary.LittleEndian.PutUint64(trailer[:], uint64(k.Trailer))
	return append(dst, trailer[:]...)
}

// DecodeInternalKey decodes an encoded internal key. The returned UserKey
// aliases buf.
func DecodeInternalKey(buf []byte) InternalKey {
	n := len(buf) - InternalTrailerLen
	if n < 0 {
		return InternalKey{}
	}
	return InternalKey{
		UserKey: buf[:n:n],
		Trailer: InternalKeyTrailer(binary.LittleEndian.Uint64(buf[n:])),
	}
}
