package sstable

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/your-org/leveldbplus/internal/base"
)

// BlockHandle locates a block within the file.
type BlockHandle struct {
	Offset uint64
	Length uint64
}

const blockHandleLen = 16 // two little-endian uint64s

func (h BlockHandle) encode(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, h.Offset)
	dst = binary.LittleEndian.AppendUint64(dst, h.Length)
	return dst
}

func decodeBlockHandle(b []byte) BlockHandle {
	return BlockHandle{
		Offset: binary.LittleEndian.Uint64(b[0:8]),
		Length: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// magic identifies this module's table format on disk; any other trailing
// value means the file is foreign or corrupt.
var magic = [8]byte{'l', 'd', 'b', 'p', 'l', 'u', 's', '1'}

// Footer is the fixed-size trailer every table ends with. IntervalHandle is
// populated, and HasIntervalBlock is true, only for tables built in
// per-block interval-block mode (§4.4); tables built in ITree mode instead
// insert each block's interval directly into the process-wide ITree and
// carry no interval block of their own.
//
// The two modes produce footers of different encoded length — 40 bytes
// (no interval handle) versus 56 bytes (with one) — and carry no separate
// flag byte. OpenReader does not infer the mode from the length: its
// caller says which footer to expect.
type Footer struct {
	MetaindexHandle  BlockHandle
	IndexHandle      BlockHandle
	IntervalHandle   BlockHandle
	HasIntervalBlock bool
}

const (
	footerLenStandard = 2*blockHandleLen + 8
	footerLenExtended = 3*blockHandleLen + 8
)

// Encode serializes the footer to its fixed-length on-disk form.
func (f Footer) Encode() []byte {
	var buf []byte
	buf = f.MetaindexHandle.encode(buf)
	buf = f.IndexHandle.encode(buf)
	if f.HasIntervalBlock {
		buf = f.IntervalHandle.encode(buf)
	}
	buf = append(buf, magic[:]...)
	return buf
}

// DecodeFooter parses the trailing bytes of a table file.
func DecodeFooter(buf []byte) (Footer, error) {
	var f Footer
	switch len(buf) {
	case footerLenStandard:
		f.HasIntervalBlock = false
	case footerLenExtended:
		f.HasIntervalBlock = true
	default:
		return Footer{}, errors.Mark(errors.Newf("sstable: invalid footer length %d", len(buf)), base.ErrCorruption)
	}

	if string(buf[len(buf)-8:]) != string(magic[:]) {
		return Footer{}, errors.Mark(errors.New("sstable: bad magic number"), base.ErrCorruption)
	}

	f.MetaindexHandle = decodeBlockHandle(buf[0:16])
	f.IndexHandle = decodeBlockHandle(buf[16:32])
	if f.HasIntervalBlock {
		f.IntervalHandle = decodeBlockHandle(buf[32:48])
	}
	return f, nil
}

// FooterLen returns the encoded length for a footer carrying an interval
// block handle or not, letting the writer reserve the right amount of
// trailing space without constructing a Footer first.
func FooterLen(hasIntervalBlock bool) int {
	if hasIntervalBlock {
		return footerLenExtended
	}
	return footerLenStandard
}
