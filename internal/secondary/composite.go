package secondary

import (
	"encoding/binary"

	"github.com/your-org/leveldbplus/internal/base"
)

// MakeCompositeKey builds the composite key inserted into the secondary
// Bloom filter and probed at read time: the secondary value followed by
// the record's 8-byte trailer (sequence<<8 | kind).
func MakeCompositeKey(secondaryValue string, seqNum base.SeqNum, kind base.InternalKeyKind) []byte {
	trailer := base.MakeTrailer(seqNum, kind)
	buf := make([]byte, len(secondaryValue)+base.InternalTrailerLen)
	n := copy(buf, secondaryValue)
	binary.LittleEndian.PutUint64(buf[n:], uint64(trailer))
	return buf
}

// SplitCompositeKey separates a composite key back into its secondary
// value and trailer. It panics if buf is shorter than a trailer, which
// would indicate a corrupt filter or interval block entry.
func SplitCompositeKey(buf []byte) (secondaryValue string, trailer base.InternalKeyTrailer) {
	n := len(buf) - base.InternalTrailerLen
	t := binary.LittleEndian.Uint64(buf[n:])
	return string(buf[:n]), base.InternalKeyTrailer(t)
}
