package secondary

import "github.com/your-org/leveldbplus/internal/base"

// BlockAccumulator tracks the (min_sec, max_sec, max_seq) triple for one
// data block while the table builder fills it, and the table-level
// (smallest_sec, largest_sec) pair across the whole file. Adapted from the
// teacher's BlockInterval/Union pattern, retyped from uint64 timestamp
// ranges to lexicographically-ordered secondary value strings since this
// module's secondary values are arbitrary JSON-derived strings rather than
// MVCC timestamps.
type BlockAccumulator struct {
	hasValue bool
	min, max string
	maxSeq   base.SeqNum
}

// Add folds one entry's secondary value and sequence number into the
// accumulator. An entry whose payload yielded no secondary value still
// contributes its sequence number to maxSeq (per spec: "still contribute
// their sequence number to max_seq but not to (min_sec, max_sec)") by
// calling AddSeqNum instead.
func (a *BlockAccumulator) Add(value string, seqNum base.SeqNum) {
	a.AddSeqNum(seqNum)
	if !a.hasValue || value < a.min {
		a.min = value
	}
	if !a.hasValue || value > a.max {
		a.max = value
	}
	a.hasValue = true
}

// AddSeqNum folds in a sequence number without a secondary value.
func (a *BlockAccumulator) AddSeqNum(seqNum base.SeqNum) {
	if seqNum > a.maxSeq {
		a.maxSeq = seqNum
	}
}

// HasValue reports whether any entry in the block contributed a secondary
// value; if false, the block has no meaningful (min, max) and should not
// be fed into the ITree or interval block.
func (a *BlockAccumulator) HasValue() bool { return a.hasValue }

// Bounds returns the accumulated (min, max, maxSeq) triple.
func (a *BlockAccumulator) Bounds() (min, max string, maxSeq base.SeqNum) {
	return a.min, a.max, a.maxSeq
}

// Reset clears the accumulator for reuse on the next block.
func (a *BlockAccumulator) Reset() {
	*a = BlockAccumulator{}
}

// FileBounds tracks the (smallest_sec, largest_sec) pair across an entire
// SSTable, used for the file-level pruning step in evaluation (spec §4.5
// step 1, surfaced as table properties per §10).
type FileBounds struct {
	hasValue bool
	smallest string
	largest  string
}

// Union folds one block's (min, max) into the file-level bounds.
func (f *FileBounds) Union(min, max string) {
	if !f.hasValue || min < f.smallest {
		f.smallest = min
	}
	if !f.hasValue || max > f.largest {
		f.largest = max
	}
	f.hasValue = true
}

// Bounds returns the accumulated (smallest, largest) pair and whether any
// block contributed a value at all.
func (f *FileBounds) Bounds() (smallest, largest string, ok bool) {
	return f.smallest, f.largest, f.hasValue
}

// Intersects reports whether the closed range [low, high] could contain
// any value covered by these file bounds. A FileBounds with no recorded
// value never intersects (the file carries no secondary data to match).
func (f *FileBounds) Intersects(low, high string) bool {
	if !f.hasValue {
		return false
	}
	return !(high < f.smallest || low > f.largest)
}
