// Package itree implements the augmented two-dimensional interval tree
// used to answer top-K queries over secondary block intervals.
//
// The tree stores Interval values keyed by an opaque id and ordered by
// their Low string bound, augmented at every node with the maximum High
// and maximum Timestamp over its subtree so that a range query can prune
// whole subtrees without visiting them. Nodes live in a flat arena
// (ITree.nodes) addressed by int32 index; -1 plays the role of the nil
// sentinel that a pointer-based implementation would use.
package itree

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/your-org/leveldbplus/internal/base"
)

const nilIdx int32 = -1

// Interval is one entry in the tree: a block's secondary value range and
// the maximum sequence number (timestamp) among the keys that produced it.
type Interval struct {
	ID        string
	Low       string
	High      string
	Timestamp uint64
}

// overlaps reports whether the two intervals intersect; a shared endpoint
// counts as an intersection.
func (iv Interval) overlaps(other Interval) bool {
	if iv.Low < other.Low {
		return iv.High >= other.Low
	}
	return other.High >= iv.Low
}

// newer reports whether iv should sort before other in a top-K result,
// i.e. iv carries a strictly larger timestamp.
func (iv Interval) newer(other Interval) bool {
	return iv.Timestamp > other.Timestamp
}

type node struct {
	interval Interval
	isRed    bool
	left     int32
	right    int32
	parent   int32

	maxHigh      string
	maxTimestamp uint64
}

// Options configures an ITree's checkpoint behavior.
type Options struct {
	// IDDelimiter splits an interval id into a prefix used for grouping
	// (DeleteAll) and a per-entry suffix. Defaults to '+'.
	IDDelimiter byte
	// SyncThreshold is the number of mutations between automatic
	// checkpoint writes. Zero selects the default of 10000.
	SyncThreshold uint32
	// SyncFile is the checkpoint file path. Empty disables checkpointing.
	SyncFile string
	// Logger receives a non-fatal warning when an automatic checkpoint
	// write fails (§4.7: "Checkpoint write failure for the ITree: logged,
	// non-fatal"). Defaults to base.DefaultLogger.
	Logger base.Logger
}

func (o *Options) ensureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	n := *o
	if n.IDDelimiter == 0 {
		n.IDDelimiter = '+'
	}
	if n.SyncThreshold == 0 {
		n.SyncThreshold = 10000
	}
	if n.Logger == nil {
		n.Logger = base.DefaultLogger{}
	}
	return &n
}

// ITree is the process-wide augmented interval tree described above. It is
// safe for concurrent use; all mutations and queries serialize through mu.
//
// At most one TopKIterator may be outstanding at a time: starting a second
// iterator while one is live fails, and performing any Insert/Delete/
// DeleteAll while one is live cancels the existing iterator.
type ITree struct {
	mu sync.Mutex

	opts Options

	root  int32
	nodes []node
	free  []int32

	// storage maps an interval id directly to its arena index.
	storage map[string]int32
	// ids maps an id prefix (the portion before IDDelimiter) to the set of
	// suffixes live under it, supporting DeleteAll(prefix).
	ids map[string]map[string]struct{}

	syncCounter uint32

	iterator *TopKIterator

	// lastTransplantParent records the parent assigned by the most recent
	// call to transplant. A nil child carries no parent pointer of its
	// own to read back (unlike the C++ original, which repurposes a
	// shared sentinel node's .parent field for exactly this), so deletion
	// fixup threads the parent through explicitly instead.
	lastTransplantParent int32
}

// New creates an empty ITree.
func New(opts *Options) *ITree {
	o := opts.ensureDefaults()
	return &ITree{
		opts:    *o,
		root:    nilIdx,
		storage: make(map[string]int32),
		ids:     make(map[string]map[string]struct{}),
	}
}

func (t *ITree) isNil(x int32) bool { return x == nilIdx }

func (t *ITree) at(x int32) *node { return &t.nodes[x] }

func (t *ITree) alloc(iv Interval) int32 {
	n := node{interval: iv, left: nilIdx, right: nilIdx, parent: nilIdx}
	if len(t.free) > 0 {
		idx := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.nodes[idx] = n
		return idx
	}
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

func (t *ITree) release(x int32) {
	t.free = append(t.free, x)
}

// idParts splits id into the prefix used for DeleteAll grouping and the
// remaining suffix, at the first occurrence of the configured delimiter.
func (t *ITree) idParts(id string) (prefix, suffix string) {
	for i := 0; i < len(id); i++ {
		if id[i] == t.opts.IDDelimiter {
			return id[:i], id[i+1:]
		}
	}
	return id, ""
}

// cancelIterator stops and detaches the live iterator, if any. Every
// mutating operation calls this first, matching the original's
// `if (iterator_in_use) iterator->stop();` guard.
func (t *ITree) cancelIterator() {
	if t.iterator != nil {
		t.iterator.stopLocked()
		t.iterator = nil
	}
}

// Insert adds or replaces the interval identified by id. Re-inserting an
// id that is already present first deletes the old entry, matching the
// original's rewrite-on-duplicate behavior.
func (t *ITree) Insert(id, low, high string, timestamp uint64) error {
	if id == "" {
		return errors.Mark(errors.New("itree: empty interval id"), base.ErrInvalidArgument)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelIterator()

	prefix, suffix := t.idParts(id)
	if _, exists := t.storage[id]; exists {
		t.deleteLocked(id)
	}
	if _, ok := t.ids[prefix]; !ok {
		t.ids[prefix] = make(map[string]struct{})
	}
	t.ids[prefix][suffix] = struct{}{}

	z := t.alloc(Interval{ID: id, Low: low, High: high, Timestamp: timestamp})
	t.storage[id] = z
	t.treeInsert(z)

	t.syncCounter++
	if t.syncCounter > t.opts.SyncThreshold {
		t.syncAndWarn()
	}
	return nil
}

// syncAndWarn writes a checkpoint and logs, rather than propagates, a
// failure: a lost checkpoint leaves the tree correct in memory and the
// next automatic or explicit Sync may still succeed (§4.7).
func (t *ITree) syncAndWarn() {
	if err := t.syncLocked(); err != nil {
		t.opts.Logger.Infof("itree: checkpoint write failed: %v", err)
	}
}

// Delete removes the interval identified by id, if present.
func (t *ITree) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelIterator()
	return t.deleteLocked(id)
}

func (t *ITree) deleteLocked(id string) error {
	idx, ok := t.storage[id]
	if !ok {
		return nil
	}

	prefix, suffix := t.idParts(id)
	if set, ok := t.ids[prefix]; ok {
		delete(set, suffix)
		if len(set) == 0 {
			delete(t.ids, prefix)
		}
	}

	t.treeDelete(idx)
	delete(t.storage, id)

	t.syncCounter++
	if t.syncCounter > t.opts.SyncThreshold {
		t.syncAndWarn()
	}
	return nil
}

// DeleteAll removes every interval whose id shares the given prefix, e.g.
// every block interval belonging to one SSTable being dropped by
// compaction.
func (t *ITree) DeleteAll(prefix string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.ids[prefix]
	if !ok {
		return nil
	}
	suffixes := make([]string, 0, len(set))
	for s := range set {
		suffixes = append(suffixes, s)
	}

	t.cancelIterator()
	for _, s := range suffixes {
		id := prefix
		if s != "" {
			id = prefix + string(t.opts.IDDelimiter) + s
		}
		if err := t.deleteLocked(id); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the interval registered under id, if any.
func (t *ITree) Lookup(id string) (Interval, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.storage[id]
	if !ok {
		return Interval{}, false
	}
	return t.at(idx).interval, true
}

// TopK eagerly collects every interval intersecting [low, high] and returns
// them sorted by descending timestamp. Callers that want to stop early
// without paying for the full walk should use NewIterator instead.
func (t *ITree) TopK(low, high string) []Interval {
	t.mu.Lock()
	defer t.mu.Unlock()

	test := Interval{Low: low, High: high}
	var out []Interval
	t.intervalSearch(test, t.root, &out)

	// Insertion sort is fine here: callers cap K upstream, and this keeps
	// the dependency-free path obvious. For large result sets the lazy
	// iterator is the intended path.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].newer(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// intervalSearch is the recursive pruned walk: a subtree rooted at x is
// skipped entirely once test.Low exceeds x's max_high, and the right
// subtree is skipped once test.High falls below x's own low bound.
func (t *ITree) intervalSearch(test Interval, x int32, out *[]Interval) {
	if t.isNil(x) {
		return
	}
	n := t.at(x)
	if test.Low > n.maxHigh {
		return
	}
	t.intervalSearch(test, n.left, out)
	if n.interval.overlaps(test) {
		*out = append(*out, n.interval)
	}
	if test.High < n.interval.Low {
		return
	}
	t.intervalSearch(test, n.right, out)
}

func max2Str(a, b string) string {
	if a > b {
		return a
	}
	return b
}

func max3Str(a, b, c string) string {
	return max2Str(max2Str(a, b), c)
}

func max2U64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func max3U64(a, b, c uint64) uint64 {
	return max2U64(max2U64(a, b), c)
}

func (t *ITree) setMaxFields(x int32) {
	n := t.at(x)
	hasLeft, hasRight := !t.isNil(n.left), !t.isNil(n.right)
	switch {
	case hasLeft && hasRight:
		l, r := t.at(n.left), t.at(n.right)
		n.maxHigh = max3Str(n.interval.High, l.maxHigh, r.maxHigh)
		n.maxTimestamp = max3U64(n.interval.Timestamp, l.maxTimestamp, r.maxTimestamp)
	case hasLeft:
		l := t.at(n.left)
		n.maxHigh = max2Str(n.interval.High, l.maxHigh)
		n.maxTimestamp = max2U64(n.interval.Timestamp, l.maxTimestamp)
	case hasRight:
		r := t.at(n.right)
		n.maxHigh = max2Str(n.interval.High, r.maxHigh)
		n.maxTimestamp = max2U64(n.interval.Timestamp, r.maxTimestamp)
	default:
		n.maxHigh = n.interval.High
		n.maxTimestamp = n.interval.Timestamp
	}
}

// maxFieldsFixup walks from x all the way up to the root recomputing
// augmentation. The walk does not stop early: after a two-child delete the
// successor node sits higher on the same path with stale fields, even
// where the nodes below it are unchanged.
func (t *ITree) maxFieldsFixup(x int32) {
	for !t.isNil(x) {
		n := t.at(x)
		t.setMaxFields(x)
		x = n.parent
	}
}

func (t *ITree) treeInsert(z int32) {
	y, x := nilIdx, t.root
	zn := t.at(z)
	zn.maxHigh = zn.interval.High
	zn.maxTimestamp = zn.interval.Timestamp

	for !t.isNil(x) {
		y = x
		yn := t.at(y)
		if yn.maxHigh < zn.maxHigh {
			yn.maxHigh = zn.maxHigh
		}
		if yn.maxTimestamp < zn.maxTimestamp {
			yn.maxTimestamp = zn.maxTimestamp
		}
		if zn.interval.Low < t.at(x).interval.Low {
			x = t.at(x).left
		} else {
			x = t.at(x).right
		}
	}

	zn.parent = y
	if t.isNil(y) {
		t.root = z
	} else if zn.interval.Low < t.at(y).interval.Low {
		t.at(y).left = z
	} else {
		t.at(y).right = z
	}

	zn.left, zn.right = nilIdx, nilIdx
	zn.isRed = true

	t.insertFixup(z)
}

func (t *ITree) insertFixup(z int32) {
	for {
		zn := t.at(z)
		if t.isNil(zn.parent) || !t.at(zn.parent).isRed {
			break
		}
		p := zn.parent
		pn := t.at(p)
		gp := pn.parent
		gpn := t.at(gp)
		if p == gpn.left {
			y := gpn.right
			if !t.isNil(y) && t.at(y).isRed {
				pn.isRed = false
				t.at(y).isRed = false
				gpn.isRed = true
				z = gp
			} else {
				if z == pn.right {
					z = p
					t.leftRotate(z)
					p = t.at(z).parent
					pn = t.at(p)
					gp = pn.parent
					gpn = t.at(gp)
				}
				pn.isRed = false
				gpn.isRed = true
				t.rightRotate(gp)
			}
		} else {
			y := gpn.left
			if !t.isNil(y) && t.at(y).isRed {
				pn.isRed = false
				t.at(y).isRed = false
				gpn.isRed = true
				z = gp
			} else {
				if z == pn.left {
					z = p
					t.rightRotate(z)
					p = t.at(z).parent
					pn = t.at(p)
					gp = pn.parent
					gpn = t.at(gp)
				}
				pn.isRed = false
				gpn.isRed = true
				t.leftRotate(gp)
			}
		}
	}
	t.at(t.root).isRed = false
}

func (t *ITree) treeDelete(z int32) {
	y := z
	yOrigRed := t.at(y).isRed
	// x may be nilIdx, which carries no parent pointer, so the parent that
	// now owns x's slot is tracked in xParent instead.
	var x, xParent int32

	zn := t.at(z)
	if t.isNil(zn.left) {
		x = zn.right
		xParent = zn.parent
		t.transplant(z, x)
	} else if t.isNil(zn.right) {
		x = zn.left
		xParent = zn.parent
		t.transplant(z, x)
	} else {
		y = t.minimum(zn.right)
		yOrigRed = t.at(y).isRed
		x = t.at(y).right
		if t.at(y).parent == z {
			xParent = y
			if !t.isNil(x) {
				t.at(x).parent = y
			}
		} else {
			xParent = t.at(y).parent
			t.transplant(y, x)
			t.at(y).right = t.at(z).right
			t.at(t.at(y).right).parent = y
		}
		t.transplant(z, y)
		t.at(y).left = t.at(z).left
		t.at(t.at(y).left).parent = y
		t.at(y).isRed = t.at(z).isRed
	}

	t.maxFieldsFixup(xParent)

	if !yOrigRed {
		t.deleteFixup(x, xParent)
	}

	t.release(z)
}

func (t *ITree) transplant(u, v int32) {
	un := t.at(u)
	if t.isNil(un.parent) {
		t.root = v
	} else if u == t.at(un.parent).left {
		t.at(un.parent).left = v
	} else {
		t.at(un.parent).right = v
	}
	if !t.isNil(v) {
		t.at(v).parent = un.parent
	}
	t.lastTransplantParent = un.parent
}

func (t *ITree) minimum(x int32) int32 {
	for !t.isNil(t.at(x).left) {
		x = t.at(x).left
	}
	return x
}

func (t *ITree) leftRotate(x int32) {
	xn := t.at(x)
	y := xn.right
	yn := t.at(y)
	xn.right = yn.left
	if !t.isNil(yn.left) {
		t.at(yn.left).parent = x
	}
	yn.parent = xn.parent
	if t.isNil(xn.parent) {
		t.root = y
	} else if x == t.at(xn.parent).left {
		t.at(xn.parent).left = y
	} else {
		t.at(xn.parent).right = y
	}
	yn.left = x
	xn.parent = y

	yn.maxHigh = xn.maxHigh
	yn.maxTimestamp = xn.maxTimestamp
	t.setMaxFields(x)
}

func (t *ITree) rightRotate(x int32) {
	xn := t.at(x)
	y := xn.left
	yn := t.at(y)
	xn.left = yn.right
	if !t.isNil(yn.right) {
		t.at(yn.right).parent = x
	}
	yn.parent = xn.parent
	if t.isNil(xn.parent) {
		t.root = y
	} else if x == t.at(xn.parent).right {
		t.at(xn.parent).right = y
	} else {
		t.at(xn.parent).left = y
	}
	yn.right = x
	xn.parent = y

	yn.maxHigh = xn.maxHigh
	yn.maxTimestamp = xn.maxTimestamp
	t.setMaxFields(x)
}

func (t *ITree) deleteFixup(x, parent int32) {
	for x != t.root && (t.isNil(x) || !t.at(x).isRed) {
		p := parent
		if !t.isNil(x) {
			p = t.at(x).parent
		}
		pn := t.at(p)
		if x == pn.left {
			w := pn.right
			wn := t.at(w)
			if wn.isRed {
				wn.isRed = false
				pn.isRed = true
				t.leftRotate(p)
				w = pn.right
				wn = t.at(w)
			}
			if (t.isNil(wn.left) || !t.at(wn.left).isRed) && (t.isNil(wn.right) || !t.at(wn.right).isRed) {
				wn.isRed = true
				x = p
				parent = pn.parent
			} else {
				if t.isNil(wn.right) || !t.at(wn.right).isRed {
					if !t.isNil(wn.left) {
						t.at(wn.left).isRed = false
					}
					wn.isRed = true
					t.rightRotate(w)
					w = pn.right
					wn = t.at(w)
				}
				wn.isRed = pn.isRed
				pn.isRed = false
				if !t.isNil(wn.right) {
					t.at(wn.right).isRed = false
				}
				t.leftRotate(p)
				x = t.root
			}
		} else {
			w := pn.left
			wn := t.at(w)
			if wn.isRed {
				wn.isRed = false
				pn.isRed = true
				t.rightRotate(p)
				w = pn.left
				wn = t.at(w)
			}
			if (t.isNil(wn.left) || !t.at(wn.left).isRed) && (t.isNil(wn.right) || !t.at(wn.right).isRed) {
				wn.isRed = true
				x = p
				parent = pn.parent
			} else {
				if t.isNil(wn.left) || !t.at(wn.left).isRed {
					if !t.isNil(wn.right) {
						t.at(wn.right).isRed = false
					}
					wn.isRed = true
					t.leftRotate(w)
					w = pn.left
					wn = t.at(w)
				}
				wn.isRed = pn.isRed
				pn.isRed = false
				if !t.isNil(wn.left) {
					t.at(wn.left).isRed = false
				}
				t.rightRotate(p)
				x = t.root
			}
		}
	}
	if !t.isNil(x) {
		t.at(x).isRed = false
	}
}

// Height reports the tree's height (0 for an empty tree), used by tests to
// check the red-black balance invariant.
func (t *ITree) Height() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.height(t.root)
}

func (t *ITree) height(x int32) int {
	if t.isNil(x) {
		return 0
	}
	n := t.at(x)
	hl, hr := t.height(n.left), t.height(n.right)
	if hl > hr {
		return hl + 1
	}
	return hr + 1
}
