// Package version tracks the set of live sstables: a minimal,
// single-level stand-in for the teacher's internal/manifest, sized for a
// single-pass size-tiered compactor rather than the teacher's full
// leveled btree of table metadata.
package version

import (
	"sync"

	"github.com/your-org/leveldbplus/internal/base"
)

// TableMetadata describes one live sstable: its identity, its primary
// key bounds, and (when it carries secondary data) its file-level
// secondary bounds, surfaced from the table's properties block
// (SPEC_FULL §10, "File-level secondary pruning").
type TableMetadata struct {
	FileNum           base.FileNum
	Size              uint64
	Smallest, Largest []byte // primary user key bounds

	HasSecondaryBounds      bool
	SmallestSec, LargestSec string

	// HasIntervalBlock mirrors the table's footer variant, needed by
	// sstable.OpenReader (which cannot sniff it from the footer alone).
	HasIntervalBlock bool
}

// Intersects reports whether this table's secondary bounds could
// contain any value in [low, high].
func (m *TableMetadata) Intersects(low, high string) bool {
	if !m.HasSecondaryBounds {
		return false
	}
	return !(high < m.SmallestSec || low > m.LargestSec)
}

// Version is an immutable snapshot of the live table set. A new Version
// is produced by VersionSet.Apply rather than mutated in place, so
// readers that captured a *Version before a compaction keep iterating
// over the tables that compaction just replaced.
type Version struct {
	Tables []*TableMetadata
}

// VersionSet owns the current Version and the monotonic file-number
// counter, guarded by a single mutex — the teacher's own commit-mutex
// shape (§5, "AMBIENT"), simplified for a single-writer engine.
type VersionSet struct {
	mu      sync.Mutex
	current *Version
	nextNum base.FileNum
}

// NewVersionSet returns an empty VersionSet.
func NewVersionSet() *VersionSet {
	return &VersionSet{current: &Version{}, nextNum: 1}
}

// Current returns the live Version. Safe to retain across concurrent
// compactions: the returned value is never mutated, only replaced.
func (vs *VersionSet) Current() *Version {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.current
}

// NextFileNum allocates a fresh, never-reused file number.
func (vs *VersionSet) NextFileNum() base.FileNum {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	n := vs.nextNum
	vs.nextNum++
	return n
}

// Edit describes one change to the live table set: tables to add (e.g.
// a flush's or compaction's output) and tables to remove (a
// compaction's inputs), applied atomically.
type Edit struct {
	Added   []*TableMetadata
	Removed []base.FileNum
}

// Apply installs a new Version reflecting edit, replacing the current
// one. The old Version (and anything still iterating it) is untouched.
func (vs *VersionSet) Apply(edit Edit) *Version {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	removed := make(map[base.FileNum]bool, len(edit.Removed))
	for _, n := range edit.Removed {
		removed[n] = true
	}

	next := &Version{Tables: make([]*TableMetadata, 0, len(vs.current.Tables)+len(edit.Added))}
	for _, t := range vs.current.Tables {
		if !removed[t.FileNum] {
			next.Tables = append(next.Tables, t)
		}
	}
	next.Tables = append(next.Tables, edit.Added...)

	vs.current = next
	return next
}
