package itree

import (
	"container/list"
	"fmt"
	"strings"
)

// DebugString renders the tree level by level, one line per depth, with
// each node shown as (id,low,high,timestamp):(max_high,max_timestamp,color).
// Intended for tests asserting the augmentation invariant, not for
// production diagnostics.
func (t *ITree) DebugString() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.isNil(t.root) {
		return "<empty>"
	}

	type queued struct {
		idx   int32
		depth int
	}
	q := list.New()
	q.PushBack(queued{t.root, 0})

	var sb strings.Builder
	level := 0
	var line strings.Builder
	for q.Len() > 0 {
		front := q.Remove(q.Front()).(queued)
		n := t.at(front.idx)

		if front.depth != level {
			sb.WriteString(line.String())
			sb.WriteByte('\n')
			line.Reset()
			level = front.depth
		}

		color := 'B'
		if n.isRed {
			color = 'R'
		}
		fmt.Fprintf(&line, "(%s,%s,%s,%d):(%s,%d,%c)  ",
			n.interval.ID, n.interval.Low, n.interval.High, n.interval.Timestamp,
			n.maxHigh, n.maxTimestamp, color)

		if !t.isNil(n.left) {
			q.PushBack(queued{n.left, front.depth + 1})
		}
		if !t.isNil(n.right) {
			q.PushBack(queued{n.right, front.depth + 1})
		}
	}
	sb.WriteString(line.String())
	return sb.String()
}
