package version

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/your-org/leveldbplus/internal/base"
)

func TestVersionSetApplyAddAndRemove(t *testing.T) {
	vs := NewVersionSet()
	t1 := &TableMetadata{FileNum: vs.NextFileNum(), Smallest: []byte("a"), Largest: []byte("m")}
	v1 := vs.Apply(Edit{Added: []*TableMetadata{t1}})
	require.Len(t, v1.Tables, 1)

	t2 := &TableMetadata{FileNum: vs.NextFileNum(), Smallest: []byte("a"), Largest: []byte("z")}
	v2 := vs.Apply(Edit{Added: []*TableMetadata{t2}, Removed: []base.FileNum{t1.FileNum}})
	require.Len(t, v2.Tables, 1)
	require.Equal(t, t2.FileNum, v2.Tables[0].FileNum)

	// v1 is untouched by the later edit.
	require.Len(t, v1.Tables, 1)
	require.Equal(t, t1.FileNum, v1.Tables[0].FileNum)
}

func TestVersionSetNextFileNumMonotonic(t *testing.T) {
	vs := NewVersionSet()
	a, b := vs.NextFileNum(), vs.NextFileNum()
	require.Less(t, a, b)
}

func TestTableMetadataIntersects(t *testing.T) {
	m := &TableMetadata{HasSecondaryBounds: true, SmallestSec: "3", LargestSec: "7"}
	require.True(t, m.Intersects("5", "5"))
	require.True(t, m.Intersects("0", "3"))
	require.False(t, m.Intersects("8", "9"))

	noBounds := &TableMetadata{}
	require.False(t, noBounds.Intersects("0", "9"))
}
