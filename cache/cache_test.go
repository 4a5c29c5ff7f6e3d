package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockCacheGetMiss(t *testing.T) {
	c := NewBlockCache(1 << 20)
	require.Nil(t, c.Get(1, 0))
}

func TestBlockCacheInsertThenGet(t *testing.T) {
	c := NewBlockCache(1 << 20)
	data := []byte("block-payload")
	require.Equal(t, data, c.Insert(1, 128, data))
	require.Equal(t, data, c.Get(1, 128))
}

func TestBlockCacheDistinguishesOffsetsAndFiles(t *testing.T) {
	c := NewBlockCache(1 << 20)
	c.Insert(1, 0, []byte("a"))
	c.Insert(1, 1, []byte("b"))
	c.Insert(2, 0, []byte("c"))
	require.Equal(t, []byte("a"), c.Get(1, 0))
	require.Equal(t, []byte("b"), c.Get(1, 1))
	require.Equal(t, []byte("c"), c.Get(2, 0))
}

func TestBlockCacheEvictsUnderPressure(t *testing.T) {
	c := NewBlockCache(numShards * 16)
	for i := uint64(0); i < numShards; i++ {
		c.Insert(i, 0, make([]byte, 8))
	}
	for i := uint64(0); i < numShards; i++ {
		c.Insert(i, 1, make([]byte, 8))
		c.Insert(i, 2, make([]byte, 8))
	}
	require.Nil(t, c.Get(0, 0))
}

func TestNilBlockCacheIsANoop(t *testing.T) {
	var c *BlockCache
	require.Nil(t, c.Get(1, 0))
	require.Equal(t, []byte("x"), c.Insert(1, 0, []byte("x")))
}
