// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package cache implements a small sharded LRU block cache, used by the
// engine as its open-table and data-block cache.
package cache

import (
	"fmt"
	"sync"
)

// Key identifies one cached block: the table it came from and its byte
// offset within that table.
type Key struct {
	FileNum uint64
	Offset  uint64
}

func (k Key) String() string {
	return fmt.Sprintf("%d.%d", k.FileNum, k.Offset)
}

type entry struct {
	key        Key
	data       []byte
	next, prev *entry
}

func (e entry) String() string {
	return e.key.String()
}

// entryList is a double-linked circular list of *entry elements. The code is
// derived from the stdlib container/list but customized to entry in order to
// avoid a separate allocation for every element.
type entryList struct {
	root entry
}

func (l *entryList) init() {
	l.root.next = &l.root
	l.root.prev = &l.root
}

func (l *entryList) empty() bool {
	return l.root.next == &l.root
}

func (l *entryList) back() *entry {
	return l.root.prev
}

func (l *entryList) insertAfter(e, at *entry) {
	n := at.next
	at.next = e
	e.prev = at
	e.next = n
	n.prev = e
}

func (l *entryList) remove(e *entry) *entry {
	if e == &l.root {
		panic("cannot remove root list node")
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil // avoid memory leaks
	e.prev = nil // avoid memory leaks
	return e
}

func (l *entryList) pushFront(e *entry) {
	l.insertAfter(e, &l.root)
}

func (l *entryList) moveToFront(e *entry) {
	if l.root.next == e {
		return
	}
	l.insertAfter(l.remove(e), &l.root)
}

// shard is one independently-locked LRU partition of the cache.
type shard struct {
	maxSize int64

	mu   sync.Mutex
	m    map[Key]*entry
	size int64
	lru  entryList
}

func newShard(maxSize int64) *shard {
	s := &shard{
		maxSize: maxSize,
		m:       make(map[Key]*entry),
	}
	s.lru.init()
	return s
}

func (s *shard) get(k Key) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e := s.m[k]; e != nil {
		s.lru.moveToFront(e)
		return e.data
	}
	return nil
}

func (s *shard) insert(k Key, data []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e := s.m[k]; e != nil {
		return e.data
	}
	e := &entry{key: k, data: data}
	s.m[k] = e
	s.lru.pushFront(e)
	s.size += int64(len(e.data))
	s.evict()
	return e.data
}

func (s *shard) evict() {
	for s.size > s.maxSize && !s.lru.empty() {
		e := s.lru.back()
		s.lru.remove(e)
		delete(s.m, e.key)
		s.size -= int64(len(e.data))
	}
}

const numShards = 16

// BlockCache is a fixed-size, sharded LRU cache of decoded sstable blocks,
// shared by the engine as both its open-table (index/filter) cache and its
// data-block cache. Sharding by key spreads the lock contention a single
// mutex would otherwise put on every block read across concurrent queries.
type BlockCache struct {
	shards [numShards]*shard
}

// NewBlockCache creates a BlockCache holding up to maxSize bytes of block
// data, split evenly across its shards.
func NewBlockCache(maxSize int64) *BlockCache {
	c := &BlockCache{}
	perShard := maxSize / numShards
	if perShard < 1 {
		perShard = 1
	}
	for i := range c.shards {
		c.shards[i] = newShard(perShard)
	}
	return c
}

func (c *BlockCache) shardFor(k Key) *shard {
	h := k.FileNum*31 + k.Offset
	return c.shards[h%numShards]
}

// Get returns the cached block for (fileNum, offset), or nil if absent. Get
// on a nil *BlockCache always misses, letting callers pass a nil cache to
// disable caching without a separate code path.
func (c *BlockCache) Get(fileNum, offset uint64) []byte {
	if c == nil {
		return nil
	}
	k := Key{FileNum: fileNum, Offset: offset}
	return c.shardFor(k).get(k)
}

// Insert records data as the cached block for (fileNum, offset) and returns
// the now-cached value — either data itself, or a value some other
// concurrent Insert for the same key won the race to store first.
func (c *BlockCache) Insert(fileNum, offset uint64, data []byte) []byte {
	if c == nil {
		return data
	}
	k := Key{FileNum: fileNum, Offset: offset}
	return c.shardFor(k).insert(k, data)
}
