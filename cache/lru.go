// Package cache 提供带命中统计的有界 LRU 缓存，用于特征向量的 memoize。
//
// 淘汰语义是真 LRU：每次读/写都会把条目移到最近使用端，
// 容量满时淘汰最久未被访问的条目（而不是最早插入的条目）。
// 实现为哈希索引 + 侵入式双向链表，get/set/evict 均摊 O(1)。
package cache

import (
	"sync"
	"time"
)

// Cache 是泛型有界 LRU 缓存。所有方法并发安全。
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int

	index map[K]*entry[K, V]

	// head 最近使用端，tail 最久未使用端
	head *entry[K, V]
	tail *entry[K, V]

	hits      int64
	misses    int64
	evictions int64
}

type entry[K comparable, V any] struct {
	key            K
	value          V
	insertedAt     time.Time
	lastAccessedAt time.Time
	accessCount    int64

	prev *entry[K, V]
	next *entry[K, V]
}

// Stats 是缓存的命中/容量统计快照。
type Stats struct {
	Hits      int64
	Misses    int64
	HitRate   float64 // hits/(hits+misses)，无访问时为 0
	Size      int
	MaxSize   int
	Evictions int64
}

// New 创建容量为 maxSize 的缓存；maxSize <= 0 时退化为容量 1。
func New[K comparable, V any](maxSize int) *Cache[K, V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache[K, V]{
		maxSize: maxSize,
		index:   make(map[K]*entry[K, V], maxSize),
	}
}

// GetOrCompute 返回缓存值；未命中时调用 generator 恰好一次并缓存结果。
// 命中与未命中都会把条目置于最近使用端。
func (c *Cache[K, V]) GetOrCompute(key K, generator func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.index[key]; ok {
		c.hits++
		c.touch(e)
		return e.value
	}

	c.misses++
	value := generator()
	c.insert(key, value)
	return value
}

// Get 读取缓存值；命中时更新统计与最近使用位置。
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.touch(e)
	return e.value, true
}

// Set 写入缓存值，已存在时覆盖并置于最近使用端。
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.index[key]; ok {
		e.value = value
		c.touch(e)
		return
	}
	c.insert(key, value)
}

// Has 判断 key 是否在缓存中，不影响统计与淘汰顺序。
func (c *Cache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.index[key]
	return ok
}

// Delete 删除单个条目，返回是否存在。
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.index[key]
	if !ok {
		return false
	}
	c.unlink(e)
	delete(c.index, key)
	return true
}

// Clear 清空缓存（统计保留，便于观测累计命中率）。
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index = make(map[K]*entry[K, V], c.maxSize)
	c.head = nil
	c.tail = nil
}

// Cleanup 删除插入时间早于 now-maxAge 的条目，返回删除数量。
// maxAge <= 0 表示无限制，直接 no-op。
func (c *Cache[K, V]) Cleanup(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for e := c.tail; e != nil; {
		prev := e.prev
		if e.insertedAt.Before(cutoff) {
			c.unlink(e)
			delete(c.index, e.key)
			removed++
		}
		e = prev
	}
	return removed
}

// Len 返回当前条目数。
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// GetStats 返回统计快照。
func (c *Cache[K, V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Size:      len(c.index),
		MaxSize:   c.maxSize,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// insert 新建条目并置于最近使用端，容量满时先淘汰最久未使用的条目。
// 调用方必须持有锁。
func (c *Cache[K, V]) insert(key K, value V) {
	if len(c.index) >= c.maxSize {
		c.evictOldest()
	}

	now := time.Now()
	e := &entry[K, V]{
		key:            key,
		value:          value,
		insertedAt:     now,
		lastAccessedAt: now,
		accessCount:    1,
	}
	c.index[key] = e
	c.pushFront(e)
}

// touch 更新访问记录并移到最近使用端。调用方必须持有锁。
func (c *Cache[K, V]) touch(e *entry[K, V]) {
	e.lastAccessedAt = time.Now()
	e.accessCount++
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *Cache[K, V]) evictOldest() {
	if c.tail == nil {
		return
	}
	victim := c.tail
	c.unlink(victim)
	delete(c.index, victim.key)
	c.evictions++
}

func (c *Cache[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache[K, V]) unlink(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}
