package eventstore

import "sync/atomic"

// Cursor is the byte offset into the source log up to which lines were consumed.
// It is written by a single tailer; readers (health, metrics) may load it concurrently.
// Cursor 是源日志中已消费行的字节偏移量。
type Cursor struct {
	offset atomic.Int64
}

// Offset returns the current byte offset.
func (c *Cursor) Offset() int64 {
	return c.offset.Load()
}

// Reconcile compares the cursor with the size just observed on disk.
// A file smaller than the cursor was truncated or rewritten: the cursor resets to 0
// and Reconcile reports true.
// Reconcile 将游标与刚观察到的文件大小比较。
// 文件小于游标说明已被截断或重写：游标重置为 0 并返回 true。
func (c *Cursor) Reconcile(size int64) bool {
	if size < c.offset.Load() {
		c.offset.Store(0)
		return true
	}
	return false
}

// Advance moves the cursor forward by n consumed bytes.
func (c *Cursor) Advance(n int64) {
	c.offset.Add(n)
}

// Set positions the cursor at an absolute offset.
func (c *Cursor) Set(offset int64) {
	if offset < 0 {
		offset = 0
	}
	c.offset.Store(offset)
}

// Reset rewinds the cursor to the start of the file.
func (c *Cursor) Reset() {
	c.offset.Store(0)
}
