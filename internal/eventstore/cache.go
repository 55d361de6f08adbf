package eventstore

const (
	// DefaultMaxEvents bounds the in-memory replay cache.
	// DefaultMaxEvents 限制内存中回放缓存的大小。
	DefaultMaxEvents = 10000

	// DefaultHistoryLimit is how many recent events a new observer is replayed.
	// DefaultHistoryLimit 是新观察者连接时回放的最近事件数量。
	DefaultHistoryLimit = 500
)

// Cache is an append-only, capacity-limited sequence of events in log order.
// Cache is not safe for concurrent use; Hub serializes every access under its lock.
// Cache 是按日志顺序排列的只追加、容量受限的事件序列。
// Cache 不是并发安全的；Hub 在其锁下串行化所有访问。
type Cache struct {
	events []Event
	max    int
}

// NewCache creates a cache holding at most max events.
// NewCache 创建最多保存 max 个事件的缓存。
func NewCache(max int) *Cache {
	if max <= 0 {
		max = DefaultMaxEvents
	}
	return &Cache{max: max}
}

// Append adds an event at the tail and drops the oldest excess in one reslice.
// It returns the number of events evicted.
// Append 在尾部添加事件，并通过一次切片操作丢弃最旧的多余事件。
func (c *Cache) Append(e Event) int {
	c.events = append(c.events, e)
	excess := len(c.events) - c.max
	if excess <= 0 {
		return 0
	}
	// Release references so evicted events can be collected before the next regrow.
	clear(c.events[:excess])
	c.events = c.events[excess:]
	return excess
}

// Len returns the number of cached events.
func (c *Cache) Len() int {
	return len(c.events)
}

// Max returns the configured ceiling.
func (c *Cache) Max() int {
	return c.max
}

// Snapshot returns a copy of every cached event in order.
// Snapshot 按顺序返回所有缓存事件的副本。
func (c *Cache) Snapshot() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Recent returns a copy of up to limit most recent events in original order.
// Recent 按原始顺序返回最多 limit 个最近事件的副本。
func (c *Cache) Recent(limit int) []Event {
	if limit <= 0 {
		return []Event{}
	}
	start := 0
	if len(c.events) > limit {
		start = len(c.events) - limit
	}
	out := make([]Event, len(c.events)-start)
	copy(out, c.events[start:])
	return out
}
