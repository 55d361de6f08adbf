package eventstore

import (
	"sync"

	"github.com/google/uuid"
	"github.com/livp123/pddash/internal/metrics"
	"go.uber.org/zap"
)

// DefaultQueueSize is the capacity of each observer's delivery queue.
// DefaultQueueSize 是每个观察者投递队列的容量。
const DefaultQueueSize = 1000

// Broadcaster accepts parsed events from a tailer.
type Broadcaster interface {
	Broadcast(e Event)
}

// Subscription is one observer's registration: a bounded queue fed by the Hub.
// The queue is closed when the registration ends, whether by Unregister or by eviction.
// Subscription 是一个观察者的注册：由 Hub 填充的有界队列。
type Subscription struct {
	id string
	ch chan Event
}

// ID returns the unique observer id.
func (s *Subscription) ID() string {
	return s.id
}

// Events returns the receive side of the queue.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// HubOptions configures a Hub.
type HubOptions struct {
	MaxEvents int
	QueueSize int
	Logger    *zap.SugaredLogger
}

// Hub owns the event cache and the observer registration set behind one lock.
// Append, snapshot, recent, register and unregister are mutually exclusive, which is
// what makes the history-then-live handoff in Join gap-free and duplicate-free.
// Hub 在一把锁后持有事件缓存和观察者注册集合。
type Hub struct {
	mu        sync.Mutex
	cache     *Cache
	subs      map[*Subscription]struct{}
	queueSize int
	logger    *zap.SugaredLogger
}

// NewHub creates a Hub.
// NewHub 创建一个 Hub。
func NewHub(opts HubOptions) *Hub {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Hub{
		cache:     NewCache(opts.MaxEvents),
		subs:      make(map[*Subscription]struct{}),
		queueSize: opts.QueueSize,
		logger:    opts.Logger,
	}
}

// Broadcast appends the event to the cache and offers it to every observer queue
// without blocking. Observers whose queue is full are evicted and their queue closed.
// Broadcast 将事件追加到缓存，并以非阻塞方式投递给每个观察者队列。
// 队列已满的观察者会被驱逐，其队列被关闭。
func (h *Hub) Broadcast(e Event) {
	var evicted []string

	h.mu.Lock()
	h.cache.Append(e)
	for sub := range h.subs {
		select {
		case sub.ch <- e:
		default:
			delete(h.subs, sub)
			close(sub.ch)
			evicted = append(evicted, sub.id)
		}
	}
	cached, observers := h.cache.Len(), len(h.subs)
	h.mu.Unlock()

	metrics.EventsIngested.Inc()
	metrics.CachedEvents.Set(float64(cached))
	if len(evicted) > 0 {
		metrics.ObserversEvicted.Add(float64(len(evicted)))
		metrics.Observers.Set(float64(observers))
		for _, id := range evicted {
			h.logger.Warnf("[EVICT] Observer %s dropped: queue saturated (%d)", id, h.queueSize)
		}
	}
}

// Register adds a new observer queue to the fan-out set.
// Register 将新的观察者队列加入扇出集合。
func (h *Hub) Register() *Subscription {
	sub := h.newSubscription()

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	observers := len(h.subs)
	h.mu.Unlock()

	metrics.Observers.Set(float64(observers))
	return sub
}

// Unregister removes the observer and closes its queue.
// Unknown or already evicted subscriptions are ignored, so it is safe to call repeatedly.
// Unregister 移除观察者并关闭其队列。可重复调用。
func (h *Hub) Unregister(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
	observers := len(h.subs)
	h.mu.Unlock()

	if ok {
		metrics.Observers.Set(float64(observers))
	}
}

// Join captures the most recent limit events and then registers a live queue,
// both inside a single critical section. Every event is therefore either in the
// returned history or delivered to the queue, never both and never neither.
// Join 在同一临界区内先获取最近 limit 个事件，再注册实时队列。
// 因此每个事件要么在返回的历史中，要么投递到队列，既不重复也不丢失。
func (h *Hub) Join(limit int) ([]Event, *Subscription) {
	sub := h.newSubscription()

	h.mu.Lock()
	history := h.cache.Recent(limit)
	h.subs[sub] = struct{}{}
	observers := len(h.subs)
	h.mu.Unlock()

	metrics.Observers.Set(float64(observers))
	return history, sub
}

// Recent returns up to limit most recent events.
func (h *Hub) Recent(limit int) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cache.Recent(limit)
}

// Snapshot returns every cached event.
func (h *Hub) Snapshot() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cache.Snapshot()
}

// Len returns the number of cached events.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cache.Len()
}

// Observers returns the number of registered observers.
func (h *Hub) Observers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) newSubscription() *Subscription {
	return &Subscription{
		id: uuid.NewString(),
		ch: make(chan Event, h.queueSize),
	}
}
