package eventstore

import (
	"context"
	"time"

	"github.com/livp123/pddash/internal/metrics"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often the Watcher polls the source log.
const DefaultPollInterval = 500 * time.Millisecond

// Watcher polls a Tailer on a fixed interval until its context is cancelled.
// Watcher 以固定间隔轮询 Tailer，直到其 context 被取消。
type Watcher struct {
	tailer      *Tailer
	interval    time.Duration
	logger      *zap.SugaredLogger
	skipInitial bool
}

// NewWatcher creates a poll loop for tailer.
// NewWatcher 为 tailer 创建轮询循环。
func NewWatcher(tailer *Tailer, interval time.Duration, logger *zap.SugaredLogger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Watcher{tailer: tailer, interval: interval, logger: logger}
}

// SkipInitialPoll makes Run wait for the first tick instead of polling at once.
// Used when the caller has just polled the tailer itself.
// SkipInitialPoll 使 Run 等待第一个周期而不是立即轮询（调用方刚完成一次轮询时使用）。
func (w *Watcher) SkipInitialPoll() *Watcher {
	w.skipInitial = true
	return w
}

// Run polls immediately (unless SkipInitialPoll was set) and then on every tick.
// Blocks until ctx is cancelled.
// Run 立即轮询一次（除非设置了 SkipInitialPoll），之后每个周期轮询一次。阻塞直到 ctx 被取消。
func (w *Watcher) Run(ctx context.Context) {
	if !w.skipInitial {
		w.tick()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debugf("Stopping watcher for %s", w.tailer.Path())
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *Watcher) tick() {
	res, err := w.tailer.Poll()
	if err != nil {
		metrics.PollErrors.Inc()
		w.logger.Debugf("Poll of %s failed, retrying next tick: %v", w.tailer.Path(), err)
		return
	}

	switch {
	case res.Rotated:
		w.logger.Infof("[ROTATE] %s was replaced, re-reading from start", w.tailer.Path())
	case res.Truncated:
		w.logger.Infof("[TRUNCATE] %s shrank below offset, re-reading from start", w.tailer.Path())
	}
	if res.Appended > 0 || res.Malformed > 0 {
		w.logger.Debugf("Polled %s: %d events, %d malformed lines, offset %d",
			w.tailer.Path(), res.Appended, res.Malformed, res.Offset)
	}
}
