package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/livp123/pddash/internal/api"
	"github.com/livp123/pddash/internal/config"
	"github.com/livp123/pddash/internal/eventstore"
	"github.com/livp123/pddash/internal/metrics"
	"github.com/livp123/pddash/internal/runtime"
	"go.uber.org/zap"
)

// Instance is one running pddash: event store, source loop and HTTP server.
// Instance 表示一个运行中的 pddash：事件存储、源循环和 HTTP 服务。
type Instance struct {
	cfg    *config.GlobalConfig
	log    *zap.SugaredLogger
	hub    *eventstore.Hub
	tailer *eventstore.Tailer
	server *api.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewInstance wires the components described by cfg without starting them.
// NewInstance 根据 cfg 组装各组件但不启动。
func NewInstance(cfg *config.GlobalConfig, log *zap.SugaredLogger) *Instance {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	hub := eventstore.NewHub(eventstore.HubOptions{
		MaxEvents: cfg.Store.MaxEvents,
		QueueSize: cfg.Store.QueueSize,
		Logger:    log,
	})

	opts := api.Options{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		IndexPath:    cfg.Server.IndexPath,
		Workspace:    cfg.Source.Workspace,
		HistoryLimit: cfg.Store.HistoryLimit,
		KeepAlive:    cfg.Server.KeepAliveDuration(),
		AccessLog:    cfg.Server.AccessLog,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
	}

	return &Instance{
		cfg:    cfg,
		log:    log,
		hub:    hub,
		tailer: eventstore.NewTailer(cfg.Source.EventsPath(), hub),
		server: api.NewServer(hub, opts, log),
	}
}

// Hub returns the event hub.
func (in *Instance) Hub() *eventstore.Hub {
	return in.hub
}

// Addr returns the HTTP listen address.
func (in *Instance) Addr() string {
	return in.server.Addr()
}

// Start loads the existing log, starts the source loop and binds the HTTP server.
// Start 加载现有日志、启动源循环并绑定 HTTP 服务。
func (in *Instance) Start(ctx context.Context) error {
	res, err := in.tailer.Poll()
	switch {
	case err != nil:
		metrics.PollErrors.Inc()
		in.log.Warnf("[WARN]  Initial load of %s failed, will retry: %v", in.tailer.Path(), err)
	case res.Missing:
		in.log.Infof("[INFO]  %s does not exist yet, waiting for it", in.tailer.Path())
	default:
		in.log.Infof("[LOAD] Loaded %d events from %s (%d malformed lines skipped)",
			res.Appended, in.tailer.Path(), res.Malformed)
	}

	runCtx, cancel := context.WithCancel(ctx)
	in.cancel = cancel

	mode := in.cfg.Source.Mode
	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		in.runSource(runCtx, mode)
	}()

	if err := in.server.Start(); err != nil {
		cancel()
		in.wg.Wait()
		return fmt.Errorf("failed to start HTTP server on %s: %w", in.cfg.Server.Addr(), err)
	}

	runtime.Mode = mode
	runtime.StartTime = time.Now()
	return nil
}

func (in *Instance) runSource(ctx context.Context, mode string) {
	watcher := eventstore.NewWatcher(in.tailer, in.cfg.Source.PollDuration(), in.log)
	if mode == config.ModeFollow {
		follower := eventstore.NewFollower(in.tailer, in.cfg.Source.FollowPoll, in.log)
		if err := follower.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			in.log.Errorf("[ERROR] Follow mode stopped: %v; falling back to polling", err)
		} else {
			return
		}
	} else {
		// Start already ran the startup poll.
		watcher.SkipInitialPoll()
	}
	watcher.Run(ctx)
}

// Stop shuts the HTTP server down, ending open streams, then stops the source loop.
// Stop 关闭 HTTP 服务（结束打开的流），然后停止源循环。
func (in *Instance) Stop(ctx context.Context) error {
	err := in.server.Stop(ctx)
	if in.cancel != nil {
		in.cancel()
	}
	in.wg.Wait()
	return err
}
