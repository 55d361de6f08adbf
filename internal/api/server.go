package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/livp123/pddash/internal/eventstore"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options configures the HTTP server.
// Options 配置 HTTP 服务。
type Options struct {
	Host         string
	Port         int
	IndexPath    string        // empty serves the built-in page
	Workspace    string        // directory listed by /files
	HistoryLimit int           // events replayed to each /events connection
	KeepAlive    time.Duration // idle period before a ping frame
	MetricsPath  string        // empty disables /metrics
	AccessLog    bool
}

// Addr returns host:port.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Server serves the dashboard, the event stream and the read-only JSON endpoints.
// Server 提供仪表盘、事件流和只读 JSON 端点。
type Server struct {
	hub    *eventstore.Hub
	opts   Options
	logger *zap.SugaredLogger

	// baseCtx parents every request context; cancelling it ends open streams on shutdown.
	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a server reading from hub.
// NewServer 创建一个从 hub 读取数据的服务。
func NewServer(hub *eventstore.Hub, opts Options, logger *zap.SugaredLogger) *Server {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = eventstore.DefaultHistoryLimit
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = eventstore.DefaultKeepAlive
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		hub:     hub,
		opts:    opts,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Handler returns the full routing tree with middleware applied.
// A metrics path that collides with a built-in route or is not a valid pattern is an error.
// Handler 返回应用了中间件的完整路由树；metrics 路径与内置路由冲突或不是合法模式时返回错误。
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.Handle("GET /history", gzhttp.GzipHandler(http.HandlerFunc(s.handleHistory)))
	mux.Handle("GET /files", gzhttp.GzipHandler(http.HandlerFunc(s.handleFiles)))
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /version", s.handleVersion)

	if s.opts.MetricsPath != "" {
		if err := handle(mux, "GET "+s.opts.MetricsPath, promhttp.Handler()); err != nil {
			return nil, fmt.Errorf("invalid metrics path %q: %w", s.opts.MetricsPath, err)
		}
	}

	var h http.Handler = mux
	if s.opts.AccessLog {
		h = accessLogMiddleware(s.logger, h)
	}
	return requestIDMiddleware(h), nil
}

// handle registers pattern on mux, turning ServeMux's registration panic into an error.
func handle(mux *http.ServeMux, pattern string, h http.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	mux.Handle(pattern, h)
	return nil
}

// Start binds the listener and serves in the background.
// A bind failure (e.g. port in use) is returned synchronously.
// Start 绑定监听并在后台提供服务；绑定失败（如端口被占用）会同步返回。
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.opts.Addr())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.baseCtx },
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("[ERROR] HTTP server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
// Addr 返回实际绑定的地址；Start 之前返回配置的地址。
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr()
}

// Stop ends open event streams and shuts the server down gracefully.
// Stop 结束所有打开的事件流并优雅关闭服务。
func (s *Server) Stop(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
