package eventstore

import (
	"context"
	"sync/atomic"
	"time"

	pdderrors "github.com/livp123/pddash/pkg/errors"
	"go.uber.org/zap"
)

// DefaultKeepAlive is the idle period after which a keep-alive frame is sent.
// DefaultKeepAlive 是发送保活帧前的空闲时间。
const DefaultKeepAlive = 15 * time.Second

// SessionState is a step of the observer protocol.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateReplayingHistory
	StateLive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReplayingHistory:
		return "replaying_history"
	case StateLive:
		return "live"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transport is the observer-facing side of a session (an SSE response, in production).
// Transport 是会话面向观察者的一端（生产环境中为 SSE 响应）。
type Transport interface {
	// Send writes one event.
	Send(e Event) error
	// KeepAlive writes an idle marker that carries no event.
	KeepAlive() error
}

// Filter decides whether an event is written to one observer. Nil means everything.
type Filter func(e Event) bool

// SessionConfig configures a Session.
type SessionConfig struct {
	HistoryLimit int
	KeepAlive    time.Duration
	Filter       Filter
	Logger       *zap.SugaredLogger
	// OnFrame, if set, is called after each successful write with "event" or "ping".
	OnFrame func(kind string)
}

// Session runs the observer protocol for one connection:
// connecting, replaying history, live, closed.
// Session 为一个连接运行观察者协议：连接、回放历史、实时、关闭。
type Session struct {
	hub       *Hub
	transport Transport
	cfg       SessionConfig
	state     atomic.Int32
}

// NewSession creates a session bound to hub and transport.
// NewSession 创建绑定到 hub 和 transport 的会话。
func NewSession(hub *Hub, transport Transport, cfg SessionConfig) *Session {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	return &Session{hub: hub, transport: transport, cfg: cfg}
}

// State returns the current protocol state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) setState(st SessionState) {
	s.state.Store(int32(st))
}

// Run streams history then live events until the transport fails, ctx is cancelled,
// or the hub evicts the observer (errors.ErrObserverEvicted).
// The registration is always released before Run returns.
// Run 先推送历史再推送实时事件，直到传输失败、ctx 取消或被 Hub 驱逐。
// 返回前总会释放注册。
func (s *Session) Run(ctx context.Context) error {
	s.setState(StateConnecting)
	history, sub := s.hub.Join(s.cfg.HistoryLimit)
	defer func() {
		s.hub.Unregister(sub)
		s.setState(StateClosed)
	}()

	log := s.cfg.Logger.With("observer", sub.ID())
	log.Debugf("Observer connected, replaying %d events", len(history))

	s.setState(StateReplayingHistory)
	for _, e := range history {
		if _, err := s.deliver(e); err != nil {
			log.Debugf("Observer write failed during replay: %v", err)
			return err
		}
	}

	s.setState(StateLive)
	timer := time.NewTimer(s.cfg.KeepAlive)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debugf("Observer disconnected")
			return ctx.Err()

		case e, ok := <-sub.Events():
			if !ok {
				log.Infof("Observer evicted, closing stream")
				return pdderrors.ErrObserverEvicted
			}
			written, err := s.deliver(e)
			if err != nil {
				log.Debugf("Observer write failed: %v", err)
				return err
			}
			if written {
				timer.Reset(s.cfg.KeepAlive)
			}

		case <-timer.C:
			if err := s.transport.KeepAlive(); err != nil {
				log.Debugf("Observer keep-alive failed: %v", err)
				return err
			}
			s.frame("ping")
			timer.Reset(s.cfg.KeepAlive)
		}
	}
}

func (s *Session) deliver(e Event) (bool, error) {
	if s.cfg.Filter != nil && !s.cfg.Filter(e) {
		return false, nil
	}
	if err := s.transport.Send(e); err != nil {
		return false, err
	}
	s.frame("event")
	return true, nil
}

func (s *Session) frame(kind string) {
	if s.cfg.OnFrame != nil {
		s.cfg.OnFrame(kind)
	}
}
