package config

import (
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/livp123/pddash/internal/utils/logger"
)

// DefaultConfigTemplate defines the default configuration file with bilingual comments.
// It is written by `pddash init` and parsed by DefaultConfig, so the two never drift.
// DefaultConfigTemplate 定义带双语注释的默认配置文件。
const DefaultConfigTemplate = `# pddash Configuration File / pddash 配置文件
#

# HTTP Server / HTTP 服务
server:
  # Bind address. Loopback by default; set 0.0.0.0 (or PDD_HOST) to allow external connections.
  # 绑定地址。默认仅回环；设置 0.0.0.0（或 PDD_HOST）以允许外部连接。
  host: "127.0.0.1"
  port: 8765
  # Dashboard page. Empty serves the built-in page.
  # 仪表盘页面。为空时使用内置页面。
  index_path: ""
  # Idle period before a keep-alive frame is sent on /events.
  # /events 上发送保活帧之前的空闲时间。
  keep_alive: "15s"
  # Log every request at debug level.
  # 以 debug 级别记录每个请求。
  access_log: false
  # PID file guarding against a second instance. Empty disables it.
  # 防止启动第二个实例的 PID 文件。为空时禁用。
  pid_file: ""

# Event Source / 事件源
source:
  # Newline-delimited JSON event log. Empty means <workspace>/.pdd-events.jsonl.
  # 以换行分隔的 JSON 事件日志。为空表示 <workspace>/.pdd-events.jsonl。
  events_file: ""
  # Directory listed by /files.
  # /files 列出的目录。
  workspace: "workspace"
  # poll: stat the file every poll_interval. follow: stream with tail (inotify).
  # poll：每个 poll_interval 检查一次文件。follow：使用 tail（inotify）跟随。
  mode: "poll"
  poll_interval: "500ms"
  # In follow mode, use stat polling instead of inotify (network filesystems).
  # follow 模式下使用 stat 轮询代替 inotify（网络文件系统）。
  follow_poll: false

# Event Store / 事件存储
store:
  # Events kept in memory for /history and replay.
  # 为 /history 和回放保留在内存中的事件数。
  max_events: 10000
  # Events replayed to each new /events connection.
  # 每个新 /events 连接回放的事件数。
  history_limit: 500
  # Per-observer queue; an observer that falls this far behind is disconnected.
  # 每个观察者的队列；落后超过该数量的观察者会被断开。
  queue_size: 1000

# Logging / 日志
logging:
  enabled: false
  level: "info"
  path: "logs/pddash.log"
  max_size: 10
  max_backups: 3
  max_age: 30
  compress: true

# Metrics / 指标
metrics:
  enabled: true
  path: "/metrics"
`

// GlobalConfig is the full configuration file.
// GlobalConfig 表示完整的配置文件。
type GlobalConfig struct {
	Server  ServerConfig         `yaml:"server"`
	Source  SourceConfig         `yaml:"source"`
	Store   StoreConfig          `yaml:"store"`
	Logging logger.LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig        `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
// ServerConfig 配置 HTTP 服务。
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	IndexPath string `yaml:"index_path"`
	KeepAlive string `yaml:"keep_alive"`
	AccessLog bool   `yaml:"access_log"`
	PidFile   string `yaml:"pid_file"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// KeepAliveDuration parses KeepAlive, falling back to the default.
func (s ServerConfig) KeepAliveDuration() time.Duration {
	return parseDuration(s.KeepAlive, DefaultKeepAlive)
}

// SourceConfig configures the event log and workspace.
// SourceConfig 配置事件日志和工作区。
type SourceConfig struct {
	EventsFile   string `yaml:"events_file"`
	Workspace    string `yaml:"workspace"`
	Mode         string `yaml:"mode"`
	PollInterval string `yaml:"poll_interval"`
	FollowPoll   bool   `yaml:"follow_poll"`
}

// EventsPath returns the event log path, derived from the workspace when unset.
// EventsPath 返回事件日志路径；未设置时由工作区推导。
func (s SourceConfig) EventsPath() string {
	if s.EventsFile != "" {
		return filepath.Clean(s.EventsFile)
	}
	return filepath.Join(s.Workspace, DefaultEventsFileName)
}

// PollDuration parses PollInterval, falling back to the default.
func (s SourceConfig) PollDuration() time.Duration {
	return parseDuration(s.PollInterval, DefaultPollInterval)
}

// StoreConfig sizes the in-memory event store.
// StoreConfig 设置内存事件存储的容量。
type StoreConfig struct {
	MaxEvents    int `yaml:"max_events"`
	HistoryLimit int `yaml:"history_limit"`
	QueueSize    int `yaml:"queue_size"`
}

// MetricsConfig configures the Prometheus endpoint.
// MetricsConfig 配置 Prometheus 端点。
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func parseDuration(s, fallback string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}
