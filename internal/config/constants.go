package config

const (
	// DefaultConfigPath is the configuration file used when --config is not given.
	// DefaultConfigPath 是未指定 --config 时使用的配置文件。
	DefaultConfigPath = "pddash.yaml"

	// DefaultHost binds to loopback only; external access needs an explicit opt-in.
	// DefaultHost 仅绑定回环地址；外部访问需要显式开启。
	DefaultHost = "127.0.0.1"
	DefaultPort = 8765

	// DefaultWorkspace is the directory listed by /files.
	DefaultWorkspace = "workspace"
	// DefaultEventsFileName is the event log inside the workspace when events_file is empty.
	DefaultEventsFileName = ".pdd-events.jsonl"

	DefaultPollInterval = "500ms"
	DefaultKeepAlive    = "15s"
	DefaultMetricsPath  = "/metrics"

	DefaultMaxEvents    = 10000
	DefaultHistoryLimit = 500
	DefaultQueueSize    = 1000

	// Source modes
	// 源追踪模式
	ModePoll   = "poll"
	ModeFollow = "follow"
)

// Environment variables applied on top of the config file.
// 在配置文件之上应用的环境变量。
const (
	EnvHost       = "PDD_HOST"
	EnvPort       = "PDD_PORT"
	EnvEventsFile = "PDD_EVENTS_FILE"
	EnvWorkspace  = "PDD_WORKSPACE"
	EnvLogLevel   = "PDD_LOG_LEVEL"
)
