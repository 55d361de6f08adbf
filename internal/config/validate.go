package config

import (
	"path"
	"strings"
	"time"

	pdderrors "github.com/livp123/pddash/pkg/errors"
)

// Validate checks the configuration and returns the first invalid field,
// wrapped in errors.ErrConfigInvalid.
// Validate 校验配置并返回第一个无效字段（包装为 errors.ErrConfigInvalid）。
func (c *GlobalConfig) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return pdderrors.NewConfigError("server.host", c.Server.Host)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return pdderrors.NewConfigError("server.port", c.Server.Port)
	}
	if !validDuration(c.Server.KeepAlive) {
		return pdderrors.NewConfigError("server.keep_alive", c.Server.KeepAlive)
	}

	if c.Source.EventsFile == "" && c.Source.Workspace == "" {
		return pdderrors.NewConfigError("source.events_file", c.Source.EventsFile)
	}
	switch c.Source.Mode {
	case ModePoll, ModeFollow:
	default:
		return pdderrors.NewConfigError("source.mode", c.Source.Mode)
	}
	if !validDuration(c.Source.PollInterval) {
		return pdderrors.NewConfigError("source.poll_interval", c.Source.PollInterval)
	}

	if c.Store.MaxEvents <= 0 {
		return pdderrors.NewConfigError("store.max_events", c.Store.MaxEvents)
	}
	if c.Store.HistoryLimit <= 0 {
		return pdderrors.NewConfigError("store.history_limit", c.Store.HistoryLimit)
	}
	if c.Store.QueueSize <= 0 {
		return pdderrors.NewConfigError("store.queue_size", c.Store.QueueSize)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return pdderrors.NewConfigError("logging.level", c.Logging.Level)
	}

	if c.Metrics.Enabled && !validMetricsPath(c.Metrics.Path) {
		return pdderrors.NewConfigError("metrics.path", c.Metrics.Path)
	}
	return nil
}

// reservedPaths are served by the HTTP server itself and cannot host /metrics.
var reservedPaths = map[string]bool{
	"/":        true,
	"/events":  true,
	"/history": true,
	"/files":   true,
	"/healthz": true,
	"/version": true,
}

// validMetricsPath accepts an absolute, clean path with no routing pattern syntax.
func validMetricsPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.ContainsAny(p, "{}?# \t\r\n") {
		return false
	}
	clean := path.Clean(p)
	if clean != p && clean+"/" != p {
		return false
	}
	return !reservedPaths[clean]
}

func validDuration(s string) bool {
	d, err := time.ParseDuration(s)
	return err == nil && d > 0
}
