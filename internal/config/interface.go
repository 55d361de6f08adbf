package config

import "github.com/livp123/pddash/internal/utils/logger"

// Configurable represents the interface for configuration management
// Configurable 表示配置管理的接口
type Configurable interface {
	LoadConfig() error
	SaveConfig() error
	GetConfig() *GlobalConfig
	UpdateConfig(*GlobalConfig)

	// Getters for specific configuration sections
	GetServerConfig() *ServerConfig
	GetSourceConfig() *SourceConfig
	GetStoreConfig() *StoreConfig
	GetLoggingConfig() *logger.LoggingConfig
	GetMetricsConfig() *MetricsConfig

	SetLoggingConfig(logger.LoggingConfig)

	// Utility methods
	GetConfigPath() string
	Validate() error
}

var _ Configurable = (*ConfigManager)(nil)
