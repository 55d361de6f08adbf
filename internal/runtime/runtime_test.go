package runtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestConfigPath tests the ConfigPath variable
// TestConfigPath 测试 ConfigPath 变量
func TestConfigPath(t *testing.T) {
	originalPath := ConfigPath
	defer func() { ConfigPath = originalPath }()

	ConfigPath = "/tmp/pddash.yaml"
	assert.Equal(t, "/tmp/pddash.yaml", ConfigPath)
}

// TestUptime tests Uptime before and after start
// TestUptime 测试启动前后的 Uptime
func TestUptime(t *testing.T) {
	original := StartTime
	defer func() { StartTime = original }()

	StartTime = time.Time{}
	assert.Equal(t, time.Duration(0), Uptime())

	StartTime = time.Now().Add(-time.Minute)
	assert.GreaterOrEqual(t, Uptime(), time.Minute)
}
