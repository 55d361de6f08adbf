package runtime

import "time"

// Mode is the tailing mode in effect ("poll" or "follow"), set once the daemon has started.
// Mode 表示当前生效的追踪模式（"poll" 或 "follow"），守护进程启动后设置。
var Mode string

// ConfigPath stores the path to the configuration file provided via CLI flags.
// ConfigPath 存储通过 CLI 标志提供的配置文件路径。
var ConfigPath string

// StartTime is when the daemon began serving.
var StartTime time.Time

// Uptime returns how long the daemon has been serving, or zero before it started.
// Uptime 返回守护进程已运行的时长，启动前为零。
func Uptime() time.Duration {
	if StartTime.IsZero() {
		return 0
	}
	return time.Since(StartTime)
}
