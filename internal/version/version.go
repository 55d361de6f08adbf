package version

import "fmt"

// Build metadata, overridden with -ldflags "-X github.com/livp123/pddash/internal/version.Version=...".
// 构建元数据，可通过 -ldflags 覆盖。
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String returns a one-line description of the build.
// String 返回构建的单行描述。
func String() string {
	return fmt.Sprintf("pddash %s (commit %s, built %s)", Version, Commit, BuildDate)
}
