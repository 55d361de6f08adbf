package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/livp123/pddash/internal/utils/fileutil"
	pdderrors "github.com/livp123/pddash/pkg/errors"
	"go.uber.org/zap"
)

// managePidFile writes the current PID to path.
// An existing file naming a live process fails with errors.ErrAlreadyRunning; a stale one is replaced.
// managePidFile 将当前 PID 写入 path。
// 已存在且对应进程存活时返回 errors.ErrAlreadyRunning；过期的文件会被替换。
func managePidFile(path string) error {
	safePath := filepath.Clean(path)
	if data, err := os.ReadFile(safePath); err == nil { // #nosec G304 // path is operator configuration
		if pid, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil && processAlive(pid) {
			return fmt.Errorf("%w: pid %d (%s)", pdderrors.ErrAlreadyRunning, pid, safePath)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	pid := os.Getpid()
	if err := fileutil.AtomicWriteFile(safePath, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func removePidFile(path string, log *zap.SugaredLogger) {
	if err := os.Remove(filepath.Clean(path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("[WARN]  Failed to remove PID file: %v", err)
	}
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if pid == os.Getpid() {
		return true
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
