// Package workspace lists the files an agent run has produced.
// Package workspace 列出代理运行产生的文件。
package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pdderrors "github.com/livp123/pddash/pkg/errors"
)

// FileInfo describes one regular file under the workspace root.
// FileInfo 描述工作区根目录下的一个普通文件。
type FileInfo struct {
	Path     string  `json:"path"`     // relative, slash-separated
	Size     int64   `json:"size"`     // bytes
	Modified float64 `json:"modified"` // Unix seconds
}

// List walks root and returns every non-hidden file, in lexical order.
// Hidden files and directories (leading dot) are skipped. Symlinks to files report the
// target's size and mtime; symlinks to directories are not followed; broken links and
// unreadable entries are skipped. A missing root yields an empty list.
// List 遍历 root 并按字典序返回所有非隐藏文件。
// 跳过隐藏文件和目录；指向文件的符号链接报告目标的元数据；不跟随指向目录的符号链接；
// 跳过损坏的链接和不可读的条目。root 不存在时返回空列表。
func List(root string) ([]FileInfo, error) {
	files := []FileInfo{}

	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return files, nil
		}
		return nil, pdderrors.NewWorkspaceError(root, err)
	}
	if !info.IsDir() {
		return files, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if path == root {
			return walkErr
		}
		if walkErr != nil {
			// Unreadable directory or vanished entry.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		var fi fs.FileInfo
		var statErr error
		if d.Type()&fs.ModeSymlink != 0 {
			fi, statErr = os.Stat(path)
		} else {
			fi, statErr = d.Info()
		}
		if statErr != nil || fi.IsDir() || !fi.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:     filepath.ToSlash(rel),
			Size:     fi.Size(),
			Modified: float64(fi.ModTime().UnixNano()) / 1e9,
		})
		return nil
	})
	if err != nil {
		return nil, pdderrors.NewWorkspaceError(root, err)
	}
	return files, nil
}
