package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/livp123/pddash/internal/utils/fileutil"
	pdderrors "github.com/livp123/pddash/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the configuration described by DefaultConfigTemplate.
// DefaultConfig 返回 DefaultConfigTemplate 描述的配置。
func DefaultConfig() *GlobalConfig {
	var cfg GlobalConfig
	if err := yaml.Unmarshal([]byte(DefaultConfigTemplate), &cfg); err != nil {
		panic(fmt.Sprintf("config: invalid default template: %v", err))
	}
	return &cfg
}

// LoadGlobalConfig reads the YAML file at path on top of the defaults.
// A missing file yields the defaults; a file that cannot be parsed wraps errors.ErrConfigInvalid.
// LoadGlobalConfig 在默认值之上读取 path 处的 YAML 文件。
// 文件不存在时返回默认值；无法解析时返回包装 errors.ErrConfigInvalid 的错误。
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	cfg := DefaultConfig()

	safePath := filepath.Clean(path) // Sanitize path to prevent directory traversal
	data, err := os.ReadFile(safePath) // #nosec G304 // path is operator configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pdderrors.ErrConfigInvalid, safePath, err)
	}
	return cfg, nil
}

// SaveGlobalConfig writes cfg to path atomically.
// When path already holds a valid YAML document the new values are merged into it so that
// comments and unknown keys survive.
// SaveGlobalConfig 原子地将 cfg 写入 path。
// 若 path 已是有效的 YAML 文档，则将新值合并进去以保留注释和未知键。
func SaveGlobalConfig(path string, cfg *GlobalConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var newNode yaml.Node
	if err := yaml.Unmarshal(data, &newNode); err != nil {
		return err
	}

	safePath := filepath.Clean(path)
	base := []byte(DefaultConfigTemplate)
	if fileData, readErr := os.ReadFile(safePath); readErr == nil { // #nosec G304 // path is operator configuration
		base = fileData
	}

	var fileNode yaml.Node
	if err := yaml.Unmarshal(base, &fileNode); err != nil || fileNode.Kind != yaml.DocumentNode {
		// Fallback if the file is malformed: just write the new config
		return fileutil.AtomicWriteFile(safePath, data, 0600)
	}

	MergeYamlNodes(&fileNode, &newNode)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&fileNode); err != nil {
		return err
	}
	return fileutil.AtomicWriteFile(safePath, buf.Bytes(), 0600)
}

// WriteDefaultConfig writes DefaultConfigTemplate to path unless a file already exists there.
// WriteDefaultConfig 将 DefaultConfigTemplate 写入 path，已存在时不覆盖。
func WriteDefaultConfig(path string, force bool) error {
	if !force && fileutil.Exists(path) {
		return fmt.Errorf("%w: %s", fs.ErrExist, path)
	}
	return fileutil.AtomicWriteFile(filepath.Clean(path), []byte(DefaultConfigTemplate), 0644)
}

// MergeYamlNodes updates target (existing file) with source (new config).
// Target keeps its comments and key order; keys only present in source are appended.
// MergeYamlNodes 用 source（新配置）更新 target（现有文件），保留 target 的注释和键顺序。
func MergeYamlNodes(target, source *yaml.Node) {
	if target.Kind == yaml.DocumentNode {
		if source.Kind == yaml.DocumentNode && len(target.Content) > 0 && len(source.Content) > 0 {
			MergeYamlNodes(target.Content[0], source.Content[0])
		}
		return
	}

	if target.Kind != yaml.MappingNode || source.Kind != yaml.MappingNode {
		// Replace the value but keep the comments written around it.
		if source.HeadComment == "" {
			source.HeadComment = target.HeadComment
		}
		if source.LineComment == "" {
			source.LineComment = target.LineComment
		}
		if source.FootComment == "" {
			source.FootComment = target.FootComment
		}
		*target = *source
		return
	}

	sourceIdx := make(map[string]int, len(source.Content)/2)
	for i := 0; i+1 < len(source.Content); i += 2 {
		sourceIdx[source.Content[i].Value] = i
	}

	merged := make(map[string]bool, len(sourceIdx))
	for i := 0; i+1 < len(target.Content); i += 2 {
		if sIdx, ok := sourceIdx[target.Content[i].Value]; ok {
			MergeYamlNodes(target.Content[i+1], source.Content[sIdx+1])
			merged[target.Content[i].Value] = true
		}
	}
	for i := 0; i+1 < len(source.Content); i += 2 {
		if !merged[source.Content[i].Value] {
			target.Content = append(target.Content, source.Content[i], source.Content[i+1])
		}
	}
}

// ApplyEnv overrides configuration from PDD_* environment variables.
// ApplyEnv 使用 PDD_* 环境变量覆盖配置。
func (c *GlobalConfig) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *GlobalConfig) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHost); ok && strings.TrimSpace(v) != "" {
		c.Server.Host = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPort); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return pdderrors.NewConfigError(EnvPort, v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup(EnvEventsFile); ok && v != "" {
		c.Source.EventsFile = v
	}
	if v, ok := lookup(EnvWorkspace); ok && v != "" {
		c.Source.Workspace = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	return nil
}
