package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/livp123/pddash/internal/config"
	pdderrors "github.com/livp123/pddash/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand executes a cobra command and returns output.
// executeCommand 执行 cobra 命令并返回输出。
func executeCommand(cmd *cobra.Command, args ...string) (string, error) {
	resetFlags(cmd)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag in the tree so one test's flags do not leak into the next.
// resetFlags 恢复命令树中的所有标志，避免测试之间相互影响。
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func tempConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "pddash.yaml")
}

func TestRootCommandHelp(t *testing.T) {
	output, err := executeCommand(RootCmd, "--help")
	assert.NoError(t, err)
	assert.Contains(t, output, "pddash")
	assert.Contains(t, output, "Usage:")
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "serve")
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(RootCmd, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "pddash dev")
}

func TestInvalidCommand(t *testing.T) {
	_, err := executeCommand(RootCmd, "invalid-command")
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	path := tempConfig(t)

	output, err := executeCommand(RootCmd, "init", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote default configuration")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "events_file")

	// Existing file is kept without --force
	// 未指定 --force 时保留已有文件
	_, err = executeCommand(RootCmd, "init", "-c", path)
	assert.Error(t, err)

	_, err = executeCommand(RootCmd, "init", "-c", path, "--force")
	assert.NoError(t, err)
}

func TestCheckCommand(t *testing.T) {
	path := tempConfig(t)

	output, err := executeCommand(RootCmd, "check", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, output, "not found, using defaults")
	assert.Contains(t, output, "not created yet")
	assert.Contains(t, output, "Configuration OK")
}

func TestCheckCommand_FlagOverrides(t *testing.T) {
	path := tempConfig(t)
	require.NoError(t, config.WriteDefaultConfig(path, false))

	events := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(events, []byte("{\"a\":1}\n"), 0o600))

	output, err := executeCommand(RootCmd, "check", "-c", path, "--port", "9999", "--events-file", events)
	require.NoError(t, err)
	assert.Contains(t, output, "port: 9999")
	assert.Contains(t, output, "(8 bytes)")

	// Flags from the previous run must not stick.
	// 上一次运行的标志不应残留。
	output, err = executeCommand(RootCmd, "check", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, output, "port: 8765")
}

func TestCheckCommand_Invalid(t *testing.T) {
	path := tempConfig(t)

	_, err := executeCommand(RootCmd, "check", "-c", path, "--port", "70000")
	assert.Error(t, err)

	_, err = executeCommand(RootCmd, "check", "-c", path, "--mode", "bogus")
	assert.Error(t, err)
}

func TestCheckCommand_BrokenConfigFile(t *testing.T) {
	path := tempConfig(t)
	require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o600))

	_, err := executeCommand(RootCmd, "check", "-c", path)
	assert.ErrorIs(t, err, pdderrors.ErrConfigInvalid)
}

func TestServeCommand_InvalidFlags(t *testing.T) {
	path := tempConfig(t)

	_, err := executeCommand(RootCmd, "serve", "-c", path, "--mode", "bogus")
	assert.Error(t, err)

	// The root command accepts the same flags.
	// 根命令接受相同的标志。
	_, err = executeCommand(RootCmd, "-c", path, "--port", "0")
	assert.Error(t, err)
}

func TestCompletionCommand(t *testing.T) {
	tests := []struct {
		shell    string
		contains string
	}{
		{"bash", "bash completion"},
		{"zsh", "#compdef"},
		{"fish", "complete -c pddash"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			output, err := executeCommand(RootCmd, "completion", tt.shell)
			require.NoError(t, err)
			assert.Contains(t, output, tt.contains)
		})
	}

	_, err := executeCommand(RootCmd, "completion", "powershell")
	assert.Error(t, err)
}
