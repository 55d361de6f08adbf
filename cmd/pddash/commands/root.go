package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/livp123/pddash/internal/config"
	"github.com/livp123/pddash/internal/runtime"
	"github.com/livp123/pddash/internal/utils/logger"
	"github.com/spf13/cobra"
)

var (
	// manager holds the configuration loaded by PersistentPreRunE.
	manager *config.ConfigManager
	// loadErr is reported by commands that need a valid configuration.
	loadErr error
)

var RootCmd = &cobra.Command{
	Use:   "pddash",
	Short: "Live dashboard for an agent's newline-delimited JSON event log",
	// Short: 代理 NDJSON 事件日志的实时仪表盘
	Long: `pddash tails a newline-delimited JSON event log, keeps the most recent events in memory
and streams them to browsers over Server-Sent Events, alongside a listing of the workspace.
pddash 追踪以换行分隔的 JSON 事件日志，在内存中保留最近的事件，
并通过 SSE 推送给浏览器，同时提供工作区文件列表。

Running pddash without a subcommand is the same as "pddash serve".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		manager = config.NewConfigManager(config.GetConfigPath())
		loadErr = manager.LoadConfig()

		// If config fails to load, use default logging config (console only)
		// 如果加载配置失败，使用默认日志配置（仅控制台）
		logCfg := logger.LoggingConfig{Level: "info"}
		if loadErr == nil {
			logCfg = *manager.GetLoggingConfig()
		}
		log := logger.Init(logCfg)

		// Inject logger into context
		// 将 Logger 注入 Context
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logger.WithContext(ctx, log))
		return nil
	},
	RunE: runServe,
}

func init() {
	// Config file path
	// 配置文件路径
	RootCmd.PersistentFlags().StringVarP(&runtime.ConfigPath, "config", "c", "", fmt.Sprintf("Path to configuration file (default: %s)", config.DefaultConfigPath))

	// The root command serves by default, so it accepts the serve flags too.
	// 根命令默认执行 serve，因此也接受 serve 的标志。
	addServeFlags(RootCmd)

	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(checkCmd)
	RootCmd.AddCommand(versionCmd)

	// Disable powershell completion (Linux-focused project doesn't need it)
	// 禁用 powershell 补全（Linux 项目不需要）
	RootCmd.CompletionOptions.DisableDefaultCmd = true
	RootCmd.AddCommand(createCustomCompletionCmd())
}

// createCustomCompletionCmd creates a custom completion command without powershell.
// createCustomCompletionCmd 创建不含 powershell 的自定义补全命令。
func createCustomCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell autocompletion script",
		Long: `Generate shell autocompletion script for pddash.
生成 pddash 的 shell 自动补全脚本。

Examples:
  pddash completion bash > /etc/bash_completion.d/pddash
  pddash completion zsh  > "${fpath[1]}/_pddash"
  pddash completion fish > ~/.config/fish/completions/pddash.fish`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return RootCmd.GenBashCompletionV2(out, true)
			case "zsh":
				return RootCmd.GenZshCompletion(out)
			case "fish":
				return RootCmd.GenFishCompletion(out, true)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", args[0])
			}
		},
	}
}

// Execute runs the root command and exits non-zero on error.
// Execute 运行根命令，出错时以非零状态退出。
func Execute() {
	defer logger.Sync()

	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
