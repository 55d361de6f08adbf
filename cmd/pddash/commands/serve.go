package commands

import (
	"github.com/livp123/pddash/internal/daemon"
	"github.com/spf13/cobra"
)

// serveFlags are command-line overrides; they win over PDD_* variables and the config file.
// serveFlags 是命令行覆盖项，优先于 PDD_* 环境变量和配置文件。
type serveFlags struct {
	host       string
	port       int
	eventsFile string
	workspace  string
	mode       string
}

var serveOpts serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and event stream",
	// Short: 提供仪表盘和事件流服务
	Long: `Serve the dashboard, the /events stream and the JSON endpoints until interrupted.
提供仪表盘、/events 事件流和 JSON 端点，直到被中断。

Send SIGHUP to reload the log level from the config file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&serveOpts.host, "host", "", "Bind address (overrides PDD_HOST)")
	f.IntVarP(&serveOpts.port, "port", "p", 0, "Listen port (overrides PDD_PORT)")
	f.StringVar(&serveOpts.eventsFile, "events-file", "", "Event log to tail (overrides PDD_EVENTS_FILE)")
	f.StringVar(&serveOpts.workspace, "workspace", "", "Workspace directory (overrides PDD_WORKSPACE)")
	f.StringVar(&serveOpts.mode, "mode", "", "Source mode: poll or follow")
}

// applyFlags copies explicitly set flags into the loaded configuration and re-validates it.
// applyFlags 将显式设置的标志写入已加载的配置并重新校验。
func applyFlags(cmd *cobra.Command) error {
	if loadErr != nil {
		return loadErr
	}
	cfg := manager.GetConfig()
	f := cmd.Flags()

	if f.Changed("host") {
		cfg.Server.Host = serveOpts.host
	}
	if f.Changed("port") {
		cfg.Server.Port = serveOpts.port
	}
	if f.Changed("events-file") {
		cfg.Source.EventsFile = serveOpts.eventsFile
	}
	if f.Changed("workspace") {
		cfg.Source.Workspace = serveOpts.workspace
	}
	if f.Changed("mode") {
		cfg.Source.Mode = serveOpts.mode
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	manager.UpdateConfig(cfg)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := applyFlags(cmd); err != nil {
		return err
	}
	return daemon.Serve(cmd.Context(), manager)
}
