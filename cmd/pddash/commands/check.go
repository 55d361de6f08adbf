package commands

import (
	"fmt"
	"os"

	"github.com/livp123/pddash/internal/utils/fileutil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and print the effective settings",
	// Short: 校验配置并打印生效的设置
	Long: `Load the configuration file, apply PDD_* variables and flags, validate the result and print it.
加载配置文件，应用 PDD_* 环境变量和标志，校验结果并打印。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyFlags(cmd); err != nil {
			return err
		}
		cfg := manager.GetConfig()
		out := cmd.OutOrStdout()

		if fileutil.Exists(manager.GetConfigPath()) {
			fmt.Fprintf(out, "# Config: %s\n", manager.GetConfigPath())
		} else {
			fmt.Fprintf(out, "# Config: %s not found, using defaults\n", manager.GetConfigPath())
		}

		events := cfg.Source.EventsPath()
		if info, err := os.Stat(events); err == nil {
			fmt.Fprintf(out, "# Events: %s (%d bytes)\n", events, info.Size())
		} else {
			fmt.Fprintf(out, "# Events: %s (not created yet)\n", events)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, _ = out.Write(data)
		fmt.Fprintln(out, "# Configuration OK")
		return nil
	},
}

func init() {
	addServeFlags(checkCmd)
}
