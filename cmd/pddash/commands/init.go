package commands

import (
	"fmt"

	"github.com/livp123/pddash/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	// Short: 写入默认配置文件
	Long: `Write the documented default configuration to --config (default: pddash.yaml).
将带注释的默认配置写入 --config 指定的文件（默认：pddash.yaml）。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetConfigPath()
		if err := config.WriteDefaultConfig(path, initForce); err != nil {
			return fmt.Errorf("%w (use --force to overwrite)", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing file")
}
