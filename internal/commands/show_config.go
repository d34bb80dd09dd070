package enginebench

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/enginebench/internal/appconfig"
)

// configCmd groups configuration commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Group commands for inspecting configuration",
}

// showConfigCmd implements the 'config show' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overriden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			pp.Fprintln(cmd.OutOrStdout(), cfg)
			return
		}
		var file string
		if cfg != nil {
			file = cfg.ConfigPath
		} else {
			file = viper.ConfigFileUsed()
		}
		appconfig.ShowConfig(cmd.OutOrStdout(), file, cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showConfigCmd)

	showConfigCmd.Flags().Bool("raw", false, "pretty print the merged config struct")
}
