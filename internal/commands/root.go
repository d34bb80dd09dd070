// internal/commands/root.go
package enginebench

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/enginebench/internal/appconfig"
	"github.com/mwiater/enginebench/internal/logging"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// configFlags are the persistent flags that override config file keys of the same name.
var configFlags = []string{"seqLen", "batchSize", "includeTokenIds", "nbInputs", "warmup", "device", "logLevel", "logFile", "resultsDir", "tolerance"}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "enginebench",
	Short: "enginebench times and cross-checks inference engines on synthetic inputs",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := ensureConfigLoaded()
		if err != nil {
			return err
		}
		if loaded {
			if err := appconfig.ValidateFile(viper.ConfigFileUsed()); err != nil {
				return err
			}
		}

		for _, name := range configFlags {
			if !cmd.Flags().Changed(name) {
				_ = cmd.Flags().Set(name, viper.GetString(name))
			}
		}

		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		if loaded {
			cfg.ConfigPath = viper.ConfigFileUsed()
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		currentConfig = &cfg

		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}

		logging.Setup(currentConfig.Level())
		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	d := appconfig.Defaults()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")
	flags.Bool("no-color", false, "disable coloured output")

	flags.Int("seqLen", d.SeqLen, "tokens per generated sequence")
	flags.Int("batchSize", d.BatchSize, "sequences per generated input")
	flags.Bool("includeTokenIds", d.IncludeTokenIDs, "add token_type_ids to generated inputs")
	flags.Int("nbInputs", d.NbInputs, "number of timed inputs per engine")
	flags.Int("warmup", d.Warmup, "untimed warmup runs per engine")
	flags.String("device", d.Device, "tensor placement, one of [cpu, cuda]")
	flags.String("logLevel", d.LogLevel, "minimum log level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	flags.String("logFile", d.LogFile, "path to the log file")
	flags.String("resultsDir", d.ResultsDir, "directory for JSON results")
	flags.Float64("tolerance", d.Tolerance, "max absolute difference accepted against the reference engine")

	bindConfig()
}

// bindConfig binds the config flags to viper keys (flags > config > defaults).
func bindConfig() {
	for _, name := range configFlags {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
	for key, value := range appconfig.DefaultMap() {
		viper.SetDefault(key, value)
	}
}

// initConfig points viper at the config file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file and reports whether one was found.
// A missing file leaves flags and defaults in charge.
func ensureConfigLoaded() (bool, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load config: %w", err)
	}
	return true, nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
