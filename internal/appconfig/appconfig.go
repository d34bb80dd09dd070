// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting benchmark configuration.
package appconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mwiater/enginebench/internal/compare"
	"github.com/mwiater/enginebench/internal/inputs"
	"github.com/mwiater/enginebench/internal/logging"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path looked up when the default path is missing.
	legacyConfigPath = "config.json"

	defaultSeqLen     = 16
	defaultBatchSize  = 1
	defaultNbInputs   = 10
	defaultWarmup     = 2
	defaultDevice     = "cpu"
	defaultLogLevel   = "INFO"
	defaultResultsDir = "enginebenchData/results"
	defaultTolerance  = 1e-4
)

// Config represents the benchmark configuration.
type Config struct {
	SeqLen          int     `json:"seqLen"`
	BatchSize       int     `json:"batchSize"`
	IncludeTokenIDs bool    `json:"includeTokenIds"`
	NbInputs        int     `json:"nbInputs"`
	Warmup          int     `json:"warmup"`
	Device          string  `json:"device"`
	LogLevel        string  `json:"logLevel"`
	LogFile         string  `json:"logFile,omitempty"`
	ResultsDir      string  `json:"resultsDir"`
	Tolerance       float64 `json:"tolerance"`
	ConfigPath      string  `json:"-"`
}

// Defaults returns a Config with every field set to its default.
func Defaults() Config {
	return Config{
		SeqLen:     defaultSeqLen,
		BatchSize:  defaultBatchSize,
		NbInputs:   defaultNbInputs,
		Warmup:     defaultWarmup,
		Device:     defaultDevice,
		LogLevel:   defaultLogLevel,
		ResultsDir: defaultResultsDir,
		Tolerance:  defaultTolerance,
	}
}

// DefaultMap returns the defaults keyed by their JSON names, for viper.SetDefault.
func DefaultMap() map[string]any {
	d := Defaults()
	return map[string]any{
		"seqLen":          d.SeqLen,
		"batchSize":       d.BatchSize,
		"includeTokenIds": d.IncludeTokenIDs,
		"nbInputs":        d.NbInputs,
		"warmup":          d.Warmup,
		"device":          d.Device,
		"logLevel":        d.LogLevel,
		"logFile":         d.LogFile,
		"resultsDir":      d.ResultsDir,
		"tolerance":       d.Tolerance,
	}
}

// InputOptions converts the input-shape settings into generator options.
func (c Config) InputOptions() (inputs.Options, error) {
	device, err := inputs.ParseDevice(c.Device)
	if err != nil {
		return inputs.Options{}, err
	}
	opts := inputs.Options{
		SeqLen:          c.SeqLen,
		BatchSize:       c.BatchSize,
		IncludeTokenIDs: c.IncludeTokenIDs,
		Device:          device,
	}
	return opts, opts.Validate()
}

// Level returns the configured log level, falling back to INFO when unparsable.
func (c Config) Level() logging.Level {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.LevelInfo
	}
	return level
}

// ParityTolerance returns the tolerance used when comparing engines.
func (c Config) ParityTolerance() compare.Tolerance {
	return compare.Tolerance{Abs: c.Tolerance}
}

// LogFilePath returns the log file path; empty means no file.
func (c Config) LogFilePath() string {
	return strings.TrimSpace(c.LogFile)
}

// Validate checks the configuration against the schema and the semantic rules
// the schema cannot express.
func (c Config) Validate() error {
	if err := validateValue(c); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.InputOptions(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads the configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				config.ConfigPath = legacyConfigPath
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath validates the raw document, then decodes it over the defaults.
func loadFromPath(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := validateDocument(data); err != nil {
		return Config{}, err
	}

	config := Defaults()
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&config); err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
