package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		d := Defaults()
		cfg = &d
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Seq Len:           %d\n", cfg.SeqLen)
	fmt.Fprintf(out, "  Batch Size:        %d\n", cfg.BatchSize)
	fmt.Fprintf(out, "  Token Type IDs:    %v\n", cfg.IncludeTokenIDs)
	fmt.Fprintf(out, "  Inputs:            %d\n", cfg.NbInputs)
	fmt.Fprintf(out, "  Warmup:            %d\n", cfg.Warmup)
	fmt.Fprintf(out, "  Device:            %s\n", cfg.Device)
	fmt.Fprintf(out, "  Log Level:         %s\n", cfg.Level())
	fmt.Fprintf(out, "  Log File:          %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Results Dir:       %s\n", cfg.ResultsDir)
	fmt.Fprintf(out, "  Parity Tolerance:  %g\n", cfg.Tolerance)
}
