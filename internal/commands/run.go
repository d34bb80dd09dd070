package enginebench

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/enginebench/internal/appconfig"
	"github.com/mwiater/enginebench/internal/bench"
	"github.com/mwiater/enginebench/internal/inputs"
	"github.com/mwiater/enginebench/internal/logging"
)

var (
	runBench     = bench.Run
	writeResults = bench.WriteResults
)

// runCmd times the built-in engines and checks them against the reference.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Benchmark the built-in engines on synthetic inputs",
	Long: `Generates synthetic tokenized inputs, times the reference and float32 demo
engines on each of them, prints latency statistics and compares the float32
outputs with the reference outputs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			d := appconfig.Defaults()
			cfg = &d
		}
		dim, _ := cmd.Flags().GetInt("dim")
		noWrite, _ := cmd.Flags().GetBool("no-write")
		if dim <= 0 {
			return fmt.Errorf("dim must be positive, got %d: %w", dim, inputs.ErrInvalidArgument)
		}

		opts, err := cfg.InputOptions()
		if err != nil {
			return err
		}
		report, err := runBench(cmd.Context(), bench.Config{
			Inputs:    opts,
			NbInputs:  cfg.NbInputs,
			Warmup:    cfg.Warmup,
			Tolerance: cfg.ParityTolerance(),
			Out:       cmd.OutOrStdout(),
		}, bench.NewReferenceEngine(dim), bench.NewFloat32Engine(dim))
		if err != nil {
			return err
		}

		logging.LogPayload("report", report)
		renderSummary(cmd.OutOrStdout(), report)

		if !noWrite {
			if _, err := writeResults(cfg.ResultsDir, report); err != nil {
				return err
			}
		}
		if !report.Passed() {
			return errors.New("one or more engines exceeded the parity tolerance")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("dim", 16, "output width of the demo engines")
	runCmd.Flags().Bool("no-write", false, "skip writing the JSON results file")
}
