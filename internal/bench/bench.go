// Package bench times engines on synthetic inputs and checks them against a reference.
package bench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/mwiater/enginebench/internal/compare"
	"github.com/mwiater/enginebench/internal/inputs"
	"github.com/mwiater/enginebench/internal/logging"
	"github.com/mwiater/enginebench/internal/timing"
)

// Config controls a benchmark run.
type Config struct {
	Inputs    inputs.Options
	NbInputs  int
	Warmup    int
	Tolerance compare.Tolerance

	// Generator defaults to the package-level generator in inputs.
	Generator *inputs.Generator
	// Out receives one timing line per engine. Defaults to timing.Output.
	Out io.Writer
}

// EngineResult is the outcome for one engine.
type EngineResult struct {
	Engine    string          `json:"engine"`
	Timings   timing.Summary  `json:"timings"`
	Latencies []float64       `json:"latencies_s"`
	Parity    *compare.Report `json:"parity,omitempty"`
}

// Report is the outcome of a benchmark run. The reference engine is always first.
type Report struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	SeqLen          int            `json:"seq_len"`
	BatchSize       int            `json:"batch_size"`
	IncludeTokenIDs bool           `json:"include_token_ids"`
	Device          string         `json:"device"`
	NbInputs        int            `json:"nb_inputs"`
	Warmup          int            `json:"warmup"`
	Engines         []EngineResult `json:"engines"`
}

// Passed reports whether every compared engine is within tolerance.
func (r *Report) Passed() bool {
	for _, e := range r.Engines {
		if e.Parity != nil && !e.Parity.Pass {
			return false
		}
	}
	return true
}

// Run generates cfg.NbInputs inputs, warms every engine up on the first
// input, times each inference and compares every engine with reference.
func Run(ctx context.Context, cfg Config, reference Engine, engines ...Engine) (*Report, error) {
	if reference == nil {
		return nil, errors.New("benchmark requires a reference engine")
	}
	if cfg.NbInputs <= 0 {
		return nil, fmt.Errorf("nbInputs must be positive, got %d: %w", cfg.NbInputs, inputs.ErrInvalidArgument)
	}
	if cfg.Warmup < 0 {
		return nil, fmt.Errorf("warmup must be >= 0, got %d: %w", cfg.Warmup, inputs.ErrInvalidArgument)
	}
	gen := cfg.Generator
	if gen == nil {
		gen = &inputs.Generator{}
	}
	out := cfg.Out
	if out == nil {
		out = timing.Output
	}

	_, bundles, err := gen.GenerateMultiple(cfg.Inputs, cfg.NbInputs)
	if err != nil {
		return nil, fmt.Errorf("generate inputs: %w", err)
	}

	report := &Report{
		RunID:           uuid.New().String(),
		StartedAt:       time.Now().UTC(),
		SeqLen:          cfg.Inputs.SeqLen,
		BatchSize:       cfg.Inputs.BatchSize,
		IncludeTokenIDs: cfg.Inputs.IncludeTokenIDs,
		Device:          cfg.Inputs.Device.String(),
		NbInputs:        cfg.NbInputs,
		Warmup:          cfg.Warmup,
	}

	all := append([]Engine{reference}, engines...)
	var referenceOutputs []*mat.Dense
	for i, engine := range all {
		logging.Infof("benchmarking %s on %d inputs of shape (%d, %d)", engine.Name(), cfg.NbInputs, cfg.Inputs.BatchSize, cfg.Inputs.SeqLen)

		outputs, latencies, err := runEngine(ctx, engine, bundles, cfg.Warmup)
		if err != nil {
			return nil, err
		}
		summary, err := timing.Summarize(engine.Name(), latencies)
		if err != nil {
			return nil, err
		}
		if _, err := fmt.Fprintln(out, summary.String()); err != nil {
			return nil, err
		}

		result := EngineResult{Engine: engine.Name(), Timings: summary, Latencies: latencies.Seconds()}
		if i == 0 {
			referenceOutputs = outputs
		} else {
			parity, err := compare.Parity(engine.Name(), referenceOutputs, outputs, cfg.Tolerance)
			if err != nil {
				return nil, err
			}
			logging.Infof("[%s] mean diff with %s: %.6f (max %.6f)", engine.Name(), reference.Name(), parity.MeanAbsDiff, parity.MaxAbsDiff)
			if !parity.Pass {
				logging.Warningf("[%s] max diff %.6g exceeds tolerance %.6g", engine.Name(), parity.MaxAbsDiff, cfg.Tolerance.Abs)
			}
			result.Parity = &parity
		}
		report.Engines = append(report.Engines, result)
	}
	return report, nil
}

// runEngine returns the outputs of every input concatenated in input order.
func runEngine(ctx context.Context, engine Engine, bundles []*inputs.ArrayBundle, warmup int) ([]*mat.Dense, timing.Latencies, error) {
	for i := 0; i < warmup; i++ {
		if _, err := engine.Infer(ctx, bundles[0]); err != nil {
			return nil, nil, fmt.Errorf("%s warmup %d: %w", engine.Name(), i+1, err)
		}
	}

	var latencies timing.Latencies
	var outputs []*mat.Dense
	for i, bundle := range bundles {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		var result []*mat.Dense
		err := timing.TrackInferTime(&latencies, func() error {
			var err error
			result, err = engine.Infer(ctx, bundle)
			return err
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%s input %d: %w", engine.Name(), i, err)
		}
		outputs = append(outputs, result...)
	}
	logging.Debugf("%s: %d samples recorded", engine.Name(), len(latencies))
	return outputs, latencies, nil
}

// WriteResults writes the report as indented JSON under dir and returns the file path.
func WriteResults(dir string, report *Report) (string, error) {
	var names []string
	for _, e := range report.Engines {
		names = append(names, e.Engine)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating results directory: %w", err)
	}
	fileName := filepath.Join(dir, fmt.Sprintf("%s-b%d-s%d-%d.json",
		Slugify(strings.Join(names, "-")), report.BatchSize, report.SeqLen, report.NbInputs))

	file, err := os.Create(fileName)
	if err != nil {
		return "", fmt.Errorf("error creating result file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("error writing results to file: %w", err)
	}

	logging.Infof("Benchmark results written to %s", fileName)
	return fileName, nil
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9_]+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a string into a "slug" format,
// including replacing colons (:) with underscores (_).
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ":", "_")
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}
