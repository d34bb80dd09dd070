package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/mwiater/enginebench/internal/compare"
	"github.com/mwiater/enginebench/internal/inputs"
)

type scaledEngine struct {
	name   string
	offset float64
	calls  int
	err    error
}

func (e *scaledEngine) Name() string { return e.name }

func (e *scaledEngine) Infer(_ context.Context, in *inputs.ArrayBundle) ([]*mat.Dense, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	ids, _ := in.Get(inputs.FieldInputIDs)
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return v + e.offset }, ids)
	return []*mat.Dense{&out}, nil
}

func testConfig(buf *bytes.Buffer) Config {
	return Config{
		Inputs:    inputs.Options{SeqLen: 4, BatchSize: 2, Device: inputs.CPU},
		NbInputs:  5,
		Warmup:    2,
		Tolerance: compare.Tolerance{Abs: 0.01},
		Generator: inputs.NewGenerator(rand.NewPCG(3, 4)),
		Out:       buf,
	}
}

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	reference := &scaledEngine{name: "pytorch"}
	same := &scaledEngine{name: "onnx"}
	drifting := &scaledEngine{name: "tensorrt", offset: 0.5}

	report, err := Run(context.Background(), testConfig(&buf), reference, same, drifting)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if len(report.Engines) != 3 {
		t.Fatalf("expected 3 engine results, got %d", len(report.Engines))
	}
	if _, err := uuid.Parse(report.RunID); err != nil {
		t.Fatalf("expected a uuid run id, got %q: %v", report.RunID, err)
	}
	for _, e := range []*scaledEngine{reference, same, drifting} {
		if e.calls != 7 {
			t.Fatalf("%s: expected 2 warmup + 5 timed calls, got %d", e.name, e.calls)
		}
	}
	for _, r := range report.Engines {
		if len(r.Latencies) != 5 || r.Timings.Count != 5 {
			t.Fatalf("%s: expected 5 latency samples, got %d", r.Engine, len(r.Latencies))
		}
	}

	if report.Engines[0].Parity != nil {
		t.Fatal("reference engine should not carry a parity report")
	}
	if p := report.Engines[1].Parity; p == nil || p.MeanAbsDiff != 0 || !p.Pass {
		t.Fatalf("expected identical engine to pass with zero diff, got %+v", p)
	}
	if p := report.Engines[2].Parity; p == nil || p.Pass || p.MeanAbsDiff != 0.5 {
		t.Fatalf("expected drifting engine to fail with 0.5 diff, got %+v", p)
	}
	if report.Passed() {
		t.Fatal("expected report to fail overall")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected one timing line per engine, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "[pytorch] mean=") || !strings.HasPrefix(lines[2], "[tensorrt] mean=") {
		t.Fatalf("unexpected timing lines: %q", lines)
	}
}

func TestRunDemoEngines(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(&buf)
	cfg.Inputs.IncludeTokenIDs = true
	cfg.Tolerance = compare.Tolerance{Abs: 1e-4}

	report, err := Run(context.Background(), cfg, NewReferenceEngine(8), NewFloat32Engine(8))
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	p := report.Engines[1].Parity
	if p == nil || !p.Pass {
		t.Fatalf("expected float32 engine within tolerance, got %+v", p)
	}
	if p.Elements != 5*2*8 {
		t.Fatalf("expected %d compared elements, got %d", 5*2*8, p.Elements)
	}
}

func TestRunEngineError(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("session crashed")
	_, err := Run(context.Background(), testConfig(&buf), &scaledEngine{name: "ref"}, &scaledEngine{name: "bad", err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("expected engine error, got %v", err)
	}
}

type emptyEngine struct{ name string }

func (e emptyEngine) Name() string { return e.name }

func (e emptyEngine) Infer(context.Context, *inputs.ArrayBundle) ([]*mat.Dense, error) {
	return nil, nil
}

func TestRunEmptyReferenceOutputs(t *testing.T) {
	var buf bytes.Buffer
	_, err := Run(context.Background(), testConfig(&buf), emptyEngine{name: "ref"}, NewFloat32Engine(4), NewReferenceEngine(4))
	if !errors.Is(err, compare.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch when the reference returns no outputs, got %v", err)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig(&buf)
	cfg.NbInputs = 0
	if _, err := Run(context.Background(), cfg, &scaledEngine{name: "ref"}); !errors.Is(err, inputs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for zero inputs, got %v", err)
	}

	cfg = testConfig(&buf)
	cfg.Inputs.Device = inputs.Device(9)
	if _, err := Run(context.Background(), cfg, &scaledEngine{name: "ref"}); !errors.Is(err, inputs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for bad device, got %v", err)
	}

	if _, err := Run(context.Background(), testConfig(&buf), nil); err == nil {
		t.Fatal("expected error without reference engine")
	}
}

func TestRunCancelled(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := testConfig(&buf)
	cfg.Warmup = 0
	if _, err := Run(ctx, cfg, &scaledEngine{name: "ref"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWriteResults(t *testing.T) {
	var buf bytes.Buffer
	report, err := Run(context.Background(), testConfig(&buf), &scaledEngine{name: "PyTorch"}, &scaledEngine{name: "ONNX:fp16"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "results")
	path, err := WriteResults(dir, report)
	if err != nil {
		t.Fatalf("WriteResults error: %v", err)
	}
	if filepath.Base(path) != "pytorch-onnx_fp16-b2-s4-5.json" {
		t.Fatalf("unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(decoded.Engines) != 2 || decoded.Engines[1].Parity == nil {
		t.Fatalf("unexpected decoded report: %+v", decoded)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"PyTorch-ONNX":          "pytorch-onnx",
		"llama3:8b q4":          "llama3_8b-q4",
		"  --TensorRT (fp16)--": "tensorrt-fp16",
		"a///b":                 "a-b",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
