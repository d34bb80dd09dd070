// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/enginebench/internal/inputs"
	"github.com/mwiater/enginebench/internal/logging"
)

func writeConfig(t *testing.T, dir, name, payload string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
}

// TestLoad verifies that a partial file is merged over the defaults and that
// explicit zero values survive the merge.
func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.json", `{
  "seqLen": 128,
  "batchSize": 4,
  "includeTokenIds": true,
  "warmup": 0,
  "device": "cuda",
  "logLevel": "debug"
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.SeqLen != 128 || cfg.BatchSize != 4 || !cfg.IncludeTokenIDs {
		t.Fatalf("unexpected shape settings: %+v", cfg)
	}
	if cfg.Warmup != 0 {
		t.Fatalf("expected explicit warmup 0 to be kept, got %d", cfg.Warmup)
	}
	if cfg.NbInputs != defaultNbInputs {
		t.Fatalf("expected default nbInputs %d, got %d", defaultNbInputs, cfg.NbInputs)
	}
	if cfg.ResultsDir != defaultResultsDir {
		t.Fatalf("expected default results dir, got %q", cfg.ResultsDir)
	}
	if cfg.ConfigPath != path {
		t.Fatalf("expected config path %q, got %q", path, cfg.ConfigPath)
	}
	if cfg.Level() != logging.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.Level())
	}

	opts, err := cfg.InputOptions()
	if err != nil {
		t.Fatalf("InputOptions error: %v", err)
	}
	want := inputs.Options{SeqLen: 128, BatchSize: 4, IncludeTokenIDs: true, Device: inputs.CUDA}
	if opts != want {
		t.Fatalf("InputOptions = %+v, want %+v", opts, want)
	}
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"invalid json":    `{ "seqLen": `,
		"unknown key":     `{ "seqLength": 12 }`,
		"bad device":      `{ "device": "tpu" }`,
		"zero batch":      `{ "batchSize": 0 }`,
		"negative inputs": `{ "nbInputs": -1 }`,
		"wrong type":      `{ "seqLen": "long" }`,
		"bad log level":   `{ "logLevel": "verbose" }`,
	}
	dir := t.TempDir()
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, dir, strings.ReplaceAll(name, " ", "_")+".json", payload)
			if _, err := Load(path); err == nil {
				t.Fatalf("Load() with %s should have failed", name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nonexistent.json")); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

func TestLoadDefaultPath(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, DefaultConfigPath, `{ "seqLen": 32 }`)
	chdir(t, dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.SeqLen != 32 {
		t.Fatalf("expected seqLen 32, got %d", cfg.SeqLen)
	}
}

func TestLoadLegacyFallback(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, legacyConfigPath, `{ "batchSize": 8 }`)
	chdir(t, dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BatchSize != 8 {
		t.Fatalf("expected batchSize 8, got %d", cfg.BatchSize)
	}
	if cfg.ConfigPath != legacyConfigPath {
		t.Fatalf("expected legacy config path, got %q", cfg.ConfigPath)
	}
}

func TestLoadNoFileAnywhere(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "no configuration file found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := writeConfig(t, dir, "good.json", `{ "seqLen": 8, "device": "cuda" }`)
	if err := ValidateFile(good); err != nil {
		t.Fatalf("expected valid file, got %v", err)
	}

	unknown := writeConfig(t, dir, "unknown.json", `{ "seqlen2": 4 }`)
	if err := ValidateFile(unknown); err == nil || !strings.Contains(err.Error(), "seqlen2") {
		t.Fatalf("expected unknown key to be reported, got %v", err)
	}

	if err := ValidateFile(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDefaultsAreValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if len(DefaultMap()) != 10 {
		t.Fatalf("expected 10 default keys, got %d", len(DefaultMap()))
	}
}

func TestValidateDevice(t *testing.T) {
	cfg := Defaults()
	cfg.Device = "gpu"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected invalid device to fail validation")
	}
	if _, err := cfg.InputOptions(); !errors.Is(err, inputs.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument from InputOptions, got %v", err)
	}
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	ShowConfig(&buf, "", nil)
	out := buf.String()
	if !strings.Contains(out, "No config file loaded") {
		t.Fatalf("expected defaults banner, got: %s", out)
	}
	if !strings.Contains(out, "Seq Len:           16") {
		t.Fatalf("expected default seq len, got: %s", out)
	}

	buf.Reset()
	cfg := Defaults()
	cfg.Device = "cuda"
	ShowConfig(&buf, "config/config.json", &cfg)
	if !strings.Contains(buf.String(), "Config file: config/config.json") || !strings.Contains(buf.String(), "cuda") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
