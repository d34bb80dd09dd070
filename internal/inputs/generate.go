// Package inputs builds synthetic tokenized model inputs for benchmarking.
package inputs

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/mwiater/enginebench/internal/logging"
)

// InputIDHigh is the exclusive upper bound of generated token ids.
const InputIDHigh = 100

// Options describe the shape and content of generated inputs.
type Options struct {
	SeqLen          int
	BatchSize       int
	IncludeTokenIDs bool
	Device          Device
}

// Validate checks sizes and device.
func (o Options) Validate() error {
	if o.SeqLen <= 0 {
		return fmt.Errorf("seq_len must be positive, got %d: %w", o.SeqLen, ErrInvalidArgument)
	}
	if o.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d: %w", o.BatchSize, ErrInvalidArgument)
	}
	if !o.Device.Valid() {
		return fmt.Errorf("device %s must be one of [cpu, cuda]: %w", o.Device, ErrInvalidArgument)
	}
	return nil
}

// Generator produces inputs from a random source. The zero value draws from
// the global math/rand/v2 source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing token ids from src.
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

func (g *Generator) tokenID() int64 {
	if g.rng == nil {
		return rand.Int64N(InputIDHigh)
	}
	return g.rng.Int64N(InputIDHigh)
}

// Generate builds one input: input_ids uniform in [0, InputIDHigh), then
// token_type_ids (if requested) and attention_mask filled with ones, all of
// shape (BatchSize, SeqLen). The ArrayBundle mirrors the TensorBundle value
// for value, in the same field order.
func (g *Generator) Generate(opts Options) (*TensorBundle, *ArrayBundle, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	tensors := newBundle[*Tensor]()

	ids := newTensor(opts.Device, opts.BatchSize, opts.SeqLen)
	for i := range ids.Data {
		ids.Data[i] = g.tokenID()
	}
	tensors.set(FieldInputIDs, ids)
	if opts.IncludeTokenIDs {
		tensors.set(FieldTokenTypeIDs, ones(opts.Device, opts.BatchSize, opts.SeqLen))
	}
	tensors.set(FieldAttentionMask, ones(opts.Device, opts.BatchSize, opts.SeqLen))

	arrays := newBundle[*mat.Dense]()
	for _, name := range tensors.names {
		arrays.set(name, tensors.fields[name].Dense())
	}
	return tensors, arrays, nil
}

// GenerateMultiple calls Generate n times. The two returned slices are index aligned.
func (g *Generator) GenerateMultiple(opts Options, n int) ([]*TensorBundle, []*ArrayBundle, error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("nb_inputs_to_gen must be >= 0, got %d: %w", n, ErrInvalidArgument)
	}
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	allTensors := make([]*TensorBundle, 0, n)
	allArrays := make([]*ArrayBundle, 0, n)
	for i := 0; i < n; i++ {
		t, a, err := g.Generate(opts)
		if err != nil {
			return nil, nil, err
		}
		allTensors = append(allTensors, t)
		allArrays = append(allArrays, a)
	}
	logging.Debugf("generated %d inputs of shape (%d, %d) on %s, token_type_ids=%t",
		n, opts.BatchSize, opts.SeqLen, opts.Device, opts.IncludeTokenIDs)
	return allTensors, allArrays, nil
}

var defaultGenerator = &Generator{}

// Generate builds one input with the default generator.
func Generate(opts Options) (*TensorBundle, *ArrayBundle, error) {
	return defaultGenerator.Generate(opts)
}

// GenerateMultiple builds n inputs with the default generator.
func GenerateMultiple(opts Options, n int) ([]*TensorBundle, []*ArrayBundle, error) {
	return defaultGenerator.GenerateMultiple(opts, n)
}

func ones(device Device, rows, cols int) *Tensor {
	t := newTensor(device, rows, cols)
	for i := range t.Data {
		t.Data[i] = 1
	}
	return t
}
