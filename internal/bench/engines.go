package bench

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mwiater/enginebench/internal/inputs"
)

// Engine runs inference on one input bundle and returns its outputs.
type Engine interface {
	Name() string
	Infer(ctx context.Context, in *inputs.ArrayBundle) ([]*mat.Dense, error)
}

// poolingEngine is a small deterministic model: every token id maps to a
// fixed embedding, and the output is the attention-masked mean of the
// embeddings of each sequence, shape (batch, dim).
type poolingEngine struct {
	name    string
	dim     int
	float32 bool
}

// NewReferenceEngine returns the float64 demo engine used as the reference.
func NewReferenceEngine(dim int) Engine {
	return &poolingEngine{name: "reference", dim: dim}
}

// NewFloat32Engine returns the same demo model evaluated in float32.
func NewFloat32Engine(dim int) Engine {
	return &poolingEngine{name: "float32", dim: dim, float32: true}
}

func (e *poolingEngine) Name() string { return e.name }

func (e *poolingEngine) Infer(ctx context.Context, in *inputs.ArrayBundle) ([]*mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids, ok := in.Get(inputs.FieldInputIDs)
	if !ok {
		return nil, fmt.Errorf("%s: missing %s", e.name, inputs.FieldInputIDs)
	}
	mask, ok := in.Get(inputs.FieldAttentionMask)
	if !ok {
		return nil, fmt.Errorf("%s: missing %s", e.name, inputs.FieldAttentionMask)
	}
	types, hasTypes := in.Get(inputs.FieldTokenTypeIDs)

	batch, seq := ids.Dims()
	out := mat.NewDense(batch, e.dim, nil)
	for b := 0; b < batch; b++ {
		var weight float64
		for s := 0; s < seq; s++ {
			m := mask.At(b, s)
			if m == 0 {
				continue
			}
			weight += m
			typeID := 0.0
			if hasTypes {
				typeID = types.At(b, s)
			}
			for d := 0; d < e.dim; d++ {
				v := embedding(ids.At(b, s), typeID, d) * m
				if e.float32 {
					v = float64(float32(out.At(b, d)) + float32(v))
				} else {
					v += out.At(b, d)
				}
				out.Set(b, d, v)
			}
		}
		if weight == 0 {
			continue
		}
		for d := 0; d < e.dim; d++ {
			v := out.At(b, d) / weight
			if e.float32 {
				v = float64(float32(v))
			}
			out.Set(b, d, v)
		}
	}
	return []*mat.Dense{out}, nil
}

func embedding(id, typeID float64, d int) float64 {
	return math.Sin(id*float64(d+1)*0.1) + 0.01*typeID*float64(d)
}
