// Package compare measures numeric drift between the outputs of two engines.
package compare

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when two outputs do not have identical shapes.
// Broadcasting is never attempted.
var ErrShapeMismatch = errors.New("shape mismatch")

// Outputs returns the mean absolute elementwise difference between two
// engine outputs, each a list of matrices. Both lists must have the same
// length and matching dimensions at every index.
func Outputs(reference, engine []*mat.Dense) (float64, error) {
	pairs, err := densePairs(reference, engine)
	if err != nil {
		return 0, err
	}
	return meanAbs(pairs), nil
}

// Rows is Outputs for a single 2-D output given as nested slices. Ragged or
// differently sized rows are a shape mismatch.
func Rows(reference, engine [][]float64) (float64, error) {
	if len(reference) != len(engine) {
		return 0, fmt.Errorf("%w: %d rows vs %d rows", ErrShapeMismatch, len(reference), len(engine))
	}
	pairs := make([][2][]float64, 0, len(reference))
	for i := range reference {
		if len(reference[i]) != len(engine[i]) {
			return 0, fmt.Errorf("%w: row %d has %d vs %d columns", ErrShapeMismatch, i, len(reference[i]), len(engine[i]))
		}
		if i > 0 && len(reference[i]) != len(reference[0]) {
			return 0, fmt.Errorf("%w: ragged rows (row 0 has %d columns, row %d has %d)", ErrShapeMismatch, len(reference[0]), i, len(reference[i]))
		}
		pairs = append(pairs, [2][]float64{reference[i], engine[i]})
	}
	return meanAbs(pairs), nil
}

// Tolerance is the largest absolute elementwise difference accepted by Parity.
type Tolerance struct {
	Abs float64 `json:"abs"`
}

// Report summarizes the drift of one engine against the reference.
type Report struct {
	Name        string    `json:"name"`
	Elements    int       `json:"elements"`
	MeanAbsDiff float64   `json:"mean_abs_diff"`
	MaxAbsDiff  float64   `json:"max_abs_diff"`
	Tolerance   Tolerance `json:"tolerance"`
	Pass        bool      `json:"pass"`
}

// Parity compares engine against reference and checks the max absolute
// difference against tol.
func Parity(name string, reference, engine []*mat.Dense, tol Tolerance) (Report, error) {
	r := Report{Name: name, Tolerance: tol}
	pairs, err := densePairs(reference, engine)
	if err != nil {
		return r, fmt.Errorf("parity %s: %w", name, err)
	}
	for _, p := range pairs {
		r.Elements += len(p[0])
		if len(p[0]) == 0 {
			continue
		}
		r.MaxAbsDiff = math.Max(r.MaxAbsDiff, floats.Distance(p[0], p[1], math.Inf(1)))
	}
	r.MeanAbsDiff = meanAbs(pairs)
	r.Pass = r.MaxAbsDiff <= tol.Abs
	return r, nil
}

func densePairs(reference, engine []*mat.Dense) ([][2][]float64, error) {
	if len(reference) != len(engine) {
		return nil, fmt.Errorf("%w: %d outputs vs %d outputs", ErrShapeMismatch, len(reference), len(engine))
	}
	pairs := make([][2][]float64, 0, len(reference))
	for i := range reference {
		a, b := reference[i], engine[i]
		if a == nil || b == nil {
			return nil, fmt.Errorf("%w: output %d is nil", ErrShapeMismatch, i)
		}
		ra, ca := a.Dims()
		rb, cb := b.Dims()
		if ra != rb || ca != cb {
			return nil, fmt.Errorf("%w: output %d is (%d, %d) vs (%d, %d)", ErrShapeMismatch, i, ra, ca, rb, cb)
		}
		pairs = append(pairs, [2][]float64{flatten(a), flatten(b)})
	}
	return pairs, nil
}

// flatten returns the row-major elements of m without copying when m is contiguous.
func flatten(m *mat.Dense) []float64 {
	raw := m.RawMatrix()
	if raw.Stride == raw.Cols {
		return raw.Data[:raw.Rows*raw.Cols]
	}
	out := make([]float64, 0, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		out = append(out, raw.Data[i*raw.Stride:i*raw.Stride+raw.Cols]...)
	}
	return out
}

func meanAbs(pairs [][2][]float64) float64 {
	var total float64
	var n int
	for _, p := range pairs {
		if len(p[0]) == 0 {
			continue
		}
		total += floats.Distance(p[0], p[1], 1)
		n += len(p[0])
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
