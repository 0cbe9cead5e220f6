// Package compare checks two sparse results for agreement under an absolute
// tolerance.
//
// The key sets are unioned and a cell missing from one side reads as zero.
// A cell agrees when |a-b| <= tol; the boundary itself passes. NaN agrees
// only with NaN.
package compare

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/roach88/crosscheck/internal/matrix"
)

// ErrNegativeTolerance is returned for a tolerance below zero or NaN.
var ErrNegativeTolerance = errors.New("tolerance must be a non-negative number")

// Mismatch is one disagreeing cell.
type Mismatch struct {
	Index matrix.Index
	A     float64
	B     float64
	Diff  float64
}

// Report is the full outcome of a comparison.
type Report struct {
	// Keys is the size of the key union.
	Keys int

	// Mismatches are ordered row-major.
	Mismatches []Mismatch

	// MaxAbsDiff is the largest |a-b| over cells where neither side is NaN.
	MaxAbsDiff float64
}

// OK reports whether every cell agreed.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

// MismatchError describes the first disagreeing cell of a comparison, in
// row-major order, along with how many cells disagreed in total.
type MismatchError struct {
	LabelA    string
	LabelB    string
	Index     matrix.Index
	A         float64
	B         float64
	Diff      float64
	Tolerance float64
	Count     int
	Keys      int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s vs %s: cell %s: %v != %v (|diff| %v > tol %v); %d of %d cells differ",
		e.LabelA, e.LabelB, e.Index, e.A, e.B, e.Diff, e.Tolerance, e.Count, e.Keys)
}

// Diff compares a and b cell by cell.
func Diff(a, b matrix.Cells, tol float64) (Report, error) {
	if tol < 0 || math.IsNaN(tol) {
		return Report{}, fmt.Errorf("%w: got %v", ErrNegativeTolerance, tol)
	}

	keys := union(a, b)
	r := Report{Keys: len(keys)}
	for _, k := range keys {
		va, vb := a[k], b[k]
		nanA, nanB := math.IsNaN(va), math.IsNaN(vb)

		switch {
		case nanA && nanB:
			continue
		case nanA || nanB:
			r.Mismatches = append(r.Mismatches, Mismatch{Index: k, A: va, B: vb, Diff: math.NaN()})
			continue
		}

		d := math.Abs(va - vb)
		if !math.IsNaN(d) && d > r.MaxAbsDiff {
			r.MaxAbsDiff = d
		}
		if !scalar.EqualWithinAbs(va, vb, tol) {
			r.Mismatches = append(r.Mismatches, Mismatch{Index: k, A: va, B: vb, Diff: d})
		}
	}
	return r, nil
}

// Cells returns nil when a and b agree within tol, and a *MismatchError
// naming both labels otherwise. Swapping the arguments swaps the labels and
// values but reports the same cell.
func Cells(a, b matrix.Cells, tol float64, labelA, labelB string) error {
	r, err := Diff(a, b, tol)
	if err != nil {
		return err
	}
	return r.Err(tol, labelA, labelB)
}

// Err converts a report into the error Cells would return.
func (r Report) Err(tol float64, labelA, labelB string) error {
	if r.OK() {
		return nil
	}
	first := r.Mismatches[0]
	return &MismatchError{
		LabelA:    labelA,
		LabelB:    labelB,
		Index:     first.Index,
		A:         first.A,
		B:         first.B,
		Diff:      first.Diff,
		Tolerance: tol,
		Count:     len(r.Mismatches),
		Keys:      r.Keys,
	}
}

func union(a, b matrix.Cells) []matrix.Index {
	seen := make(map[matrix.Index]struct{}, len(a)+len(b))
	keys := make([]matrix.Index, 0, len(a)+len(b))
	for _, m := range []matrix.Cells{a, b} {
		for k := range m {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	matrix.SortIndices(keys)
	return keys
}
