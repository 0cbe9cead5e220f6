// Package matrix holds the sparse cell representation the comparator works
// on, and the collaborators that move matrices to and from disk: the input
// writer used for generated series, and the readers for executor results.
package matrix

import (
	"fmt"
	"sort"
)

// Index addresses a cell. Row and Col are 1-based.
type Index struct {
	Row int
	Col int
}

func (i Index) String() string {
	return fmt.Sprintf("(%d,%d)", i.Row, i.Col)
}

// Less orders indices row-major.
func (i Index) Less(j Index) bool {
	if i.Row != j.Row {
		return i.Row < j.Row
	}
	return i.Col < j.Col
}

// Cells is a sparse matrix: absent cells are zero.
type Cells map[Index]float64

// Keys returns the indices of c in row-major order.
func (c Cells) Keys() []Index {
	keys := make([]Index, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	SortIndices(keys)
	return keys
}

// SortIndices sorts keys row-major in place.
func SortIndices(keys []Index) {
	sort.Slice(keys, func(a, b int) bool { return keys[a].Less(keys[b]) })
}

// Column converts a column vector into cells, dropping exact zeros.
func Column(values []float64) Cells {
	c := make(Cells, len(values))
	for i, v := range values {
		if v != 0 {
			c[Index{Row: i + 1, Col: 1}] = v
		}
	}
	return c
}

// Scalar wraps a single value as the 1x1 matrix.
func Scalar(v float64) Cells {
	return Cells{{Row: 1, Col: 1}: v}
}

// Shape is the metadata written next to a matrix so a reader does not have
// to re-derive it from the data.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
	NNZ  int `json:"nnz"`
}

// ColumnShape describes a column vector.
func ColumnShape(values []float64) Shape {
	nnz := 0
	for _, v := range values {
		if v != 0 {
			nnz++
		}
	}
	return Shape{Rows: len(values), Cols: 1, NNZ: nnz}
}
