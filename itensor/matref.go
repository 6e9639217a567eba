package itensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// toMatRef views the storage of the rank 2 tensor t as a matrix with rows i1 and columns i2.
// The view aliases t's storage, and is transposed if i1 is not the first index of t.
func toMatRef(t *Tensor, i1, i2 Index) mat.Matrix {
	if t.Rank() != 2 || !t.HasIndex(i1) || !t.HasIndex(i2) {
		panic(fmt.Sprintf("%s %s %s", t, i1, i2))
	}
	re := t.denseRe()
	if i1 == t.is[0] {
		return mat.NewDense(i1.dim, i2.dim, re)
	}
	return mat.Transpose{Matrix: mat.NewDense(i2.dim, i1.dim, re)}
}

// rank2Block is a dense block of a rank 2 QTensor, viewed with rows in the sector i1 of the row index.
type rank2Block struct {
	m  mat.Matrix
	i1 int
	i2 int
}

// getBlocks views the blocks of t as matrices with rows along uI and columns along vI.
// Blocks are returned in ascending sector order of t's own index order.
func getBlocks(t *QTensor, uI, vI QIndex) []rank2Block {
	if !uI.Equal(t.is[0]) && !uI.Equal(t.is[1]) || !vI.Equal(t.is[0]) && !vI.Equal(t.is[1]) || uI.Equal(vI) {
		panic(fmt.Sprintf("%s %s %s", t, uI, vI))
	}
	transpose := vI.Equal(t.is[0])

	blocks := make([]rank2Block, 0, len(t.blocks))
	for _, b := range t.blocks {
		nrow, ncol := t.is[0].sectors[b.I1].Dim, t.is[1].sectors[b.I2].Dim
		if nrow == 0 || ncol == 0 {
			continue
		}
		data := b.Data
		if t.diag {
			data = expandDiag(b.Data, []Index{{dim: nrow}, {dim: ncol}})
		}
		var r rank2Block
		r.m, r.i1, r.i2 = mat.NewDense(nrow, ncol, data), b.I1, b.I2
		if transpose {
			r.m = r.m.T()
			r.i1, r.i2 = r.i2, r.i1
		}
		blocks = append(blocks, r)
	}
	return blocks
}

// flatten returns the first cols columns of m in row-major order.
func flatten(m mat.Matrix, cols int) []float64 {
	r, _ := m.Dims()
	data := make([]float64, 0, r*cols)
	for i := range r {
		for j := range cols {
			data = append(data, m.At(i, j))
		}
	}
	return data
}
