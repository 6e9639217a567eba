package itensor

import (
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Contract returns the product of a and b summed over their common indices.
// The result carries the remaining indices of a followed by those of b, and the product of their scales.
func Contract(a, b *Tensor) *Tensor {
	var common, freeA, freeB []Index
	for _, i := range a.is {
		switch {
		case b.HasIndex(i):
			common = append(common, i)
		default:
			freeA = append(freeA, i)
		}
	}
	for _, i := range b.is {
		if !a.HasIndex(i) {
			freeB = append(freeB, i)
		}
	}

	// ap is of shape {freeA, common}, and bp is of shape {common, freeB}.
	aOrder := append(slices.Clone(freeA), common...)
	bOrder := append(slices.Clone(common), freeB...)
	aPerm, bPerm := a.perm(aOrder), b.perm(bOrder)
	apRe, bpRe := permute(a.denseRe(), a.is, aPerm), permute(b.denseRe(), b.is, bPerm)
	m, k, n := dimProduct(freeA), dimProduct(common), dimProduct(freeB)

	c := &Tensor{is: append(freeA, freeB...), scale: a.scale.Mul(b.scale)}
	c.re = gemm(m, k, n, apRe, bpRe)
	if a.im == nil && b.im == nil {
		return c
	}

	// (ar + i ai)(br + i bi) = ar br - ai bi + i(ar bi + ai br).
	var apIm, bpIm []float64
	if a.im != nil {
		apIm = permute(a.denseIm(), a.is, aPerm)
	}
	if b.im != nil {
		bpIm = permute(b.denseIm(), b.is, bPerm)
	}
	c.im = make([]float64, len(c.re))
	if apIm != nil && bpIm != nil {
		axpy(-1, gemm(m, k, n, apIm, bpIm), c.re)
	}
	if bpIm != nil {
		axpy(1, gemm(m, k, n, apRe, bpIm), c.im)
	}
	if apIm != nil {
		axpy(1, gemm(m, k, n, apIm, bpRe), c.im)
	}
	return c
}

// Contract returns Contract(t, b).
func (t *Tensor) Contract(b *Tensor) *Tensor {
	return Contract(t, b)
}

// ContractAll contracts ts from left to right.
func ContractAll(ts ...*Tensor) *Tensor {
	c := ts[0]
	for _, t := range ts[1:] {
		c = Contract(c, t)
	}
	return c
}

// gemm returns the m×n row-major product of the m×k matrix x and the k×n matrix y.
func gemm(m, k, n int, x, y []float64) []float64 {
	z := make([]float64, m*n)
	if m == 0 || n == 0 || k == 0 {
		return z
	}
	zm := mat.NewDense(m, n, z)
	zm.Mul(mat.NewDense(m, k, x), mat.NewDense(k, n, y))
	return z
}

func axpy(alpha float64, x, y []float64) {
	for i, v := range x {
		y[i] += alpha * v
	}
}
