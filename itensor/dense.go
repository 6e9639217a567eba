package itensor

import (
	"fmt"

	"github.com/fumin/tensor"
)

// FromDense returns a copy of a labeled by is, which must match the shape of a.
// The result is complex if any element of a has a non-zero imaginary part.
func FromDense(a *tensor.Dense, is ...Index) *Tensor {
	shape := a.Shape()
	if len(shape) != len(is) {
		panic(fmt.Sprintf("%v %v", shape, is))
	}
	for k, d := range shape {
		if is[k].dim != d {
			panic(fmt.Sprintf("%v %v", shape, is))
		}
	}

	t := NewTensor(is...)
	im := make([]float64, len(t.re))
	var cplx bool
	for ijk, v := range a.All() {
		off := t.offset(ijk)
		t.re[off] = float64(real(v))
		im[off] = float64(imag(v))
		if imag(v) != 0 {
			cplx = true
		}
	}
	if cplx {
		t.im = im
	}
	return t
}

// ToDense returns t as a complex64 tensor with its axes in the order of t's indices.
func ToDense(t *Tensor) *tensor.Dense {
	if t.Rank() == 0 {
		panic("rank 0")
	}
	shape := make([]int, 0, t.Rank())
	for _, i := range t.is {
		shape = append(shape, i.dim)
	}
	d := tensor.Zeros(shape...)
	for ijk := range d.All() {
		d.SetAt(ijk, complex(float32(t.At(ijk...)), float32(t.ImagAt(ijk...))))
	}
	return d
}
