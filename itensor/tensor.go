// Package itensor implements labeled tensors with a factored log scale, and the decompositions that truncate them.
//
// Contraction is by matching indices: two tensors multiplied together are summed over every Index they share.
// The decompositions SVDRank2, QSVDRank2, DiagHermitian and QDiagHermitian select a reduced basis and report the discarded weight in a Spectrum.
//
// References:
//   - The density-matrix renormalization group in the age of matrix product states, Ulrich Schollwock
//   - The ITensor Software Library for Tensor Network Calculations, Matthew Fishman, Steven R. White, E. Miles Stoudenmire
package itensor

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Tensor is a dense or diagonal tensor whose value is payload·scale.
// The payload is stored in row-major order of its indices, with the first index varying slowest.
// A diagonal tensor stores only the entries whose index values are all equal.
type Tensor struct {
	is []Index
	re []float64

	// im is the imaginary part, nil for real tensors.
	im    []float64
	diag  bool
	scale LogNumber
}

// NewTensor returns a zero tensor.
func NewTensor(is ...Index) *Tensor {
	return &Tensor{is: slices.Clone(is), re: make([]float64, dimProduct(is)), scale: NewLogNumber(1)}
}

// NewTensorFrom returns a tensor holding data, which it takes ownership of.
func NewTensorFrom(data []float64, is ...Index) *Tensor {
	if len(data) != dimProduct(is) {
		panic(fmt.Sprintf("%d %v", len(data), is))
	}
	return &Tensor{is: slices.Clone(is), re: data, scale: NewLogNumber(1)}
}

// NewDiagTensor returns a diagonal tensor with the given diagonal.
func NewDiagTensor(diag []float64, is ...Index) *Tensor {
	if len(diag) != minDim(is) {
		panic(fmt.Sprintf("%d %v", len(diag), is))
	}
	return &Tensor{is: slices.Clone(is), re: diag, diag: true, scale: NewLogNumber(1)}
}

// Delta returns the diagonal tensor of ones over is.
func Delta(is ...Index) *Tensor {
	d := make([]float64, minDim(is))
	for i := range d {
		d[i] = 1
	}
	return NewDiagTensor(d, is...)
}

// Combiner returns a tensor that fuses is into the returned Index when contracted with a tensor carrying is.
// Contracting the result again with the combiner restores is.
func Combiner(is ...Index) (*Tensor, Index) {
	n := dimProduct(is)
	c := NewIndex("cmb", n, Link)
	data := make([]float64, n*n)
	for f := range n {
		data[f*n+f] = 1
	}
	return NewTensorFrom(data, append(slices.Clone(is), c)...), c
}

// Scalar returns a rank 0 tensor.
func Scalar(v float64) *Tensor {
	return NewTensorFrom([]float64{v})
}

func (t *Tensor) Rank() int         { return len(t.is) }
func (t *Tensor) Inds() []Index     { return slices.Clone(t.is) }
func (t *Tensor) Index(i int) Index { return t.is[i] }
func (t *Tensor) Scale() LogNumber  { return t.scale }
func (t *Tensor) IsComplex() bool   { return t.im != nil }
func (t *Tensor) IsDiag() bool      { return t.diag }

// Valid reports whether t has storage.
func (t *Tensor) Valid() bool { return t != nil && t.re != nil }

func (t *Tensor) HasIndex(i Index) bool {
	return slices.Contains(t.is, i)
}

// FindIndex returns the first index of type typ and prime level prime.
func (t *Tensor) FindIndex(typ IndexType, prime int) (Index, bool) {
	for _, i := range t.is {
		if (typ == All || i.typ == typ) && i.prime == prime {
			return i, true
		}
	}
	return Index{}, false
}

// CommonIndex returns an index shared by a and b.
func CommonIndex(a, b *Tensor) (Index, bool) {
	for _, i := range a.is {
		if b.HasIndex(i) {
			return i, true
		}
	}
	return Index{}, false
}

func (t *Tensor) Clone() *Tensor {
	c := &Tensor{is: slices.Clone(t.is), re: slices.Clone(t.re), diag: t.diag, scale: t.scale}
	if t.im != nil {
		c.im = slices.Clone(t.im)
	}
	return c
}

// Dense returns t with diagonal storage expanded.
func (t *Tensor) Dense() *Tensor {
	if !t.diag {
		return t.Clone()
	}
	c := &Tensor{is: slices.Clone(t.is), re: t.denseRe(), scale: t.scale}
	if t.im != nil {
		c.im = expandDiag(t.im, t.is)
	}
	return c
}

func (t *Tensor) denseRe() []float64 {
	if !t.diag {
		return t.re
	}
	return expandDiag(t.re, t.is)
}

func (t *Tensor) denseIm() []float64 {
	if t.im == nil || !t.diag {
		return t.im
	}
	return expandDiag(t.im, t.is)
}

func expandDiag(d []float64, is []Index) []float64 {
	data := make([]float64, dimProduct(is))
	step := 0
	for _, s := range strides(is) {
		step += s
	}
	for k, v := range d {
		data[k*step] = v
	}
	return data
}

// At returns the real part of the element at the given index values, in the order of t's indices.
func (t *Tensor) At(vals ...int) float64 {
	return t.payloadAt(t.re, vals) * t.scale.Real()
}

// ImagAt returns the imaginary part of the element at the given index values.
func (t *Tensor) ImagAt(vals ...int) float64 {
	if t.im == nil {
		return 0
	}
	return t.payloadAt(t.im, vals) * t.scale.Real()
}

func (t *Tensor) payloadAt(data []float64, vals []int) float64 {
	if len(vals) != len(t.is) {
		panic(fmt.Sprintf("%v %v", vals, t.is))
	}
	if t.diag {
		for _, v := range vals[1:] {
			if v != vals[0] {
				return 0
			}
		}
		return data[vals[0]]
	}
	return data[t.offset(vals)]
}

// Set sets the element at the given index values to v.
// Diagonal storage is expanded, and the scale is folded into the payload if it is zero.
func (t *Tensor) Set(v float64, vals ...int) {
	if t.diag {
		t.re, t.im, t.diag = t.denseRe(), t.denseIm(), false
	}
	if t.scale.IsZero() {
		clear(t.re)
		clear(t.im)
		t.scale = NewLogNumber(1)
	}
	t.re[t.offset(vals)] = v / t.scale.Real()
}

func (t *Tensor) offset(vals []int) int {
	off := 0
	for k, s := range strides(t.is) {
		v := vals[k]
		if v < 0 || v >= t.is[k].dim {
			panic(fmt.Sprintf("%v %v", vals, t.is))
		}
		off += v * s
	}
	return off
}

// Elt returns the real value of a tensor with a single element.
func (t *Tensor) Elt() float64 {
	if len(t.re) != 1 {
		panic(fmt.Sprintf("%v", t.is))
	}
	return t.re[0] * t.scale.Real()
}

// CplxElt returns the value of a tensor with a single element.
func (t *Tensor) CplxElt() complex128 {
	if len(t.re) != 1 {
		panic(fmt.Sprintf("%v", t.is))
	}
	var im float64
	if t.im != nil {
		im = t.im[0]
	}
	return complex(t.re[0], im) * complex(t.scale.Real(), 0)
}

// Norm returns the Frobenius norm including the scale.
func (t *Tensor) Norm() float64 {
	var s float64
	for _, v := range t.re {
		s += v * v
	}
	for _, v := range t.im {
		s += v * v
	}
	if s == 0 || t.scale.IsZero() {
		return 0
	}
	return math.Exp(0.5*math.Log(s) + t.scale.logNum)
}

// ScaleTo rewrites the payload so that the scale becomes s, leaving the value of t unchanged.
func (t *Tensor) ScaleTo(s LogNumber) {
	if s.IsZero() {
		panic("scale to zero")
	}
	if t.scale.IsZero() {
		clear(t.re)
		clear(t.im)
		t.scale = s
		return
	}
	r := t.scale.Div(s).Real()
	for i := range t.re {
		t.re[i] *= r
	}
	for i := range t.im {
		t.im[i] *= r
	}
	t.scale = s
}

// Mul returns t multiplied by x. Only the scale is modified.
func (t *Tensor) Mul(x float64) *Tensor {
	c := t.Clone()
	c.scale = c.scale.Mul(NewLogNumber(x))
	return c
}

// Dag returns the complex conjugate of t.
func (t *Tensor) Dag() *Tensor {
	c := t.Clone()
	for i := range c.im {
		c.im[i] = -c.im[i]
	}
	return c
}

// TakeReal returns the real part of t.
func (t *Tensor) TakeReal() *Tensor {
	c := t.Clone()
	c.im = nil
	return c
}

// SetComplex sets the imaginary part of the payload.
func (t *Tensor) SetComplex(im []float64) {
	if len(im) != len(t.re) {
		panic(fmt.Sprintf("%d %d", len(im), len(t.re)))
	}
	t.im = im
}

func (t *Tensor) mapInds(f func(Index) Index) *Tensor {
	c := t.Clone()
	for k, i := range c.is {
		c.is[k] = f(i)
	}
	return c
}

// Prime returns t with all indices primed n times.
func (t *Tensor) Prime(n int) *Tensor {
	return t.mapInds(func(i Index) Index { return i.Prime(n) })
}

// PrimeType returns t with indices of type typ primed n times.
func (t *Tensor) PrimeType(typ IndexType, n int) *Tensor {
	return t.mapInds(func(i Index) Index {
		if typ == All || i.typ == typ {
			return i.Prime(n)
		}
		return i
	})
}

// PrimeIndex returns t with the index j primed n times.
func (t *Tensor) PrimeIndex(j Index, n int) *Tensor {
	if !t.HasIndex(j) {
		panic(fmt.Sprintf("%s %v", j, t.is))
	}
	return t.mapInds(func(i Index) Index {
		if i == j {
			return i.Prime(n)
		}
		return i
	})
}

// NoPrime returns t with all prime levels reset to 0.
func (t *Tensor) NoPrime() *Tensor {
	return t.mapInds(Index.NoPrime)
}

// MapPrime returns t with indices at prime level from moved to prime level to.
func (t *Tensor) MapPrime(from, to int) *Tensor {
	return t.mapInds(func(i Index) Index {
		if i.prime == from {
			return i.SetPrime(to)
		}
		return i
	})
}

// SwapPrime returns t with prime levels a and b exchanged.
func (t *Tensor) SwapPrime(a, b int) *Tensor {
	return t.mapInds(func(i Index) Index {
		switch i.prime {
		case a:
			return i.SetPrime(b)
		case b:
			return i.SetPrime(a)
		}
		return i
	})
}

// Permute returns t with its indices in the given order.
func (t *Tensor) Permute(is ...Index) *Tensor {
	perm := t.perm(is)
	c := t.Dense()
	c.re = permute(c.re, t.is, perm)
	if c.im != nil {
		c.im = permute(c.im, t.is, perm)
	}
	c.is = slices.Clone(is)
	return c
}

func (t *Tensor) perm(is []Index) []int {
	if len(is) != len(t.is) {
		panic(fmt.Sprintf("%v %v", is, t.is))
	}
	perm := make([]int, len(is))
	for k, i := range is {
		perm[k] = slices.Index(t.is, i)
		if perm[k] < 0 {
			panic(fmt.Sprintf("%v %v", is, t.is))
		}
	}
	return perm
}

// Add returns a+b. The indices of b must be a permutation of those of a.
func Add(a, b *Tensor) *Tensor {
	if b.scale.IsZero() {
		return a.Dense()
	}
	if a.scale.IsZero() {
		return b.Permute(a.is...)
	}
	bp := b.Permute(a.is...)
	c := a.Dense()
	r := bp.scale.Div(c.scale).Real()
	for i, v := range bp.re {
		c.re[i] += r * v
	}
	if bp.im != nil && c.im == nil {
		c.im = make([]float64, len(c.re))
	}
	for i, v := range bp.im {
		c.im[i] += r * v
	}
	return c
}

// Sub returns a-b.
func Sub(a, b *Tensor) *Tensor {
	return Add(a, b.Mul(-1))
}

func (t *Tensor) String() string {
	ss := make([]string, 0, len(t.is))
	for _, i := range t.is {
		ss = append(ss, i.String())
	}
	return fmt.Sprintf("Tensor{%s scale=%s diag=%t complex=%t}", strings.Join(ss, " "), t.scale, t.diag, t.im != nil)
}

func strides(is []Index) []int {
	s := make([]int, len(is))
	step := 1
	for k := len(is) - 1; k >= 0; k-- {
		s[k] = step
		step *= is[k].dim
	}
	return s
}

func minDim(is []Index) int {
	if len(is) == 0 {
		return 1
	}
	m := is[0].dim
	for _, i := range is[1:] {
		m = min(m, i.dim)
	}
	return m
}

// permute returns src, laid out over is, reordered so that axis k of the result is axis perm[k] of src.
func permute(src []float64, is []Index, perm []int) []float64 {
	identity := true
	for k, p := range perm {
		if k != p {
			identity = false
			break
		}
	}
	if identity {
		return src
	}

	srcStrides := strides(is)
	dims := make([]int, len(perm))
	for k, p := range perm {
		dims[k] = is[p].dim
	}
	dst := make([]float64, len(src))
	digit := make([]int, len(perm))
	for d := range dst {
		off := 0
		for k, p := range perm {
			off += digit[k] * srcStrides[p]
		}
		dst[d] = src[off]

		for k := len(digit) - 1; k >= 0; k-- {
			digit[k]++
			if digit[k] < dims[k] {
				break
			}
			digit[k] = 0
		}
	}
	return dst
}
