package mps

import (
	"fmt"
	"slices"

	"github.com/fumin/tensor"
	"github.com/fumin/tnet/itensor"
)

const (
	// mpoLeftAxis is the axis of b_{l-1} in Figure 35.
	mpoLeftAxis  = 0
	mpoRightAxis = 1
	mpoUpAxis    = 2
	mpoDownAxis  = 3
)

var (
	zero = [][]complex64{
		{0, 0},
		{0, 0},
	}
	identity = [][]complex64{
		{1, 0},
		{0, 1},
	}
	pauliX = [][]complex64{
		{0, 1},
		{1, 0},
	}
	pauliZ = [][]complex64{
		{1, 0},
		{0, -1},
	}
)

// MPO is a matrix product operator.
// Site j carries the indices (w_{j-1}, w_j, s_j', s_j), without links beyond the ends.
// The element at s_j' = i, s_j = k is <i|O|k>.
type MPO struct {
	ws    []*itensor.Tensor
	sites []itensor.Index
}

func (h *MPO) Len() int                 { return len(h.ws) }
func (h *MPO) W(j int) *itensor.Tensor  { return h.ws[j] }
func (h *MPO) Site(j int) itensor.Index { return h.sites[j] }
func (h *MPO) Sites() []itensor.Index   { return append([]itensor.Index(nil), h.sites...) }

// Ising returns the transverse field Ising Hamiltonian H = -Σ Z_i Z_{i+1} - h Σ X_i on an open chain of length n.
func Ising(n int, h float64) *MPO {
	mul := func(c complex64, x [][]complex64) [][]complex64 {
		y := make([][]complex64, len(x))
		for i, row := range x {
			for _, v := range row {
				y[i] = append(y[i], c*v)
			}
		}
		return y
	}
	w := t4([][][][]complex64{
		{identity, zero, zero},
		{pauliZ, zero, zero},
		{mul(complex(float32(-h), 0), pauliX), mul(-1, pauliZ), identity},
	})
	return newMPO(w, newSites(n))
}

// MagnetizationZ2 returns the square of the total magnetization M = Σ Z_i, which is Σ_i I + 2 Σ_{i<j} Z_i Z_j.
// sites are the site indices of the states it is measured on, such as h.Sites() of the Hamiltonian.
func MagnetizationZ2(sites []itensor.Index) *MPO {
	w := t4([][][][]complex64{
		{identity, zero, zero},
		{pauliZ, identity, zero},
		{identity, {{2, 0}, {0, -2}}, identity},
	})
	return newMPO(w, sites)
}

// t4 returns a rank 4 tensor from nested slices.
func t4(x [][][][]complex64) *tensor.Dense {
	t := tensor.Zeros(len(x), len(x[0]), len(x[0][0]), len(x[0][0][0]))
	for ijk := range t.All() {
		t.SetAt(ijk, x[ijk[0]][ijk[1]][ijk[2]][ijk[3]])
	}
	return t
}

// newSites returns the site indices of a chain of n spins.
func newSites(n int) []itensor.Index {
	sites := make([]itensor.Index, 0, n)
	for j := range n {
		sites = append(sites, itensor.NewIndex(fmt.Sprintf("s%d", j), 2, itensor.Site))
	}
	return sites
}

// newMPO repeats w over the chain of sites.
// The first site takes the last row of w, and the last site the first column.
func newMPO(w *tensor.Dense, sites []itensor.Index) *MPO {
	n := len(sites)
	if n < 2 {
		panic(fmt.Sprintf("%d", n))
	}
	shape := w.Shape()
	d0, d1, physD := shape[mpoLeftAxis], shape[mpoRightAxis], shape[mpoDownAxis]
	if d0 != d1 || shape[mpoUpAxis] != physD {
		panic(fmt.Sprintf("%#v", shape))
	}
	for _, s := range sites {
		if s.Dim() != physD || s.PrimeLevel() != 0 {
			panic(fmt.Sprintf("%s %#v", s, shape))
		}
	}

	h := &MPO{sites: slices.Clone(sites)}
	links := make([]itensor.Index, 0, n+1)
	for j := range n + 1 {
		links = append(links, itensor.NewIndex(fmt.Sprintf("w%d", j), d0, itensor.Link))
	}
	for j, s := range h.sites {
		wj := itensor.FromDense(w, links[j], links[j+1], s.Prime(1), s)
		switch j {
		case 0:
			wj = itensor.Contract(unitVector(links[j], d0-1), wj)
		case n - 1:
			wj = itensor.Contract(wj, unitVector(links[j+1], 0))
		}
		h.ws = append(h.ws, wj)
	}
	return h
}

// unitVector returns the vector over i that is 1 at k.
func unitVector(i itensor.Index, k int) *itensor.Tensor {
	v := itensor.NewTensor(i)
	v.Set(1, k)
	return v
}
