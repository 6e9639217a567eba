// Package mps implements the Matrix Product State algorithm on top of itensor.
//
// A ground state is found by two-site DMRG: each bond is optimized with a Lanczos solver of the LocalOp formed by the environments and the two MPO tensors,
// and then split back into sites by a truncating decomposition.
//
// References:
//   - The density-matrix renormalization group in the age of matrix product states, Ulrich Schollwock
//   - Density matrix renormalization group algorithms with a single center site, Steven R. White
package mps

import (
	"fmt"
	"math/rand/v2"

	"github.com/fumin/tnet/itensor"
	"github.com/pkg/errors"
)

// MPS is a matrix product state.
// Site j carries the indices (a_{j-1}, s_j, a_j), without links beyond the ends.
type MPS struct {
	sites []*itensor.Tensor
	s     []itensor.Index
}

func (psi *MPS) Len() int                   { return len(psi.sites) }
func (psi *MPS) Site(j int) *itensor.Tensor { return psi.sites[j] }

// Link returns the index between sites j and j+1.
func (psi *MPS) Link(j int) itensor.Index {
	i, ok := itensor.CommonIndex(psi.sites[j], psi.sites[j+1])
	if !ok {
		panic(fmt.Sprintf("%d %s %s", j, psi.sites[j], psi.sites[j+1]))
	}
	return i
}

// RandMPS creates a random matrix product state over the sites of h.
// maxD is the maximum bond dimension, which is D in the discussion below equation 71 in section 4.1.4, Ulrich Schollwock.
func RandMPS(h *MPO, maxD int) *MPS {
	n := h.Len()
	psi := &MPS{s: h.Sites()}

	// Link dimensions grow from both ends as the product of the site dimensions.
	dims := make([]int, n-1)
	left := 1
	for j := range n - 1 {
		left = min(left*psi.s[j].Dim(), maxD)
		dims[j] = left
	}
	right := 1
	for j := n - 2; j >= 0; j-- {
		right = min(right*psi.s[j+1].Dim(), maxD)
		dims[j] = min(dims[j], right)
	}
	links := make([]itensor.Index, 0, n-1)
	for j, d := range dims {
		links = append(links, itensor.NewIndex(fmt.Sprintf("a%d", j), d, itensor.Link))
	}

	for j, s := range psi.s {
		is := []itensor.Index{s}
		if j > 0 {
			is = append([]itensor.Index{links[j-1]}, is...)
		}
		if j < n-1 {
			is = append(is, links[j])
		}
		psi.sites = append(psi.sites, randTensor(is...))
	}
	return psi
}

func randTensor(is ...itensor.Index) *itensor.Tensor {
	n := 1
	for _, i := range is {
		n *= i.Dim()
	}
	data := make([]float64, n)
	for k := range data {
		data[k] = rand.Float64()*2 - 1
	}
	return itensor.NewTensorFrom(data, is...)
}

// InnerProduct computes <x|y>.
// See Section 4.2.1 Efficient evaluation of contractions, Ulrich Schollwock.
func InnerProduct(x, y *MPS) float64 {
	if x.Len() != y.Len() {
		panic(fmt.Sprintf("%d %d", x.Len(), y.Len()))
	}
	f := itensor.Contract(primeLinks(x.sites[0]).Dag(), y.sites[0])
	for j := 1; j < x.Len(); j++ {
		f = itensor.ContractAll(f, primeLinks(x.sites[j]).Dag(), y.sites[j])
	}
	return real(f.CplxElt())
}

// primeLinks primes the link indices of a site so that it does not contract with the links of another state.
func primeLinks(t *itensor.Tensor) *itensor.Tensor {
	return t.PrimeType(itensor.Link, 1)
}

// Expect returns <psi|h|psi>/<psi|psi>.
func Expect(psi *MPS, h *MPO) float64 {
	if psi.Len() != h.Len() {
		panic(fmt.Sprintf("%d %d", psi.Len(), h.Len()))
	}
	for j, s := range h.sites {
		if !psi.sites[j].HasIndex(s) {
			panic(fmt.Sprintf("site %d of the MPO %s is not in %s", j, s, psi.sites[j]))
		}
	}
	var f *itensor.Tensor
	for j := range psi.Len() {
		f = extendL(f, psi.sites[j], h.ws[j])
	}
	return real(f.CplxElt()) / InnerProduct(psi, psi)
}

// extendL returns the L expression one site to the right of l, which is nil left of the first site.
// See Equation 192, Section 6.2 Applying a Hamiltonian MPO to a mixed canonical state, Ulrich Schollwock.
func extendL(l, a, w *itensor.Tensor) *itensor.Tensor {
	// l is of shape {a_{j-1}, w_{j-1}, a_{j-1}'}.
	// The result is of shape {a_j, w_j, a_j'}.
	f := a
	if l != nil {
		f = itensor.Contract(l, a)
	}
	return itensor.ContractAll(f, w, a.Prime(1).Dag())
}

// extendR returns the R expression one site to the left of r, which is nil right of the last site.
// See Equation 193, Section 6.2 Applying a Hamiltonian MPO to a mixed canonical state, Ulrich Schollwock.
func extendR(r, a, w *itensor.Tensor) *itensor.Tensor {
	f := a
	if r != nil {
		f = itensor.Contract(a, r)
	}
	return itensor.ContractAll(f, w, a.Prime(1).Dag())
}

// rightNormalize brings psi into right canonical form with site 0 as the orthogonality center, normalized to 1.
// See Section 4.4.2 Generation of a right-canonical MPS, Ulrich Schollwock.
func rightNormalize(psi *MPS) error {
	args := itensor.NewArgs().Add("Truncate", false)
	for j := psi.Len() - 1; j >= 1; j-- {
		// Decompose psi[j] = u·s·v, keep v and multiply u·s into psi[j-1].
		u, s, v, _, err := itensor.SVD(psi.sites[j], []itensor.Index{psi.Link(j - 1)}, args)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("%d", j))
		}
		psi.sites[j] = v
		psi.sites[j-1] = itensor.ContractAll(psi.sites[j-1], u, s)
	}

	nrm := psi.sites[0].Norm()
	if nrm == 0 {
		return errors.Wrap(itensor.ErrResultIsZero, "zero state")
	}
	psi.sites[0] = psi.sites[0].Mul(1 / nrm)
	return nil
}
