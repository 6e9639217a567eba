package itensor

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// SVD factors A into U·S·V, where U carries leftInds and V carries the remaining indices of A.
func SVD(A *Tensor, leftInds []Index, args Args) (*Tensor, *Tensor, *Tensor, Spectrum, error) {
	var rightInds []Index
	for _, i := range A.is {
		if !slices.Contains(leftInds, i) {
			rightInds = append(rightInds, i)
		}
	}
	if len(leftInds) == 0 || len(rightInds) == 0 || len(leftInds)+len(rightInds) != A.Rank() {
		panic(fmt.Sprintf("%v %s", leftInds, A))
	}

	lcmb, li := Combiner(leftInds...)
	rcmb, ri := Combiner(rightInds...)
	AA := ContractAll(lcmb, A, rcmb)
	U, S, V, spec, err := SVDRank2(AA, li, ri, args)
	if err != nil {
		return nil, nil, nil, Spectrum{}, errors.Wrap(err, "")
	}
	return Contract(lcmb, U), S, Contract(V, rcmb), spec, nil
}

// Denmat factors AA into A·B, where A is an isometry carrying leftInds, by diagonalizing the density matrix of AA over leftInds.
// perturb, if not nil, receives the combiner of leftInds and returns a tensor over (c, c') added to the density matrix, where c is the combined index.
// Truncation is on unless args turns it off.
func Denmat(AA *Tensor, leftInds []Index, args Args, perturb func(cmb *Tensor) *Tensor) (*Tensor, *Tensor, Spectrum, error) {
	if !args.Defined("Truncate") {
		args = args.Add("Truncate", true)
	}

	cmb, ci := Combiner(leftInds...)
	AAc := Contract(cmb, AA)
	rho := Contract(AAc, AAc.Dag().PrimeIndex(ci, 1))
	if perturb != nil {
		if drho := perturb(cmb); drho != nil {
			rho = Add(rho, drho)
		}
	}

	U, _, spec, err := DiagHermitian(rho, args)
	if err != nil {
		return nil, nil, Spectrum{}, errors.Wrap(err, "")
	}
	return Contract(cmb, U), Contract(U.Dag(), AAc), spec, nil
}
