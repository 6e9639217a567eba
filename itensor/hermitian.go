package itensor

import (
	"fmt"
	"log"
	"slices"

	"github.com/pkg/errors"
)

// DiagHermitian diagonalizes the Hermitian tensor rho, which must carry exactly one unprimed index a and its prime a'.
// It returns U over (a, m) and the diagonal D over (m', m) such that rho = U·D·U'†, where m is a new index named after a.
// Eigenvalues are in descending order. Truncation is off unless args sets Truncate.
func DiagHermitian(rho *Tensor, args Args) (*Tensor, *Tensor, Spectrum, error) {
	tp := readTruncParams(args, defaultTruncParams(false))

	active := hermitianActive(rho.is)
	if rho.IsComplex() {
		return nil, nil, Spectrum{}, errors.Wrap(ErrNotImplemented, "complex DiagHermitian")
	}

	// Eigenvalues are ordered by the sign of the payload, so move a negative sign from the scale into it.
	if rho.scale.Sign() < 0 {
		rho = rho.Clone()
		rho.ScaleTo(rho.scale.Neg())
	}

	vecs, dd, err := eigKernel(toMatRef(rho, active, active.Prime(1)))
	if err != nil {
		return nil, nil, Spectrum{}, errors.Wrap(err, "")
	}
	if tp.showEigs {
		log.Printf("Before truncating, m = %d", len(dd))
		log.Printf("maxm = %d, minm = %d, cutoff = %.2E", tp.maxm, tp.minm, tp.cutoff)
	}

	m := len(dd)
	var truncerr float64
	if tp.truncate {
		truncerr, m, _ = truncate(dd, tp.maxm, tp.minm, tp.cutoff, tp.absoluteCutoff, tp.doRelCutoff)
	}
	dd = dd[:m]
	if tp.showEigs {
		log.Printf("Kept %d states in DiagHermitian, trunc. err. = %.3E", m, truncerr)
		log.Printf("Eigs: %s", formatEigs(dd))
	}

	newmid := NewIndex(active.name, m, active.typ)
	U := NewTensorFrom(flatten(vecs, m), active, newmid)
	D := NewDiagTensor(slices.Clone(dd), newmid.Prime(1), newmid)
	D.scale = rho.scale

	eigs := hermitianEigs(dd, rho.scale)
	return U, D, NewSpectrum(eigs, truncerr), nil
}

// hermitianActive returns the unprimed index of a rank 2 Hermitian tensor, panicking unless the other index is its prime.
func hermitianActive(is []Index) Index {
	if len(is) != 2 {
		panic(fmt.Sprintf("rank %d %v", len(is), is))
	}
	var active Index
	switch {
	case is[0].prime == 0:
		active = is[0]
	case is[1].prime == 0:
		active = is[1]
	default:
		panic(fmt.Sprintf("no unprimed index %v", is))
	}
	if !slices.Contains(is, active.Prime(1)) {
		panic(fmt.Sprintf("%v is not of the form (a, a')", is))
	}
	return active
}

// hermitianEigs returns dd including scale, or as is with a warning if the scale is not representable.
func hermitianEigs(dd []float64, scale LogNumber) []float64 {
	eigs := slices.Clone(dd)
	if !scale.IsFiniteReal() {
		log.Printf("scale not finite real %s, omitting it from the spectrum", scale)
		return eigs
	}
	s := scale.Real()
	for i := range eigs {
		eigs[i] *= s
	}
	return eigs
}
