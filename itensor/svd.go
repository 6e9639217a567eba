package itensor

import (
	"fmt"
	"log"
	"slices"

	"github.com/pkg/errors"
)

// SVDRank2 factors the rank 2 tensor A into U·D·V, where U carries ui, V carries vi, and D is diagonal over two new link indices.
// Singular values whose squares fall below the truncation options in args are discarded.
//
// Recognized args are SVDThreshold, SVDNOrthPass, Cutoff, Maxm, Minm, Truncate, DoRelCutoff, AbsoluteCutoff, ShowEigs,
// LeftIndexName, RightIndexName, IndexType, LeftIndexType and RightIndexType.
//
// D holds the singular values, which are non-negative as the sign of A's scale is moved into U.
// The returned Spectrum holds the squared singular values, including A's scale.
func SVDRank2(A *Tensor, ui, vi Index, args Args) (*Tensor, *Tensor, *Tensor, Spectrum, error) {
	thresh := args.GetReal("SVDThreshold", 1e-3)
	northpass := args.GetInt("SVDNOrthPass", 2)
	tp := readTruncParams(args, defaultTruncParams(true))
	lname := args.GetString("LeftIndexName", "ul")
	rname := args.GetString("RightIndexName", "vl")
	itype := args.GetIndexType("IndexType", Link)
	litype := args.GetIndexType("LeftIndexType", itype)
	ritype := args.GetIndexType("RightIndexType", itype)

	if A.Rank() != 2 {
		panic(fmt.Sprintf("%s", A))
	}
	if A.IsComplex() {
		return nil, nil, nil, Spectrum{}, errors.Wrap(ErrNotImplemented, "complex SVD")
	}
	if ui.dim == 0 || vi.dim == 0 {
		return nil, nil, nil, Spectrum{}, errors.Wrap(ErrResultIsZero, fmt.Sprintf("%s %s", ui, vi))
	}

	uu, dd, vv, err := svdKernel(toMatRef(A, ui, vi), thresh, northpass)
	if err != nil {
		return nil, nil, nil, Spectrum{}, errors.Wrap(err, "")
	}

	m := len(dd)
	probs := make([]float64, m)
	for i, d := range dd {
		probs[i] = d * d
	}
	var truncerr float64
	if tp.truncate {
		truncerr, m, _ = truncate(probs, tp.maxm, tp.minm, tp.cutoff, tp.absoluteCutoff, tp.doRelCutoff)
	}
	if tp.showEigs {
		showEigs(probs[:m], truncerr, A.scale, tp)
	}

	uL, vL := NewIndex(lname, m, litype), NewIndex(rname, m, ritype)
	signfix := NewLogNumber(1)
	if A.scale.Sign() < 0 {
		signfix = NewLogNumber(-1)
	}
	U := NewTensorFrom(flatten(uu, m), ui, uL)
	U.scale = signfix
	D := NewDiagTensor(slices.Clone(dd[:m]), uL, vL)
	D.scale = A.scale.Mul(signfix)
	V := NewTensorFrom(flatten(vv, m), vi, vL)

	eigs := probs[:m]
	switch {
	case A.scale.IsFiniteReal():
		s := A.scale.Real0()
		for i := range eigs {
			eigs[i] *= s * s
		}
	default:
		log.Printf("scale not finite real %s", A.scale)
	}
	return U, D, V, NewSpectrum(eigs, truncerr), nil
}
