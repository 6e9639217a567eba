package itensor

import (
	"fmt"
	"log"
	"runtime"
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// QSVDRank2 is SVDRank2 for block-sparse tensors.
// Every block is decomposed separately, but truncation is decided once over the singular values of all blocks.
// The new link indices L and R have one sector per surviving block, with the arrows of uI and vI respectively.
// U is over (uI, L†), D is diagonal over (L, R) with the divergence of A, and V is over (vI, R†).
func QSVDRank2(A *QTensor, uI, vI QIndex, args Args) (*QTensor, *QTensor, *QTensor, Spectrum, error) {
	thresh := args.GetReal("SVDThreshold", 1e-4)
	northpass := args.GetInt("SVDNOrthPass", 2)
	tp := readTruncParams(args, defaultTruncParams(true))
	lname := args.GetString("LeftIndexName", "L")
	rname := args.GetString("RightIndexName", "R")
	itype := args.GetIndexType("IndexType", Link)
	litype := args.GetIndexType("LeftIndexType", itype)
	ritype := args.GetIndexType("RightIndexType", itype)

	blocks := getBlocks(A, uI, vI)
	if len(blocks) == 0 {
		return nil, nil, nil, Spectrum{}, errors.Wrap(ErrResultIsZero, "no blocks")
	}
	if uI.dim == 0 {
		return nil, nil, nil, Spectrum{}, errors.Wrap(ErrResultIsZero, fmt.Sprintf("%s", uI))
	}
	if vI.dim == 0 {
		return nil, nil, nil, Spectrum{}, errors.Wrap(ErrResultIsZero, fmt.Sprintf("%s", vI))
	}

	type factors struct {
		u *mat.Dense
		d []float64
		v *mat.Dense
	}
	fs := make([]factors, len(blocks))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for b, blk := range blocks {
		g.Go(func() error {
			u, d, v, err := svdKernel(blk.m, thresh, northpass)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("block %d %d", blk.i1, blk.i2))
			}
			fs[b] = factors{u: u, d: d, v: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, Spectrum{}, err
	}

	// Sort the squared singular values of all blocks irrespective of quantum numbers.
	probs := make([]float64, 0, min(uI.dim, vI.dim))
	for _, f := range fs {
		for _, d := range f.d {
			probs = append(probs, d*d)
		}
	}
	slices.Sort(probs)
	slices.Reverse(probs)

	m := len(probs)
	var truncerr float64
	docut := -1.0
	if tp.truncate {
		truncerr, m, docut = truncate(probs, tp.maxm, tp.minm, tp.cutoff, tp.absoluteCutoff, tp.doRelCutoff)
	}
	if tp.showEigs {
		showEigs(probs[:m], truncerr, A.scale, tp)
	}

	keep := make([]int, len(blocks))
	weights := make([][]float64, len(blocks))
	for b, f := range fs {
		for _, d := range f.d {
			weights[b] = append(weights[b], d*d)
		}
		for keep[b] < len(f.d) && weights[b][keep[b]] > docut {
			keep[b]++
		}
	}
	// Equal weights in different blocks all pass docut.
	trimTies(keep, weights, m, probs[m-1])
	total := 0
	for _, k := range keep {
		total += k
	}
	// A vanishing tensor still keeps one arbitrary state.
	if total == 0 {
		for b, f := range fs {
			if len(f.d) > 0 {
				keep[b] = 1
				break
			}
		}
	}

	var lsecs, rsecs []Sector
	for b, blk := range blocks {
		if keep[b] == 0 {
			continue
		}
		lsecs = append(lsecs, Sector{Dim: keep[b], QN: uI.QN(blk.i1)})
		rsecs = append(rsecs, Sector{Dim: keep[b], QN: vI.QN(blk.i2)})
	}
	if len(lsecs) == 0 {
		return nil, nil, nil, Spectrum{}, errors.Wrap(ErrResultIsZero, "no states kept")
	}
	L := NewQIndex(lname, litype, uI.dir, lsecs...)
	R := NewQIndex(rname, ritype, vI.dir, rsecs...)

	signfix := NewLogNumber(1)
	if A.scale.Sign() < 0 {
		signfix = NewLogNumber(-1)
	}
	U := NewQTensor(QN{}, uI, L.Dag())
	U.scale = signfix
	D := NewQDiagTensor(A.div, L, R)
	D.scale = A.scale.Mul(signfix)
	V := NewQTensor(QN{}, vI, R.Dag())

	eigs := make([]float64, 0, m)
	n := 0
	for b, blk := range blocks {
		k := keep[b]
		if k == 0 {
			continue
		}
		f := fs[b]
		U.SetBlock(blk.i1, n, flatten(f.u, k))
		D.SetBlock(n, n, slices.Clone(f.d[:k]))
		V.SetBlock(blk.i2, n, flatten(f.v, k))
		for _, d := range f.d[:k] {
			eigs = append(eigs, d*d)
		}
		n++
	}

	slices.Sort(eigs)
	slices.Reverse(eigs)
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
