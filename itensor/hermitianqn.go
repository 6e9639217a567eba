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

// QDiagHermitian is DiagHermitian for block-sparse tensors of zero divergence.
// Each block must lie on the sector diagonal of (a, a').
// The new index m has one sector per surviving block and the arrow opposite to a.
// U is over (a†, m†) and D is diagonal over (m', m†).
func QDiagHermitian(rho *QTensor, args Args) (*QTensor, *QTensor, Spectrum, error) {
	tp := readTruncParams(args, defaultTruncParams(false))

	is := []Index{rho.is[0].Index, rho.is[1].Index}
	activeIdx := hermitianActive(is)
	ai := slices.Index(is, activeIdx)
	active, activeP := rho.is[ai], rho.is[1-ai]
	if rho.div != (QN{}) {
		panic(fmt.Sprintf("non-zero divergence %s", rho))
	}
	for _, b := range rho.blocks {
		if b.I1 != b.I2 {
			panic(fmt.Sprintf("off diagonal block %d %d in %s", b.I1, b.I2, rho))
		}
	}

	if rho.scale.Sign() < 0 {
		rho = rho.Clone()
		rho.ScaleTo(rho.scale.Neg())
	}

	blocks := getBlocks(rho, active, activeP)
	if len(blocks) == 0 {
		return nil, nil, Spectrum{}, errors.Wrap(ErrResultIsZero, "no blocks")
	}

	type factors struct {
		vecs *mat.Dense
		d    []float64
	}
	fs := make([]factors, len(blocks))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for b, blk := range blocks {
		g.Go(func() error {
			vecs, d, err := eigKernel(blk.m)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("block %d", blk.i1))
			}
			fs[b] = factors{vecs: vecs, d: d}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, Spectrum{}, err
	}

	probs := make([]float64, 0, active.dim)
	for _, f := range fs {
		probs = append(probs, f.d...)
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
		log.Printf("Kept %d states in QDiagHermitian, trunc. err. = %.3E", m, truncerr)
		log.Printf("Eigs: %s", formatEigs(probs[:m]))
	}

	keep := make([]int, len(blocks))
	weights := make([][]float64, len(blocks))
	for b, f := range fs {
		weights[b] = f.d
		if docut < 0 {
			keep[b] = len(f.d)
		}
		for keep[b] < len(f.d) && f.d[keep[b]] > docut {
			keep[b]++
		}
	}
	// Equal eigenvalues in different blocks all pass docut.
	trimTies(keep, weights, m, probs[m-1])
	total := 0
	for _, k := range keep {
		total += k
	}
	if total == 0 {
		for b, f := range fs {
			if len(f.d) > 0 {
				keep[b] = 1
				break
			}
		}
	}

	var secs []Sector
	for b, blk := range blocks {
		if keep[b] > 0 {
			secs = append(secs, Sector{Dim: keep[b], QN: active.QN(blk.i1)})
		}
	}
	if len(secs) == 0 {
		return nil, nil, Spectrum{}, errors.Wrap(ErrResultIsZero, "no states kept")
	}
	newmid := NewQIndex(active.name, active.typ, active.dir.Flip(), secs...)

	U := NewQTensor(QN{}, active.Dag(), newmid.Dag())
	D := NewQDiagTensor(QN{}, newmid.Prime(1), newmid.Dag())
	D.scale = rho.scale
	kept := make([]float64, 0, m)
	n := 0
	for b, blk := range blocks {
		k := keep[b]
		if k == 0 {
			continue
		}
		U.SetBlock(blk.i1, n, flatten(fs[b].vecs, k))
		D.SetBlock(n, n, slices.Clone(fs[b].d[:k]))
		kept = append(kept, fs[b].d[:k]...)
		n++
	}

	slices.Sort(kept)
	slices.Reverse(kept)
	return U, D, NewSpectrum(hermitianEigs(kept, rho.scale), truncerr), nil
}
