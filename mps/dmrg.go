package mps

import (
	"fmt"
	"log"
	"slices"

	"github.com/fumin/tnet/itensor"
	"github.com/pkg/errors"
)

// DMRGOptions are options for the two-site DMRG ground state search.
// Per sweep options take the last given value for later sweeps.
type DMRGOptions struct {
	sweeps      int
	maxm        []int
	cutoff      []float64
	noise       []float64
	lanczosIter int
	lanczosTol  float64
	denmat      bool
	quiet       bool
	observer    func(sweep, bond int, spec itensor.Spectrum)
}

// NewDMRGOptions returns the default DMRG options.
func NewDMRGOptions() DMRGOptions {
	opt := DMRGOptions{}
	opt.sweeps = 5
	opt.maxm = []int{10, 20, 50, 100}
	opt.cutoff = []float64{1e-10}
	opt.noise = []float64{0}
	opt.lanczosIter = 20
	opt.lanczosTol = 1e-12
	return opt
}

// Sweeps sets the number of sweeps, each going left to right and back.
func (opt DMRGOptions) Sweeps(n int) DMRGOptions {
	opt.sweeps = n
	return opt
}

// Maxm sets the maximum bond dimension of each sweep.
func (opt DMRGOptions) Maxm(m ...int) DMRGOptions {
	opt.maxm = m
	return opt
}

// Cutoff sets the truncation error cutoff of each sweep.
func (opt DMRGOptions) Cutoff(c ...float64) DMRGOptions {
	opt.cutoff = c
	return opt
}

// Noise sets the density matrix perturbation of each sweep.
// A non-zero noise implies density matrix truncation.
func (opt DMRGOptions) Noise(n ...float64) DMRGOptions {
	opt.noise = n
	return opt
}

// Lanczos sets the maximum Krylov dimension and the relative energy tolerance of the local solver.
func (opt DMRGOptions) Lanczos(maxIter int, tol float64) DMRGOptions {
	opt.lanczosIter = maxIter
	opt.lanczosTol = tol
	return opt
}

// Denmat selects density matrix truncation instead of SVD.
func (opt DMRGOptions) Denmat(b bool) DMRGOptions {
	opt.denmat = b
	return opt
}

// Quiet disables the per sweep log.
func (opt DMRGOptions) Quiet(b bool) DMRGOptions {
	opt.quiet = b
	return opt
}

// Observer sets a function called with the Spectrum of every bond decomposition.
func (opt DMRGOptions) Observer(f func(sweep, bond int, spec itensor.Spectrum)) DMRGOptions {
	opt.observer = f
	return opt
}

func schedule[T any](vals []T, sweep int) T {
	return vals[min(sweep, len(vals)-1)]
}

// DMRG optimizes psi towards the ground state of h and returns the ground state energy.
// See Section 6.3 Iterative ground state search, Ulrich Schollwock.
func DMRG(psi *MPS, h *MPO, options ...DMRGOptions) (float64, error) {
	opt := NewDMRGOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	if psi.Len() != h.Len() {
		panic(fmt.Sprintf("%d %d", psi.Len(), h.Len()))
	}

	if err := rightNormalize(psi); err != nil {
		return 0, errors.Wrap(err, "")
	}
	n := psi.Len()
	// ls[j] is the L expression including site j, and rs[j] the R expression including site j.
	ls, rs := make([]*itensor.Tensor, n), make([]*itensor.Tensor, n)
	for j := n - 1; j >= 2; j-- {
		rs[j] = extendR(env(rs, j+1), psi.sites[j], h.ws[j])
	}

	var energy float64
	op := NewLocalOp()
	for sw := range opt.sweeps {
		args := itensor.NewArgs().
			Add("Maxm", schedule(opt.maxm, sw)).
			Add("Cutoff", schedule(opt.cutoff, sw))
		noise := schedule(opt.noise, sw)

		bonds := make([]int, 0, 2*(n-1))
		for b := range n - 1 {
			bonds = append(bonds, b)
		}
		for b := n - 2; b >= 0; b-- {
			bonds = append(bonds, b)
		}
		var maxTruncerr float64
		maxLink := 0
		for k, b := range bonds {
			dir := FromLeft
			if k >= n-1 {
				dir = FromRight
			}

			op.Update2LR(h.ws[b], h.ws[b+1], env(ls, b-1), env(rs, b+2))
			phi := itensor.Contract(psi.sites[b], psi.sites[b+1])
			e, phi, err := lanczos(op, phi, opt.lanczosIter, opt.lanczosTol)
			if err != nil {
				return 0, errors.Wrap(err, fmt.Sprintf("sweep %d bond %d", sw, b))
			}
			energy = e

			spec, err := splitBond(psi, b, phi, dir, op, args, noise, opt.denmat)
			if err != nil {
				return 0, errors.Wrap(err, fmt.Sprintf("sweep %d bond %d", sw, b))
			}
			if opt.observer != nil {
				opt.observer(sw, b, spec)
			}
			maxTruncerr = max(maxTruncerr, spec.Truncerr())
			maxLink = max(maxLink, psi.Link(b).Dim())

			switch dir {
			case FromLeft:
				ls[b] = extendL(env(ls, b-1), psi.sites[b], h.ws[b])
			case FromRight:
				rs[b+1] = extendR(env(rs, b+2), psi.sites[b+1], h.ws[b+1])
			}
		}
		if !opt.quiet {
			log.Printf("sweep %d energy %.12f maxm %d truncerr %.3E", sw, energy, maxLink, maxTruncerr)
		}
	}
	return energy, nil
}

// env returns es[j], or nil beyond the ends of the chain.
func env(es []*itensor.Tensor, j int) *itensor.Tensor {
	if j < 0 || j >= len(es) {
		return nil
	}
	return es[j]
}

// splitBond factors the optimized two-site wavefunction phi back into sites b and b+1.
// Going right the orthogonality center moves to b+1, and going left it stays at b.
func splitBond(psi *MPS, b int, phi *itensor.Tensor, dir Direction, op *LocalOp, args itensor.Args, noise float64, denmat bool) (itensor.Spectrum, error) {
	left := slices.DeleteFunc(psi.sites[b].Inds(), func(i itensor.Index) bool { return psi.sites[b+1].HasIndex(i) })
	right := slices.DeleteFunc(psi.sites[b+1].Inds(), func(i itensor.Index) bool { return psi.sites[b].HasIndex(i) })

	if !denmat && noise == 0 {
		u, s, v, spec, err := itensor.SVD(phi, left, args)
		if err != nil {
			return itensor.Spectrum{}, errors.Wrap(err, "")
		}
		switch dir {
		case FromLeft:
			psi.sites[b], psi.sites[b+1] = u, itensor.Contract(s, v)
		case FromRight:
			psi.sites[b], psi.sites[b+1] = itensor.Contract(u, s), v
		}
		return spec, nil
	}

	var perturb func(*itensor.Tensor) *itensor.Tensor
	if noise > 0 {
		perturb = func(cmb *itensor.Tensor) *itensor.Tensor {
			return op.DeltaRho(phi, cmb, dir).Mul(noise)
		}
	}
	switch dir {
	case FromLeft:
		a, rest, spec, err := itensor.Denmat(phi, left, args, perturb)
		if err != nil {
			return itensor.Spectrum{}, errors.Wrap(err, "")
		}
		psi.sites[b], psi.sites[b+1] = a, rest
		return spec, nil
	default:
		a, rest, spec, err := itensor.Denmat(phi, right, args, perturb)
		if err != nil {
			return itensor.Spectrum{}, errors.Wrap(err, "")
		}
		psi.sites[b], psi.sites[b+1] = rest, a
		return spec, nil
	}
}
