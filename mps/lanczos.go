package mps

import (
	"fmt"
	"math"

	"github.com/fumin/tnet/itensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// lanczos returns the lowest eigenvalue of op and its normalized eigenvector, starting from phi.
// The Krylov basis is fully reorthogonalized.
func lanczos(op *LocalOp, phi *itensor.Tensor, maxIter int, tol float64) (float64, *itensor.Tensor, error) {
	n := min(maxIter, op.Size())
	nrm := phi.Norm()
	if nrm == 0 {
		return 0, nil, errors.Wrap(itensor.ErrResultIsZero, "zero initial vector")
	}

	vs := []*itensor.Tensor{phi.Mul(1 / nrm)}
	alphas, betas := make([]float64, 0, n), make([]float64, 0, n)
	energy := math.Inf(1)
	var ritz []float64
	for k := range n {
		w := op.Product(vs[k])
		alphas = append(alphas, dot(vs[k], w))
		for _, v := range vs {
			w = itensor.Sub(w, v.Mul(dot(v, w)))
		}

		e, y, err := lowestTridiag(alphas, betas)
		if err != nil {
			return 0, nil, errors.Wrap(err, fmt.Sprintf("%d", k))
		}
		converged := math.Abs(e-energy) < tol*max(math.Abs(e), 1)
		energy, ritz = e, y

		beta := w.Norm()
		if converged || beta < 1e-12 || k == n-1 {
			break
		}
		betas = append(betas, beta)
		vs = append(vs, w.Mul(1/beta))
	}

	// The Ritz vector is Σ y_k v_k.
	gs := vs[0].Mul(ritz[0])
	for k, v := range vs[1:len(ritz)] {
		gs = itensor.Add(gs, v.Mul(ritz[k+1]))
	}
	return energy, gs.Mul(1 / gs.Norm()), nil
}

func dot(a, b *itensor.Tensor) float64 {
	return real(itensor.Contract(a.Dag(), b).CplxElt())
}

// lowestTridiag returns the lowest eigenpair of the symmetric tridiagonal matrix with diagonal alphas and off diagonal betas.
func lowestTridiag(alphas, betas []float64) (float64, []float64, error) {
	n := len(alphas)
	t := mat.NewSymDense(n, nil)
	for i, a := range alphas {
		t.SetSym(i, i, a)
	}
	for i, b := range betas[:n-1] {
		t.SetSym(i, i+1, b)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(t, true); !ok {
		return 0, nil, errors.Errorf("%v %v", alphas, betas)
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	y := mat.Col(nil, 0, &vecs)
	floats.Scale(1/floats.Norm(y, 2), y)
	return eig.Values(nil)[0], y, nil
}
