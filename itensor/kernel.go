package itensor

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// svdKernel returns m = u·diag(s)·vᵀ with s in descending order.
// u is of shape {rows, k} and v of shape {cols, k}, with k the smaller dimension of m.
// thresh and northpass tune iterative SVD kernels; the LAPACK bidiagonal kernel behind gonum converges without them.
func svdKernel(m mat.Matrix, thresh float64, northpass int) (*mat.Dense, []float64, *mat.Dense, error) {
	if thresh < 0 || northpass < 0 {
		panic(fmt.Sprintf("%f %d", thresh, northpass))
	}
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		r, c := m.Dims()
		return nil, nil, nil, errors.Errorf("svd failed %dx%d", r, c)
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	return &u, svd.Values(nil), &v, nil
}

// eigKernel diagonalizes the symmetric matrix m, returning eigenvectors as columns and eigenvalues, both in descending order of eigenvalue.
// Only the upper triangle of m is read.
func eigKernel(m mat.Matrix) (*mat.Dense, []float64, error) {
	n, c := m.Dims()
	if n != c {
		panic(fmt.Sprintf("%d %d", n, c))
	}
	sym := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, m.At(i, j))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, nil, errors.Errorf("eigen failed %dx%d", n, n)
	}
	// EigenSym orders eigenvalues ascending.
	vals := eig.Values(nil)
	slices.Reverse(vals)
	var asc mat.Dense
	eig.VectorsTo(&asc)
	vecs := mat.NewDense(n, n, nil)
	for j := range n {
		for i := range n {
			vecs.Set(i, j, asc.At(i, n-1-j))
		}
	}
	return vecs, vals, nil
}
