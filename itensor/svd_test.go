package itensor

import (
	"fmt"
	"math"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestSVDRank2(t *testing.T) {
	t.Parallel()
	tests := []struct {
		dim1  int
		dim2  int
		scale float64
	}{
		{dim1: 4, dim2: 4, scale: 1},
		{dim1: 5, dim2: 3, scale: 1},
		{dim1: 3, dim2: 7, scale: -2.5},
		{dim1: 1, dim2: 6, scale: 1e-3},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %d %f", test.dim1, test.dim2, test.scale), func(t *testing.T) {
			t.Parallel()
			i, j := NewIndex("i", test.dim1, Site), NewIndex("j", test.dim2, Link)
			a := randTensor(i, j)
			a.ScaleTo(NewLogNumber(test.scale))

			for _, transpose := range []bool{false, true} {
				ui, vi := i, j
				if transpose {
					ui, vi = j, i
				}
				U, D, V, spec, err := SVDRank2(a, ui, vi, NewArgs().Add("Truncate", false))
				if err != nil {
					t.Fatalf("%+v", err)
				}
				if d := relDiff(ContractAll(U, D, V).Permute(i, j), a); d > 1e-10 {
					t.Fatalf("%t %g", transpose, d)
				}

				// The stored singular values are non-negative, with the sign of the scale moved into U.
				if D.Scale().Sign() < 0 {
					t.Fatalf("%s", D.Scale())
				}
				if U.Scale().Sign() != int(math.Copysign(1, test.scale)) {
					t.Fatalf("%s", U.Scale())
				}
				for k, v := range D.re {
					if v < 0 || k > 0 && v > D.re[k-1] {
						t.Fatalf("%v", D.re)
					}
				}

				// Spectrum holds the squared singular values including the scale.
				if spec.NumEigsKept() != min(test.dim1, test.dim2) || spec.Truncerr() != 0 {
					t.Fatalf("%d %g", spec.NumEigsKept(), spec.Truncerr())
				}
				for k, eig := range spec.EigsKept() {
					s := D.re[k] * D.Scale().Real()
					if math.Abs(eig-s*s) > 1e-10*math.Abs(eig) {
						t.Fatalf("%d %g %g", k, eig, s*s)
					}
				}
			}
		})
	}
}

// TestSVDRank2Scenario checks the truncation of a matrix with singular values {10, 5, 0.1, 0.01}.
func TestSVDRank2Scenario(t *testing.T) {
	t.Parallel()
	// a = h·diag(s)·p, with h orthogonal and p a permutation.
	h := mat.NewDense(4, 4, []float64{
		0.5, 0.5, 0.5, 0.5,
		0.5, -0.5, 0.5, -0.5,
		0.5, 0.5, -0.5, -0.5,
		0.5, -0.5, -0.5, 0.5,
	})
	s := mat.NewDiagDense(4, []float64{10, 5, 0.1, 0.01})
	p := mat.NewDense(4, 4, []float64{
		0, 0, 1, 0,
		1, 0, 0, 0,
		0, 0, 0, 1,
		0, 1, 0, 0,
	})
	var m mat.Dense
	m.Product(h, s, p)
	i, j := NewIndex("i", 4, Link), NewIndex("j", 4, Link)
	a := NewTensorFrom(flatten(&m, 4), i, j)

	tests := []struct {
		args     Args
		m        int
		truncerr float64
	}{
		{args: NewArgs().Add("Cutoff", 0.001).Add("Maxm", 4), m: 3, truncerr: 0.0001},
		{args: NewArgs().Add("Cutoff", 0.001).Add("Maxm", 4).Add("DoRelCutoff", true), m: 2, truncerr: 0.0101 / 100},
		{args: NewArgs().Add("Cutoff", 0.001).Add("Maxm", 1), m: 1, truncerr: 25.0101},
		{args: NewArgs().Add("Truncate", false), m: 4, truncerr: 0},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s", test.args), func(t *testing.T) {
			t.Parallel()
			U, D, V, spec, err := SVDRank2(a, i, j, test.args.Add("ShowEigs", true))
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if spec.NumEigsKept() != test.m || D.Index(0).Dim() != test.m || U.Index(1) != D.Index(0) || V.Index(1) != D.Index(1) {
				t.Fatalf("%d %s %s %s", spec.NumEigsKept(), U, D, V)
			}
			if math.Abs(spec.Truncerr()-test.truncerr) > 1e-9 {
				t.Fatalf("%g %g", spec.Truncerr(), test.truncerr)
			}
			want := []float64{100, 25, 0.01, 0.0001}
			for k, eig := range spec.EigsKept() {
				if math.Abs(eig-want[k]) > 1e-9 {
					t.Fatalf("%d %g %g", k, eig, want[k])
				}
			}
			if U.Index(1).Name() != "ul" || V.Index(1).Name() != "vl" || U.Index(1).Type() != Link {
				t.Fatalf("%s %s", U, V)
			}
		})
	}
}

func TestSVDRank2Errors(t *testing.T) {
	t.Parallel()
	i, j := NewIndex("i", 3, Site), NewIndex("j", 2, Site)
	a := randTensor(i, j)
	a.SetComplex([]float64{0, 1, 0, 0, 0, 0})
	if _, _, _, _, err := SVDRank2(a, i, j, NewArgs()); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("%+v", err)
	}

	k := NewIndex("k", 0, Link)
	if _, _, _, _, err := SVDRank2(NewTensor(i, k), i, k, NewArgs()); !errors.Is(err, ErrResultIsZero) {
		t.Fatalf("%+v", err)
	}
}

func TestSVD(t *testing.T) {
	t.Parallel()
	i, j, k, l := NewIndex("i", 2, Site), NewIndex("j", 3, Link), NewIndex("k", 2, Site), NewIndex("l", 4, Link)
	a := randTensor(i, j, k, l)
	args := NewArgs().Add("Truncate", false).Add("LeftIndexName", "a").Add("RightIndexName", "b").Add("IndexType", "Site")
	U, S, V, spec, err := SVD(a, []Index{j, k}, args)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if spec.NumEigsKept() != 6 {
		t.Fatalf("%d", spec.NumEigsKept())
	}
	if !U.HasIndex(j) || !U.HasIndex(k) || !V.HasIndex(i) || !V.HasIndex(l) {
		t.Fatalf("%s %s", U, V)
	}
	if S.Index(0).Name() != "a" || S.Index(1).Name() != "b" || S.Index(0).Type() != Site {
		t.Fatalf("%s", S)
	}
	if d := relDiff(ContractAll(U, S, V).Permute(i, j, k, l), a); d > 1e-10 {
		t.Fatalf("%g", d)
	}
}
