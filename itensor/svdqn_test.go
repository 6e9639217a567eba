package itensor

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/pkg/errors"
)

func TestQSVDRank2(t *testing.T) {
	t.Parallel()
	tests := []struct {
		usecs []Sector
		vsecs []Sector
		div   QN
		args  Args
	}{
		{
			usecs: []Sector{{Dim: 2, QN: QN{0}}, {Dim: 3, QN: QN{1}}, {Dim: 1, QN: QN{2}}},
			vsecs: []Sector{{Dim: 2, QN: QN{0}}, {Dim: 2, QN: QN{1}}, {Dim: 2, QN: QN{2}}},
			args:  NewArgs().Add("Truncate", false),
		},
		{
			usecs: []Sector{{Dim: 2, QN: QN{0}}, {Dim: 3, QN: QN{1}}, {Dim: 1, QN: QN{2}}},
			vsecs: []Sector{{Dim: 2, QN: QN{0}}, {Dim: 2, QN: QN{1}}, {Dim: 2, QN: QN{2}}},
			args:  NewArgs().Add("Cutoff", 0.05),
		},
		{
			usecs: []Sector{{Dim: 3, QN: QN{-1, 1}}, {Dim: 4, QN: QN{1, 1}}, {Dim: 2, QN: QN{1, 2}}},
			vsecs: []Sector{{Dim: 2, QN: QN{0, 0}}, {Dim: 5, QN: QN{2, 0}}, {Dim: 3, QN: QN{2, 1}}},
			div:   QN{-1, 1},
			args:  NewArgs().Add("Maxm", 4),
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %v %s", test.usecs, test.vsecs, test.args), func(t *testing.T) {
			t.Parallel()
			u := NewQIndex("u", Site, Out, test.usecs...)
			v := NewQIndex("v", Link, In, test.vsecs...)
			a := randQTensor(test.div, u, v)
			if a.NumBlocks() == 0 {
				t.Fatalf("%s", a)
			}

			U, D, V, spec, err := QSVDRank2(a, u, v, test.args)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			L, R := D.Index(0), D.Index(1)
			if U.Div() != (QN{}) || V.Div() != (QN{}) || D.Div() != test.div {
				t.Fatalf("%s %s %s", U, D, V)
			}
			if !U.Index(1).Equal(L) || U.Index(1).Dir() != u.Dir().Flip() || !V.Index(1).Equal(R) || V.Index(1).Dir() != v.Dir().Flip() {
				t.Fatalf("%s %s %s", U, D, V)
			}

			// The per-block kept counts add up to the count of a single truncation of the pooled weights.
			var probs []float64
			for _, b := range getBlocks(a, u, v) {
				_, d, _, err := svdKernel(b.m, 0, 0)
				if err != nil {
					t.Fatalf("%+v", err)
				}
				for _, s := range d {
					probs = append(probs, s*s)
				}
			}
			slices.Sort(probs)
			slices.Reverse(probs)
			tp := readTruncParams(test.args, defaultTruncParams(true))
			truncerr, m := 0.0, len(probs)
			if tp.truncate {
				truncerr, m, _ = truncate(probs, tp.maxm, tp.minm, tp.cutoff, tp.absoluteCutoff, tp.doRelCutoff)
			}
			if L.Dim() != m || R.Dim() != m || spec.NumEigsKept() != m {
				t.Fatalf("%d %d %d", L.Dim(), spec.NumEigsKept(), m)
			}
			if math.Abs(spec.Truncerr()-truncerr) > 1e-12 {
				t.Fatalf("%g %g", spec.Truncerr(), truncerr)
			}
			for k, eig := range spec.EigsKept() {
				if math.Abs(eig-probs[k]) > 1e-10 {
					t.Fatalf("%d %g %g", k, eig, probs[k])
				}
			}

			// Without truncation the factors reconstruct a.
			if !tp.truncate {
				usv := ContractAll(U.ToDense(), D.ToDense(), V.ToDense()).Permute(u.Index, v.Index)
				if d := relDiff(usv, a.ToDense()); d > 1e-10 {
					t.Fatalf("%g", d)
				}
			}

			// Bond sectors follow the blocks in ascending order.
			var want []QN
			for _, b := range a.Blocks() {
				want = append(want, u.QN(b.I1))
			}
			var got []QN
			for s := range L.NumSectors() {
				got = append(got, L.QN(s))
			}
			if !isSubsequence(got, want) {
				t.Fatalf("%v %v", got, want)
			}
		})
	}
}

func isSubsequence(sub, seq []QN) bool {
	for _, q := range seq {
		if len(sub) > 0 && sub[0] == q {
			sub = sub[1:]
		}
	}
	return len(sub) == 0
}

func TestQSVDRank2Transposed(t *testing.T) {
	t.Parallel()
	u := NewQIndex("u", Site, Out, Sector{Dim: 2, QN: QN{0}}, Sector{Dim: 3, QN: QN{1}})
	v := NewQIndex("v", Link, In, Sector{Dim: 3, QN: QN{0}}, Sector{Dim: 2, QN: QN{1}})
	a := randQTensor(QN{}, u, v)
	a.ScaleTo(NewLogNumber(-3))

	U, D, V, _, err := QSVDRank2(a, v, u, NewArgs().Add("Truncate", false))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !U.Index(0).Equal(v) || !V.Index(0).Equal(u) || U.Scale().Sign() >= 0 || D.Scale().Sign() <= 0 {
		t.Fatalf("%s %s %s", U, D, V)
	}
	for _, b := range D.Blocks() {
		if slices.ContainsFunc(b.Data, func(x float64) bool { return x < 0 }) {
			t.Fatalf("%v", b.Data)
		}
	}
	usv := ContractAll(U.ToDense(), D.ToDense(), V.ToDense()).Permute(u.Index, v.Index)
	if d := relDiff(usv, a.ToDense()); d > 1e-10 {
		t.Fatalf("%g", d)
	}
}

func TestQSVDRank2Errors(t *testing.T) {
	t.Parallel()
	u := NewQIndex("u", Site, Out, Sector{Dim: 2, QN: QN{0}})
	v := NewQIndex("v", Link, In, Sector{Dim: 2, QN: QN{1}})
	a := NewQTensor(QN{}, u, v)
	if _, _, _, _, err := QSVDRank2(a, u, v, NewArgs()); !errors.Is(err, ErrResultIsZero) {
		t.Fatalf("%+v", err)
	}

	// A vanishing tensor keeps a single state.
	w := NewQIndex("w", Link, In, Sector{Dim: 2, QN: QN{0}})
	z := NewQTensor(QN{}, u, w)
	z.SetBlock(0, 0, make([]float64, 4))
	_, D, _, spec, err := QSVDRank2(z, u, w, NewArgs())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if D.Index(0).Dim() != 1 || spec.NumEigsKept() != 1 {
		t.Fatalf("%s %d", D, spec.NumEigsKept())
	}
}

func TestQTensorSetBlock(t *testing.T) {
	t.Parallel()
	u := NewQIndex("u", Site, Out, Sector{Dim: 1, QN: QN{0}}, Sector{Dim: 1, QN: QN{1}})
	v := NewQIndex("v", Link, In, Sector{Dim: 1, QN: QN{0}}, Sector{Dim: 1, QN: QN{1}})
	a := NewQTensor(QN{}, u, v)
	a.SetBlock(1, 1, []float64{2})
	a.SetBlock(0, 0, []float64{1})
	if bs := a.Blocks(); len(bs) != 2 || bs[0].I1 != 0 || bs[1].I1 != 1 {
		t.Fatalf("%v", bs)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("no panic")
		}
	}()
	a.SetBlock(0, 1, []float64{1})
}

func TestQSVDRank2Ties(t *testing.T) {
	t.Parallel()
	tests := []struct {
		values []float64
		maxm   int
		qns    []QN
	}{
		{values: []float64{1, 1}, maxm: 1, qns: []QN{{0}}},
		{values: []float64{2, 1, 1}, maxm: 2, qns: []QN{{0}, {1}}},
		{values: []float64{1, 1, 1}, maxm: 2, qns: []QN{{0}, {1}}},
		{values: []float64{1, 3, 1}, maxm: 2, qns: []QN{{0}, {1}}},
		{values: []float64{3, 2, 2}, maxm: 3, qns: []QN{{0}, {1}, {2}}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %d", test.values, test.maxm), func(t *testing.T) {
			t.Parallel()
			secs := make([]Sector, 0, len(test.values))
			for i := range test.values {
				secs = append(secs, Sector{Dim: 1, QN: QN{i}})
			}
			u := NewQIndex("u", Site, Out, secs...)
			v := NewQIndex("v", Link, In, secs...)
			a := NewQTensor(QN{}, u, v)
			for i, x := range test.values {
				a.SetBlock(i, i, []float64{x})
			}

			U, D, V, spec, err := QSVDRank2(a, u, v, NewArgs().Add("Maxm", test.maxm))
			if err != nil {
				t.Fatalf("%+v", err)
			}
			L := D.Index(0)
			want := min(test.maxm, len(test.values))
			if L.Dim() != want || spec.NumEigsKept() != want {
				t.Fatalf("%d %d %d", L.Dim(), spec.NumEigsKept(), want)
			}
			var qns []QN
			for s := range L.NumSectors() {
				qns = append(qns, L.QN(s))
			}
			if !slices.Equal(qns, test.qns) {
				t.Fatalf("%v %v", qns, test.qns)
			}

			// The truncation error is the weight actually discarded.
			usv := ContractAll(U.ToDense(), D.ToDense(), V.ToDense()).Permute(u.Index, v.Index)
			diff := Sub(usv, a.ToDense()).Norm()
			if math.Abs(diff*diff-spec.Truncerr()) > 1e-12 {
				t.Fatalf("%g %g", diff*diff, spec.Truncerr())
			}
		})
	}
}
