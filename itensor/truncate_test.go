package itensor

import (
	"fmt"
	"math"
	"slices"
	"testing"
)

func TestTruncate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		p              []float64
		maxm           int
		minm           int
		cutoff         float64
		absoluteCutoff bool
		doRelCutoff    bool

		truncerr float64
		m        int
		docut    float64
	}{
		{
			p:    []float64{100, 25, 0.01, 0.0001},
			maxm: 4, minm: 1, cutoff: 0.001,
			truncerr: 0.0001, m: 3, docut: (0.0001+0.01)/2 - 1e-5*0.0001,
		},
		{
			p:    []float64{100, 25, 0.01, 0.0001},
			maxm: 4, minm: 1, cutoff: 0.001, doRelCutoff: true,
			truncerr: 0.0101 / 100, m: 2, docut: (0.01+25)/2 - 1e-5*0.01,
		},
		{
			p:    []float64{100, 25, 0.01, 0.0001},
			maxm: 4, minm: 1, cutoff: 0.02, absoluteCutoff: true,
			truncerr: 0.0101, m: 2, docut: (0.01+25)/2 - 1e-5*0.01,
		},
		{
			p:    []float64{4, 3, 2, 1},
			maxm: 2, minm: 1, cutoff: 0,
			truncerr: 3, m: 2, docut: (2+3)/2.0 - 1e-5*2,
		},
		{
			p:    []float64{4, 3, 2, 1},
			maxm: 4, minm: 3, cutoff: 100,
			truncerr: 1, m: 3, docut: (1+2)/2.0 - 1e-5*1,
		},
		{
			p:    []float64{4, 3, 2, 1},
			maxm: 4, minm: 4, cutoff: 0,
			truncerr: 0, m: 4, docut: -1,
		},
		{
			p:    []float64{7},
			maxm: 4, minm: 1, cutoff: 100,
			truncerr: 0, m: 1, docut: 3.5,
		},
		{
			p:    []float64{0, 0, 0},
			maxm: 4, minm: 1, cutoff: 1e-15,
			truncerr: 0, m: 1, docut: 0,
		},
		{
			p:    []float64{2, 1, -1e-17, -1e-16},
			maxm: 4, minm: 1, cutoff: 0,
			truncerr: 0, m: 4, docut: -1,
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %d %d %g %t %t", test.p, test.maxm, test.minm, test.cutoff, test.absoluteCutoff, test.doRelCutoff), func(t *testing.T) {
			t.Parallel()
			p := slices.Clone(test.p)
			truncerr, m, docut := truncate(p, test.maxm, test.minm, test.cutoff, test.absoluteCutoff, test.doRelCutoff)
			if m != test.m {
				t.Fatalf("%d %d", m, test.m)
			}
			if math.Abs(truncerr-test.truncerr) > 1e-12 {
				t.Fatalf("%g %g", truncerr, test.truncerr)
			}
			if math.Abs(docut-test.docut) > 1e-12 {
				t.Fatalf("%g %g", docut, test.docut)
			}
			for _, v := range p {
				if v < 0 {
					t.Fatalf("%v", p)
				}
			}
		})
	}
}

func TestTruncateProperties(t *testing.T) {
	t.Parallel()
	p := []float64{0.5, 0.2, 0.1, 0.08, 0.05, 0.03, 0.02, 0.01, 0.005, 0.003, 0.002, 0}
	for _, maxm := range []int{1, 3, 6, 12, 20} {
		for _, minm := range []int{1, 2, 5} {
			for _, cutoff := range []float64{0, 1e-3, 0.01, 0.1, 1} {
				for _, rel := range []bool{false, true} {
					name := fmt.Sprintf("%d %d %g %t", maxm, minm, cutoff, rel)
					w := slices.Clone(p)
					truncerr, m, docut := truncate(w, maxm, minm, cutoff, false, rel)

					if m < min(minm, maxm, len(p)) || m > max(1, min(maxm, len(p))) {
						t.Fatalf("%s m %d", name, m)
					}
					scale := 1.0
					if rel {
						scale = p[0]
					}
					var discarded float64
					for _, v := range p[m:] {
						discarded += v
					}
					if math.Abs(truncerr-discarded/scale) > 1e-12 {
						t.Fatalf("%s %g %g", name, truncerr, discarded/scale)
					}
					if m < len(p) && !(p[m] <= docut && docut < p[m-1]) && p[m] != p[m-1] {
						t.Fatalf("%s %g %v", name, docut, p[m-1:m+1])
					}
				}
			}
		}
	}

	// No truncation returns the weights unchanged.
	w := slices.Clone(p)
	truncerr, m, docut := truncate(w, len(p), len(p), 0, false, false)
	if truncerr != 0 || m != len(p) || docut != -1 || !slices.Equal(w, p) {
		t.Fatalf("%g %d %g %v", truncerr, m, docut, w)
	}
}
