package itensor

import (
	"fmt"
	"log"
	"math"
	"strings"
)

// truncate decides how many of the descending weights p to keep.
// Trailing negative weights are zeroed in place without counting as truncation error.
// It returns the truncation error, the number of kept weights m, and a threshold docut lying between the last kept and the first discarded weight.
// docut is -1 if nothing was discarded.
func truncate(p []float64, maxm, minm int, cutoff float64, absoluteCutoff, doRelCutoff bool) (truncerr float64, m int, docut float64) {
	origm := len(p)
	m, docut = origm, -1
	if m == 0 {
		return 0, 0, docut
	}
	if m == 1 {
		return 0, 1, p[0] / 2
	}

	// Zero out any negative weight.
	for zerom := m - 1; zerom >= 0; zerom-- {
		if p[zerom] >= 0 {
			break
		}
		p[zerom] = 0
	}

	switch {
	case absoluteCutoff:
		// Always truncate at least to m == maxm.
		for ; m > maxm; m-- {
			truncerr += p[m-1]
		}
		// Continue truncating until the absolute cutoff is reached, or m == minm.
		for ; m > minm && p[m-1] < cutoff; m-- {
			truncerr += p[m-1]
		}
	default:
		scale := 1.0
		if doRelCutoff {
			scale = p[0]
		}
		for ; m > maxm; m-- {
			truncerr += p[m-1]
		}
		for ; m > minm && truncerr+p[m-1] < cutoff*scale; m-- {
			truncerr += p[m-1]
		}
		if p[0] != 0 {
			truncerr /= scale
		}
	}

	m = max(m, 1)
	if m < origm {
		docut = (p[m]+p[m-1])/2 - 1e-5*p[m]
	}
	return truncerr, m, docut
}

// trimTies lowers keep until the kept counts add up to at most m.
// weights[b] holds the weights of block b in descending order, and only states tied with the smallest kept weight cut are dropped.
// Blocks are trimmed from their tails starting with the last block, so earlier blocks keep their states.
func trimTies(keep []int, weights [][]float64, m int, cut float64) {
	total := 0
	for _, k := range keep {
		total += k
	}
	for b := len(keep) - 1; b >= 0; b-- {
		for total > m && keep[b] > 0 && weights[b][keep[b]-1] <= cut {
			keep[b]--
			total--
		}
	}
}

// showEigs logs the kept density matrix eigenvalues p, which do not include scale.
func showEigs(p []float64, truncerr float64, scale LogNumber, tp truncParams) {
	log.Printf("minm = %d, maxm = %d, cutoff = %.2E, truncate = %t", tp.minm, tp.maxm, tp.cutoff, tp.truncate)
	log.Printf("Kept m=%d states, trunc. err. = %.3E", len(p), truncerr)
	log.Printf("doRelCutoff = %t, absoluteCutoff = %t", tp.doRelCutoff, tp.absoluteCutoff)
	sign := ""
	if scale.Sign() < 0 {
		sign = "-"
	}
	log.Printf("Scale is = %sexp(%.2f)", sign, scale.LogNum())
	if len(p) == 0 {
		return
	}

	ps := make([]float64, min(10, len(p)))
	copy(ps, p)
	prefix := fmt.Sprintf("Denmat evals (not including log(scale) = %.2f): ", scale.LogNum())
	orderMag := math.Log(math.Abs(p[0])) + scale.LogNum()
	if math.Abs(orderMag) < 5 && scale.IsFiniteReal() {
		s := scale.Real0()
		for i := range ps {
			ps[i] *= s * s
		}
		prefix = "Denmat evals: "
	}
	log.Print(prefix + formatEigs(ps))
}

func formatEigs(p []float64) string {
	ss := make([]string, 0, len(p))
	for _, eig := range p {
		switch {
		case eig > 1e-3 && eig < 1000:
			ss = append(ss, fmt.Sprintf("%.3f", eig))
		default:
			ss = append(ss, fmt.Sprintf("%.3E", eig))
		}
	}
	return strings.Join(ss, ", ")
}
