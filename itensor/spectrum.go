package itensor

import (
	"slices"
)

// Spectrum is the outcome of a decomposition: the kept density matrix eigenvalues in descending order, and the truncation error.
type Spectrum struct {
	eigs     []float64
	truncerr float64
}

func NewSpectrum(eigs []float64, truncerr float64) Spectrum {
	return Spectrum{eigs: slices.Clone(eigs), truncerr: truncerr}
}

// EigsKept returns a copy of the kept eigenvalues.
func (s Spectrum) EigsKept() []float64 { return slices.Clone(s.eigs) }
func (s Spectrum) NumEigsKept() int    { return len(s.eigs) }
func (s Spectrum) Truncerr() float64   { return s.truncerr }
