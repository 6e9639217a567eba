// Package exactdiag diagonalizes small transverse field Ising lattices exactly, as a reference for the MPS solvers.
package exactdiag

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	identity = mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	pauliX   = mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	pauliZ   = mat.NewDense(2, 2, []float64{1, 0, 0, -1})
)

// TransverseFieldIsing returns the Hamiltonian -Σ_<ij> Z_i Z_j - h Σ_i X_i of an n[0]×n[1] lattice with open boundaries.
// Spins are ordered row-major, with the first spin as the most significant bit of the basis states.
func TransverseFieldIsing(n [2]int, h float64) *mat.SymDense {
	numSpins := n[0] * n[1]
	hamiltonian := mat.NewDense(1<<numSpins, 1<<numSpins, nil)
	for y := range n[0] {
		for x := range n[1] {
			if up := y - 1; up >= 0 {
				coupling(hamiltonian, n, [2]int{up, x}, [2]int{y, x})
			}
			if left := x - 1; left >= 0 {
				coupling(hamiltonian, n, [2]int{y, left}, [2]int{y, x})
			}
			magnetic(hamiltonian, n, [2]int{y, x}, h)
		}
	}

	d := 1 << numSpins
	sym := mat.NewSymDense(d, nil)
	for i := range d {
		for j := i; j < d; j++ {
			sym.SetSym(i, j, hamiltonian.At(i, j))
		}
	}
	return sym
}

func coupling(hamiltonian *mat.Dense, n [2]int, i, j [2]int) {
	system := kron(n, func(yx [2]int) mat.Matrix {
		if yx == i || yx == j {
			return pauliZ
		}
		return identity
	})
	system.Scale(-1, system)
	hamiltonian.Add(hamiltonian, system)
}

func magnetic(hamiltonian *mat.Dense, n [2]int, i [2]int, h float64) {
	system := kron(n, func(yx [2]int) mat.Matrix {
		if yx == i {
			return pauliX
		}
		return identity
	})
	system.Scale(-h, system)
	hamiltonian.Add(hamiltonian, system)
}

// kron returns the Kronecker product over the lattice of the single spin operators op.
func kron(n [2]int, op func([2]int) mat.Matrix) *mat.Dense {
	system := mat.NewDense(1, 1, []float64{1})
	for y := range n[0] {
		for x := range n[1] {
			var next mat.Dense
			next.Kronecker(system, op([2]int{y, x}))
			system = &next
		}
	}
	return system
}

// Eigen returns the eigenvalues of hamiltonian in ascending order, and the eigenvectors as columns.
func Eigen(hamiltonian mat.Symmetric) ([]float64, *mat.Dense, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(hamiltonian, true); !ok {
		return nil, nil, errors.Errorf("%d", hamiltonian.SymmetricDim())
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	return eig.Values(nil), &vecs, nil
}

// GroundState returns the lowest eigenvalue and its eigenvector.
func GroundState(hamiltonian mat.Symmetric) (float64, []float64, error) {
	vals, vecs, err := Eigen(hamiltonian)
	if err != nil {
		return 0, nil, errors.Wrap(err, "")
	}
	return floats.Min(vals), mat.Col(nil, floats.MinIdx(vals), vecs), nil
}

// Magnetization returns sqrt(<M^2>)/N of state, where M = Σ Z_i over numSpins spins.
func Magnetization(state []float64, numSpins int) float64 {
	var m2 float64
	for i, v := range state {
		// The magnetization of a basis state is the number of up spins minus the number of down spins.
		var m int
		for k := range numSpins {
			switch (i >> k) & 1 {
			case 0:
				m++
			default:
				m--
			}
		}
		m2 += v * v * float64(m*m)
	}
	return math.Sqrt(m2/floats.Dot(state, state)) / float64(numSpins)
}
