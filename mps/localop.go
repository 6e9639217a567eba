package mps

import (
	"fmt"

	"github.com/fumin/tnet/itensor"
)

// Direction is the side from which a sweep approaches a bond.
type Direction int

const (
	FromLeft Direction = iota
	FromRight
)

// LocalOp is an operator projected into the reduced Hilbert space of one or two sites of an MPS:
//
//	.-              -.
//	|    |      |    |
//	L - Op1 -- Op2 - R
//	|    |      |    |
//	'-              -'
//
// L and R may be nil, in which case they are not used.
// LocalOp borrows its tensors: the caller owns them and must keep them unmodified until the next Update.
type LocalOp struct {
	op1 *itensor.Tensor
	op2 *itensor.Tensor
	l   *itensor.Tensor
	r   *itensor.Tensor
	nc  int

	size struct {
		n  int
		ok bool
	}
}

// NewLocalOp returns a null LocalOp.
func NewLocalOp() *LocalOp {
	return &LocalOp{}
}

func NewLocalOp1(op1 *itensor.Tensor) *LocalOp {
	lop := &LocalOp{}
	lop.Update1(op1)
	return lop
}

func NewLocalOp2(op1, op2 *itensor.Tensor) *LocalOp {
	lop := &LocalOp{}
	lop.Update2(op1, op2)
	return lop
}

func NewLocalOp1LR(op1, l, r *itensor.Tensor) *LocalOp {
	lop := &LocalOp{}
	lop.Update1LR(op1, l, r)
	return lop
}

func NewLocalOp2LR(op1, op2, l, r *itensor.Tensor) *LocalOp {
	lop := &LocalOp{}
	lop.Update2LR(op1, op2, l, r)
	return lop
}

// Update1 makes lop the one site operator op1.
func (lop *LocalOp) Update1(op1 *itensor.Tensor) {
	lop.op1, lop.op2, lop.l, lop.r = op1, nil, nil, nil
	lop.nc = 1
	lop.size.ok = false
}

// Update2 makes lop the two site operator op1·op2.
func (lop *LocalOp) Update2(op1, op2 *itensor.Tensor) {
	lop.op1, lop.op2, lop.l, lop.r = op1, op2, nil, nil
	lop.nc = 2
	lop.size.ok = false
}

func (lop *LocalOp) Update1LR(op1, l, r *itensor.Tensor) {
	lop.Update1(op1)
	lop.l, lop.r = l, r
}

func (lop *LocalOp) Update2LR(op1, op2, l, r *itensor.Tensor) {
	lop.Update2(op1, op2)
	lop.l, lop.r = l, r
}

// UpdateLR replaces the environments only, after which Product applies no site operator.
func (lop *LocalOp) UpdateLR(l, r *itensor.Tensor) {
	lop.l, lop.r = l, r
	lop.nc = 0
	lop.size.ok = false
}

// Valid reports whether lop has been given an operator.
func (lop *LocalOp) Valid() bool { return lop.op1 != nil }

func (lop *LocalOp) LIsNull() bool { return !lop.l.Valid() }
func (lop *LocalOp) RIsNull() bool { return !lop.r.Valid() }

func (lop *LocalOp) Op1() *itensor.Tensor { return lop.get(lop.op1, "Op1") }
func (lop *LocalOp) Op2() *itensor.Tensor { return lop.get(lop.op2, "Op2") }
func (lop *LocalOp) L() *itensor.Tensor   { return lop.get(lop.l, "L") }
func (lop *LocalOp) R() *itensor.Tensor   { return lop.get(lop.r, "R") }

func (lop *LocalOp) get(t *itensor.Tensor, name string) *itensor.Tensor {
	if !lop.Valid() {
		panic("LocalOp is null")
	}
	if t == nil {
		panic(fmt.Sprintf("LocalOp has no %s", name))
	}
	return t
}

func (lop *LocalOp) NumCenter() int { return lop.nc }

// SetNumCenter sets the number of center sites, which must be 1 or 2.
func (lop *LocalOp) SetNumCenter(n int) {
	if n < 1 || n > 2 {
		panic(fmt.Sprintf("numCenter must be 1 or 2, got %d", n))
	}
	lop.nc = n
	lop.size.ok = false
}

// applyOps multiplies phi by the site operators.
func (lop *LocalOp) applyOps(phi *itensor.Tensor) *itensor.Tensor {
	switch lop.nc {
	case 1:
		phi = phi.Contract(lop.op1)
	case 2:
		phi = phi.Contract(lop.op2).Contract(lop.op1)
	}
	return phi
}

// Product returns lop applied to phi, with prime levels restored to 0.
func (lop *LocalOp) Product(phi *itensor.Tensor) *itensor.Tensor {
	if !lop.Valid() {
		panic("LocalOp is null")
	}
	var phip *itensor.Tensor
	switch {
	case lop.LIsNull():
		phip = phi
		if !lop.RIsNull() {
			phip = phip.Contract(lop.r)
		}
		phip = lop.applyOps(phip)
	default:
		phip = lop.applyOps(phi.Contract(lop.l))
		if !lop.RIsNull() {
			phip = phip.Contract(lop.r)
		}
	}
	return phip.MapPrime(1, 0)
}

// Expect returns <phi|lop|phi>.
func (lop *LocalOp) Expect(phi *itensor.Tensor) float64 {
	phip := lop.Product(phi)
	return real(itensor.Contract(phip.Dag(), phi).CplxElt())
}

// DeltaRho returns the correction to the density matrix of AA over the combined index of combine, as in the noise term of White's density matrix perturbation.
// dir selects the environment and site operator on the side being truncated.
func (lop *LocalOp) DeltaRho(AA, combine *itensor.Tensor, dir Direction) *itensor.Tensor {
	if !lop.Valid() {
		panic("LocalOp is null")
	}
	drho := AA
	switch dir {
	case FromLeft:
		if !lop.LIsNull() {
			drho = drho.Contract(lop.l)
		}
		drho = drho.Contract(lop.Op1())
	default:
		if !lop.RIsNull() {
			drho = drho.Contract(lop.r)
		}
		drho = drho.Contract(lop.Op2())
	}
	drho = itensor.Contract(combine, drho.NoPrime())
	ci, ok := itensor.CommonIndex(combine, drho)
	if !ok {
		panic(fmt.Sprintf("%s %s", combine, drho))
	}
	drho = drho.Contract(drho.PrimeIndex(ci, 1).Dag())

	// Ensure drho is Hermitian.
	drho = itensor.Add(drho, drho.SwapPrime(0, 1).Dag())
	return drho.Mul(0.5)
}

// Diag returns the diagonal of lop as a tensor over the unprimed indices of phi.
func (lop *LocalOp) Diag() *itensor.Tensor {
	if !lop.Valid() {
		panic("LocalOp is null")
	}

	var diag *itensor.Tensor
	switch lop.nc {
	case 2:
		diag = siteDiag(lop.op1).Contract(siteDiag(lop.op2))
	case 1:
		diag = siteDiag(lop.op1)
	}
	for _, env := range []*itensor.Tensor{lop.l, lop.r} {
		if !env.Valid() {
			continue
		}
		envDiag := env
		if i, ok := findIndPair(env); ok {
			envDiag = env.Contract(itensor.Delta(i, i.Prime(1), i.Prime(2))).NoPrime()
		}
		switch {
		case diag == nil:
			diag = envDiag
		default:
			diag = diag.Contract(envDiag)
		}
	}

	// Diag is real since lop is Hermitian.
	return diag.Dag().TakeReal()
}

// siteDiag ties the site index of op with its prime.
func siteDiag(op *itensor.Tensor) *itensor.Tensor {
	s, ok := op.FindIndex(itensor.Site, 0)
	if !ok {
		panic(fmt.Sprintf("%s", op))
	}
	return op.Contract(itensor.Delta(s, s.Prime(1), s.Prime(2))).NoPrime()
}

// findIndPair returns an unprimed index of t whose prime is also in t.
func findIndPair(t *itensor.Tensor) (itensor.Index, bool) {
	for _, i := range t.Inds() {
		if i.PrimeLevel() == 0 && t.HasIndex(i.Prime(1)) {
			return i, true
		}
	}
	return itensor.Index{}, false
}

// Size returns the linear size of lop as a square matrix.
func (lop *LocalOp) Size() int {
	if !lop.Valid() {
		panic("LocalOp is null")
	}
	if lop.size.ok {
		return lop.size.n
	}

	n := 1
	for _, env := range []*itensor.Tensor{lop.l, lop.r} {
		if !env.Valid() {
			continue
		}
		for _, i := range env.Inds() {
			if i.PrimeLevel() > 0 {
				n *= i.Dim()
				break
			}
		}
	}
	switch lop.nc {
	case 2:
		n *= siteDim(lop.op1) * siteDim(lop.op2)
	case 1:
		n *= siteDim(lop.op1)
	}

	lop.size.n, lop.size.ok = n, true
	return n
}

func siteDim(op *itensor.Tensor) int {
	s, ok := op.FindIndex(itensor.Site, 0)
	if !ok {
		panic(fmt.Sprintf("%s", op))
	}
	return s.Dim()
}
