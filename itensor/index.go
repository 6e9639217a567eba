package itensor

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IndexType classifies an Index.
type IndexType int

const (
	All IndexType = iota
	Link
	Site
)

func (t IndexType) String() string {
	switch t {
	case Link:
		return "Link"
	case Site:
		return "Site"
	default:
		return "All"
	}
}

// Index is a named, dimensioned tensor axis.
// Two indices are the same axis if they share an identity and a prime level.
// Copies of an Index share its identity, so Index values compare with ==.
type Index struct {
	id    uuid.UUID
	name  string
	dim   int
	typ   IndexType
	prime int
}

// NewIndex returns an Index with a fresh identity and prime level 0.
func NewIndex(name string, dim int, typ IndexType) Index {
	if dim < 0 {
		panic(fmt.Sprintf("%s %d", name, dim))
	}
	return Index{id: uuid.New(), name: name, dim: dim, typ: typ}
}

func (i Index) Name() string        { return i.name }
func (i Index) Dim() int            { return i.dim }
func (i Index) Type() IndexType     { return i.typ }
func (i Index) PrimeLevel() int     { return i.prime }
func (i Index) Valid() bool         { return i.id != uuid.Nil }
func (i Index) SameID(j Index) bool { return i.id == j.id }

// Prime returns i with its prime level increased by n.
func (i Index) Prime(n int) Index {
	i.prime += n
	if i.prime < 0 {
		panic(fmt.Sprintf("negative prime level %s", i))
	}
	return i
}

func (i Index) SetPrime(n int) Index {
	i.prime = n
	return i
}

func (i Index) NoPrime() Index {
	i.prime = 0
	return i
}

func (i Index) String() string {
	return fmt.Sprintf("(%s,%d,%s)%s", i.name, i.dim, i.typ, strings.Repeat("'", i.prime))
}

func dimProduct(is []Index) int {
	d := 1
	for _, i := range is {
		d *= i.dim
	}
	return d
}
