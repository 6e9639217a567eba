package itensor

import (
	"fmt"
	"strings"
)

// maxQNs is the number of independent charges a QN can carry.
const maxQNs = 4

// QN is a vector of conserved charges, for example {2·Sz, N}.
type QN [maxQNs]int

func (q QN) Add(p QN) QN {
	for i := range q {
		q[i] += p[i]
	}
	return q
}

func (q QN) Sub(p QN) QN {
	for i := range q {
		q[i] -= p[i]
	}
	return q
}

func (q QN) Mul(n int) QN {
	for i := range q {
		q[i] *= n
	}
	return q
}

func (q QN) String() string {
	ss := make([]string, 0, len(q))
	for _, v := range q {
		ss = append(ss, fmt.Sprintf("%d", v))
	}
	return "QN(" + strings.Join(ss, ",") + ")"
}

// Arrow is the flow direction of a QIndex.
type Arrow int

const (
	In  Arrow = -1
	Out Arrow = 1
)

func (a Arrow) Flip() Arrow { return -a }

// Sector is a block of a QIndex carrying a single QN.
type Sector struct {
	Dim int
	QN  QN
}

// QIndex is an Index partitioned into quantum number sectors.
// Its dimension is the sum of the sector dimensions.
type QIndex struct {
	Index
	sectors []Sector
	dir     Arrow
}

// NewQIndex returns a QIndex with a fresh identity.
func NewQIndex(name string, typ IndexType, dir Arrow, sectors ...Sector) QIndex {
	dim := 0
	for _, s := range sectors {
		dim += s.Dim
	}
	return QIndex{Index: NewIndex(name, dim, typ), sectors: sectors, dir: dir}
}

func (q QIndex) Dir() Arrow          { return q.dir }
func (q QIndex) NumSectors() int     { return len(q.sectors) }
func (q QIndex) Sector(i int) Sector { return q.sectors[i] }
func (q QIndex) QN(i int) QN         { return q.sectors[i].QN }

// Dag returns q with its arrow reversed.
func (q QIndex) Dag() QIndex {
	q.dir = q.dir.Flip()
	return q
}

func (q QIndex) Prime(n int) QIndex {
	q.Index = q.Index.Prime(n)
	return q
}

// Equal reports whether q and p are the same axis, ignoring arrows.
func (q QIndex) Equal(p QIndex) bool {
	return q.Index == p.Index
}

// offset returns the position of the first element of sector i.
func (q QIndex) offset(i int) int {
	off := 0
	for _, s := range q.sectors[:i] {
		off += s.Dim
	}
	return off
}

func (q QIndex) String() string {
	ss := make([]string, 0, len(q.sectors))
	for _, s := range q.sectors {
		ss = append(ss, fmt.Sprintf("%s:%d", s.QN, s.Dim))
	}
	return fmt.Sprintf("%s<%d>[%s]", q.Index, q.dir, strings.Join(ss, " "))
}
