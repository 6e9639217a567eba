package itensor

import (
	"fmt"
	"math"
	"slices"
)

// Block is a dense block of a QTensor between sector I1 of the first index and sector I2 of the second.
// Data is row-major, or the diagonal for diagonal tensors.
type Block struct {
	I1, I2 int
	Data   []float64
}

// QTensor is a rank 2 block-sparse real tensor with conserved quantum numbers.
// A block exists only if dir1·qn1 + dir2·qn2 equals the divergence.
// Blocks are kept in ascending (I1, I2) order.
type QTensor struct {
	is     [2]QIndex
	div    QN
	blocks []*Block
	diag   bool
	scale  LogNumber
}

// NewQTensor returns a QTensor with no blocks.
func NewQTensor(div QN, i1, i2 QIndex) *QTensor {
	return &QTensor{is: [2]QIndex{i1, i2}, div: div, scale: NewLogNumber(1)}
}

// NewQDiagTensor returns a QTensor whose blocks store only their diagonals.
func NewQDiagTensor(div QN, i1, i2 QIndex) *QTensor {
	t := NewQTensor(div, i1, i2)
	t.diag = true
	return t
}

func (t *QTensor) Inds() [2]QIndex    { return t.is }
func (t *QTensor) Index(i int) QIndex { return t.is[i] }
func (t *QTensor) Div() QN            { return t.div }
func (t *QTensor) Scale() LogNumber   { return t.scale }
func (t *QTensor) IsDiag() bool       { return t.diag }
func (t *QTensor) NumBlocks() int     { return len(t.blocks) }

// Allowed reports whether the block between sectors i1 and i2 conserves the divergence.
func (t *QTensor) Allowed(i1, i2 int) bool {
	q := t.is[0].QN(i1).Mul(int(t.is[0].dir)).Add(t.is[1].QN(i2).Mul(int(t.is[1].dir)))
	return q == t.div
}

// SetBlock sets the payload of a block, which t takes ownership of.
func (t *QTensor) SetBlock(i1, i2 int, data []float64) {
	if !t.Allowed(i1, i2) {
		panic(fmt.Sprintf("block %d %d not allowed in %s", i1, i2, t))
	}
	d1, d2 := t.is[0].sectors[i1].Dim, t.is[1].sectors[i2].Dim
	size := d1 * d2
	if t.diag {
		size = min(d1, d2)
	}
	if len(data) != size {
		panic(fmt.Sprintf("%d %d %d %d", i1, i2, len(data), size))
	}

	pos, found := slices.BinarySearchFunc(t.blocks, [2]int{i1, i2}, cmpBlock)
	if found {
		t.blocks[pos].Data = data
		return
	}
	t.blocks = slices.Insert(t.blocks, pos, &Block{I1: i1, I2: i2, Data: data})
}

// Block returns the payload of the block between sectors i1 and i2.
func (t *QTensor) Block(i1, i2 int) ([]float64, bool) {
	pos, found := slices.BinarySearchFunc(t.blocks, [2]int{i1, i2}, cmpBlock)
	if !found {
		return nil, false
	}
	return t.blocks[pos].Data, true
}

// Blocks returns the blocks in ascending (I1, I2) order.
// The payloads are shared with t.
func (t *QTensor) Blocks() []Block {
	bs := make([]Block, 0, len(t.blocks))
	for _, b := range t.blocks {
		bs = append(bs, *b)
	}
	return bs
}

func cmpBlock(b *Block, k [2]int) int {
	if b.I1 != k[0] {
		return b.I1 - k[0]
	}
	return b.I2 - k[1]
}

func (t *QTensor) Clone() *QTensor {
	c := &QTensor{is: t.is, div: t.div, diag: t.diag, scale: t.scale}
	c.blocks = make([]*Block, 0, len(t.blocks))
	for _, b := range t.blocks {
		c.blocks = append(c.blocks, &Block{I1: b.I1, I2: b.I2, Data: slices.Clone(b.Data)})
	}
	return c
}

// Dag returns t with both arrows reversed and the divergence negated.
func (t *QTensor) Dag() *QTensor {
	c := t.Clone()
	c.is = [2]QIndex{t.is[0].Dag(), t.is[1].Dag()}
	c.div = t.div.Mul(-1)
	return c
}

// Mul returns t multiplied by x. Only the scale is modified.
func (t *QTensor) Mul(x float64) *QTensor {
	c := t.Clone()
	c.scale = c.scale.Mul(NewLogNumber(x))
	return c
}

// ScaleTo rewrites the payload so that the scale becomes s.
func (t *QTensor) ScaleTo(s LogNumber) {
	if s.IsZero() {
		panic("scale to zero")
	}
	r := 0.0
	if !t.scale.IsZero() {
		r = t.scale.Div(s).Real()
	}
	for _, b := range t.blocks {
		for i := range b.Data {
			b.Data[i] *= r
		}
	}
	t.scale = s
}

// Norm returns the Frobenius norm including the scale.
func (t *QTensor) Norm() float64 {
	var s float64
	for _, b := range t.blocks {
		for _, v := range b.Data {
			s += v * v
		}
	}
	if s == 0 || t.scale.IsZero() {
		return 0
	}
	return math.Exp(0.5*math.Log(s) + t.scale.logNum)
}

// ToDense returns the equivalent dense tensor over the plain indices of t.
func (t *QTensor) ToDense() *Tensor {
	d := NewTensor(t.is[0].Index, t.is[1].Index)
	d.scale = t.scale
	ncol := t.is[1].dim
	for _, b := range t.blocks {
		r0, c0 := t.is[0].offset(b.I1), t.is[1].offset(b.I2)
		nr, nc := t.is[0].sectors[b.I1].Dim, t.is[1].sectors[b.I2].Dim
		if t.diag {
			for k, v := range b.Data {
				d.re[(r0+k)*ncol+c0+k] = v
			}
			continue
		}
		for i := range nr {
			copy(d.re[(r0+i)*ncol+c0:(r0+i)*ncol+c0+nc], b.Data[i*nc:(i+1)*nc])
		}
	}
	return d
}

func (t *QTensor) String() string {
	return fmt.Sprintf("QTensor{%s %s div=%s blocks=%d scale=%s diag=%t}", t.is[0], t.is[1], t.div, len(t.blocks), t.scale, t.diag)
}
