package lists

import (
	"github.com/dot5enko/segquery/bits"
)

// BlockAnd intersects the condition masks of one block. Conditions that
// matched nothing or everything never touch a mask.
type BlockAnd struct {
	rows    int
	matched int
	partial bool

	acc, scratch *bits.Bitfield
	buffers      [2]bits.Bitfield
}

func NewBlockAnd() *BlockAnd {
	b := &BlockAnd{}
	b.acc, b.scratch = &b.buffers[0], &b.buffers[1]
	return b
}

// Reset starts a block of rows rows, all of them matching
func (b *BlockAnd) Reset(rows int) {
	b.rows = rows
	b.matched = rows
	b.partial = false
}

// Scratch is the mask the next condition writes into
func (b *BlockAnd) Scratch() *bits.Bitfield {
	return b.scratch
}

// With folds in a condition that matched n rows of the block
func (b *BlockAnd) With(n int) {
	switch {
	case b.matched == 0 || n == b.rows:
	case n == 0:
		b.matched = 0
	case !b.partial:
		b.acc, b.scratch = b.scratch, b.acc
		b.matched = n
		b.partial = true
	default:
		b.matched = b.acc.And(b.scratch, b.rows)
	}
}

func (b *BlockAnd) Empty() bool {
	return b.matched == 0
}

func (b *BlockAnd) Full() bool {
	return !b.partial && b.matched > 0
}

// AppendDocIds appends segment doc ids of the matching rows, base is the block's first doc
func (b *BlockAnd) AppendDocIds(base uint32, out []uint32) []uint32 {
	switch {
	case b.matched == 0:
		return out
	case !b.partial:
		b.acc.Fill(b.rows)
	}
	return b.acc.AppendDocIds(base, out)
}
