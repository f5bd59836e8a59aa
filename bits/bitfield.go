package bits

import (
	"math/bits"

	"github.com/dot5enko/segquery/schema"
)

// Bitfield is the match mask of one block, bit i stands for doc base+i
type Bitfield [schema.BlockRowsSize / 64]uint64

// Words returns the number of words that cover rows
func Words(rows int) int {
	return (rows + 63) >> 6
}

// Fill sets the first rows bits and clears the rest
func (b *Bitfield) Fill(rows int) {
	full := rows >> 6
	for i := 0; i < full; i++ {
		b[i] = ^uint64(0)
	}
	clear(b[full:])
	if rem := rows & 63; rem != 0 {
		b[full] = (uint64(1) << rem) - 1
	}
}

// And keeps only the bits also set in other, returns the remaining count
func (b *Bitfield) And(other *Bitfield, rows int) int {
	c := 0
	for i := range Words(rows) {
		b[i] &= other[i]
		c += bits.OnesCount64(b[i])
	}
	return c
}

// AppendDocIds appends base+i for every set bit i, ascending
func (b *Bitfield) AppendDocIds(base uint32, out []uint32) []uint32 {
	for wi, w := range b {
		if w == 0 {
			continue
		}
		wordBase := base + uint32(wi<<6)
		for w != 0 {
			out = append(out, wordBase+uint32(bits.TrailingZeros64(w)))
			w &= w - 1
		}
	}
	return out
}
