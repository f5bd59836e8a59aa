package groupby

import (
	"errors"
	"fmt"
)

var ErrKeyTooWide = errors.New("group key does not fit into 64 bits")

// InvariantViolation is panicked when an internal contract is broken,
// for example an id that does not fit the width computed for its column
type InvariantViolation struct {
	Message string
}

func (e InvariantViolation) Error() string {
	return "invariant violation: " + e.Message
}

// KeyPacker packs per column dictionary ids into a single uint64, the
// leftmost declared column takes the most significant bits
type KeyPacker struct {
	widths []uint8
	shifts []uint8
	total  int
}

func NewKeyPacker(cardinalities []int) (*KeyPacker, error) {

	p := &KeyPacker{
		widths: make([]uint8, len(cardinalities)),
		shifts: make([]uint8, len(cardinalities)),
	}

	for idx, card := range cardinalities {
		p.widths[idx] = uint8(BitWidth(card))
		p.total += int(p.widths[idx])
	}

	if p.total > MaxPackedBits {
		return nil, fmt.Errorf("%d bits for %d columns: %w", p.total, len(cardinalities), ErrKeyTooWide)
	}

	shift := 0
	for idx := len(p.widths) - 1; idx >= 0; idx-- {
		p.shifts[idx] = uint8(shift)
		shift += int(p.widths[idx])
	}

	return p, nil
}

func (p *KeyPacker) Columns() int {
	return len(p.widths)
}

func (p *KeyPacker) TotalBits() int {
	return p.total
}

func (p *KeyPacker) Width(column int) int {
	return int(p.widths[column])
}

// Pack panics with InvariantViolation when an id exceeds its column width
func (p *KeyPacker) Pack(ids []uint32) uint64 {

	var key uint64

	for idx, id := range ids {
		if uint64(id)>>p.widths[idx] != 0 {
			panic(InvariantViolation{Message: fmt.Sprintf("id %d of group column %d exceeds %d bits", id, idx, p.widths[idx])})
		}
		key |= uint64(id) << p.shifts[idx]
	}

	return key
}

// Unpack is the exact inverse of Pack, out must hold Columns() ids
func (p *KeyPacker) Unpack(key uint64, out []uint32) {
	for idx := range p.widths {
		mask := uint64(1)<<p.widths[idx] - 1
		out[idx] = uint32((key >> p.shifts[idx]) & mask)
	}
}
