package ops

import (
	mbits "math/bits"

	"github.com/dot5enko/segquery/bits"
)

// Every kernel takes the values of one block and sets bit i of dst when
// values[i] passes. Words past the block are cleared, the return value is
// the number of passing rows.

type predicate[T any] interface {
	test(v T) bool
}

func mask[T any, P predicate[T]](values []T, p P, dst *bits.Bitfield) int {

	matched := 0
	words := bits.Words(len(values))

	for w := 0; w < words; w++ {
		chunk := values[w<<6 : min(w<<6+64, len(values))]

		var word uint64
		for i, v := range chunk {
			word |= b2u(p.test(v)) << i
		}

		dst[w] = word
		matched += mbits.OnesCount64(word)
	}

	clear(dst[words:])

	return matched
}

type equal[T NumericTypes] struct{ v T }

func (p equal[T]) test(x T) bool { return x == p.v }

type notEqual[T NumericTypes] struct{ v T }

func (p notEqual[T]) test(x T) bool { return x != p.v }

type greater[T NumericTypes] struct{ v T }

func (p greater[T]) test(x T) bool { return x > p.v }

type less[T NumericTypes] struct{ v T }

func (p less[T]) test(x T) bool { return x < p.v }

type between[T NumericTypes] struct{ lo, hi T }

func (p between[T]) test(x T) bool { return x >= p.lo && x < p.hi }

// idWindow relies on wraparound, ids below lo turn into huge offsets
type idWindow struct{ lo, width uint32 }

func (p idWindow) test(id uint32) bool { return id-p.lo < p.width }

type idSet []bool

func (p idSet) test(id uint32) bool { return p[id] }

type testFunc[T any] func(T) bool

func (p testFunc[T]) test(x T) bool { return p(x) }

func Equal[T NumericTypes](values []T, v T, dst *bits.Bitfield) int {
	return mask(values, equal[T]{v}, dst)
}

func NotEqual[T NumericTypes](values []T, v T, dst *bits.Bitfield) int {
	return mask(values, notEqual[T]{v}, dst)
}

func Greater[T NumericTypes](values []T, v T, dst *bits.Bitfield) int {
	return mask(values, greater[T]{v}, dst)
}

func Less[T NumericTypes](values []T, v T, dst *bits.Bitfield) int {
	return mask(values, less[T]{v}, dst)
}

// InRange matches lo <= v < hi
func InRange[T NumericTypes](values []T, lo, hi T, dst *bits.Bitfield) int {
	if hi <= lo {
		clear(dst[:])
		return 0
	}
	return mask(values, between[T]{lo, hi}, dst)
}

// InIdRange matches dictionary ids in [lo, hi)
func InIdRange(ids []uint32, lo, hi uint32, dst *bits.Bitfield) int {
	if hi <= lo {
		clear(dst[:])
		return 0
	}
	return mask(ids, idWindow{lo: lo, width: hi - lo}, dst)
}

// InIdSet matches ids flagged in set, set is indexed by dictionary id
func InIdSet(ids []uint32, set []bool, dst *bits.Bitfield) int {
	return mask(ids, idSet(set), dst)
}

// Matching covers value types the typed kernels don't, strings
func Matching[T any](values []T, test func(T) bool, dst *bits.Bitfield) int {
	return mask(values, testFunc[T](test), dst)
}
