package groupby

import (
	"fmt"
	"math/bits"
)

type Strategy byte

const (
	// every group column is dictionary encoded and the ids fit into one uint64
	PackedIntegerKey Strategy = iota
	// dictionary ids that do not fit, keys are id tuples
	CompositeKey
	// at least one column without a dictionary, ids come from a ValueToIdMap
	DynamicIdMap
)

func (s Strategy) String() string {
	switch s {
	case PackedIntegerKey:
		return "packed-integer-key"
	case CompositeKey:
		return "composite-key"
	case DynamicIdMap:
		return "dynamic-id-map"
	default:
		panic(fmt.Sprintf("unknown group by strategy %d", s))
	}
}

// MaxPackedBits is the widest key the packed strategy handles
const MaxPackedBits = 64

// BitWidth is the number of bits a column with the given cardinality
// takes in a packed key: enough for every id plus one guard bit
func BitWidth(cardinality int) int {
	return bits.Len64(uint64(max(cardinality-1, 1))) + 1
}

func TotalBitWidth(cardinalities []int) int {
	total := 0
	for _, c := range cardinalities {
		total += BitWidth(c)
	}
	return total
}

// SelectStrategy maps segment capabilities to a key space strategy.
// cardinalities are only meaningful when every column has a dictionary.
func SelectStrategy(segmentDictionaryBased, allColumnsHaveDictionary bool, cardinalities []int) Strategy {

	if !segmentDictionaryBased || !allColumnsHaveDictionary {
		return DynamicIdMap
	}

	if TotalBitWidth(cardinalities) <= MaxPackedBits {
		return PackedIntegerKey
	}

	return CompositeKey
}
