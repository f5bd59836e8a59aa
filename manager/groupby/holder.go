package groupby

import (
	"encoding/binary"
	"slices"

	"github.com/spaolacci/murmur3"
)

// DenseGroups maps small packed keys through a slot array
type DenseGroups struct {
	slots []int32
	keys  []uint64
}

func NewDenseGroups(totalBits int) *DenseGroups {
	slots := make([]int32, 1<<totalBits)
	for i := range slots {
		slots[i] = -1
	}
	return &DenseGroups{slots: slots}
}

func (g *DenseGroups) GroupId(key uint64) int32 {
	if id := g.slots[key]; id >= 0 {
		return id
	}

	id := int32(len(g.keys))
	g.slots[key] = id
	g.keys = append(g.keys, key)

	return id
}

func (g *DenseGroups) Len() int {
	return len(g.keys)
}

func (g *DenseGroups) Key(group int32) uint64 {
	return g.keys[group]
}

// MapGroups holds packed keys too sparse for a slot array
type MapGroups struct {
	ids  map[uint64]int32
	keys []uint64
}

func NewMapGroups() *MapGroups {
	return &MapGroups{ids: map[uint64]int32{}}
}

func (g *MapGroups) GroupId(key uint64) int32 {
	if id, ok := g.ids[key]; ok {
		return id
	}

	id := int32(len(g.keys))
	g.ids[key] = id
	g.keys = append(g.keys, key)

	return id
}

func (g *MapGroups) Len() int {
	return len(g.keys)
}

func (g *MapGroups) Key(group int32) uint64 {
	return g.keys[group]
}

// CompositeGroups keys groups by id tuples. Tuples are hashed with murmur3,
// collisions are resolved by comparing the stored tuples.
type CompositeGroups struct {
	arity   int
	buckets map[uint64][]int32
	tuples  []uint32

	scratch []byte
}

func NewCompositeGroups(arity int) *CompositeGroups {
	return &CompositeGroups{
		arity:   arity,
		buckets: map[uint64][]int32{},
		scratch: make([]byte, arity*4),
	}
}

func (g *CompositeGroups) hash(ids []uint32) uint64 {
	for idx, id := range ids {
		binary.LittleEndian.PutUint32(g.scratch[idx*4:], id)
	}
	return murmur3.Sum64(g.scratch)
}

func (g *CompositeGroups) GroupId(ids []uint32) int32 {

	h := g.hash(ids)
	bucket := g.buckets[h]

	for _, id := range bucket {
		if slices.Equal(g.Tuple(id), ids) {
			return id
		}
	}

	id := int32(g.Len())
	g.tuples = append(g.tuples, ids...)
	g.buckets[h] = append(bucket, id)

	return id
}

func (g *CompositeGroups) Len() int {
	if g.arity == 0 {
		return 0
	}
	return len(g.tuples) / g.arity
}

// Tuple returns the ids of a group, the slice aliases internal storage
func (g *CompositeGroups) Tuple(group int32) []uint32 {
	from := int(group) * g.arity
	return g.tuples[from : from+g.arity]
}
