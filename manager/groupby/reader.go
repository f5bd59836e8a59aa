package groupby

import (
	"fmt"

	"github.com/dot5enko/segquery/segment"
)

// ComponentReader produces the per column id of every doc in a batch
type ComponentReader interface {
	Read(docs []uint32, out []uint32)
	// Value decodes an id produced by Read
	Value(id uint32) any
}

type dictionaryReader struct {
	ids  []uint32
	dict segment.Dictionary
}

func (r *dictionaryReader) Read(docs []uint32, out []uint32) {
	for i, doc := range docs {
		out[i] = r.ids[doc]
	}
}

func (r *dictionaryReader) Value(id uint32) any {
	return r.dict.Get(int(id))
}

type idMapReader[T comparable] struct {
	values []T
	ids    *IdMap[T]
}

func (r *idMapReader[T]) Read(docs []uint32, out []uint32) {
	for i, doc := range docs {
		out[i] = r.ids.GetId(r.values[doc])
	}
}

func (r *idMapReader[T]) Value(id uint32) any {
	return r.ids.Value(id)
}

func NewDictionaryReader(col *segment.Column) ComponentReader {
	return &dictionaryReader{ids: col.DictIds(), dict: col.Dictionary()}
}

func newIdMapReader[T comparable](col *segment.Column, ids *IdMap[T]) (ComponentReader, error) {
	values, ok := segment.RawValues[T](col)
	if !ok {
		return nil, fmt.Errorf("column %s storage is %T", col.Name(), col.Raw())
	}
	return &idMapReader[T]{values: values, ids: ids}, nil
}

// NewIdMapReader reads a raw column through the id map built for it
func NewIdMapReader(col *segment.Column, m *ValueToIdMap) (ComponentReader, error) {

	if col.Type() != m.DataType() {
		return nil, fmt.Errorf("column %s is %s, id map is %s", col.Name(), col.Type().String(), m.DataType().String())
	}

	switch {
	case m.ints != nil:
		return newIdMapReader(col, m.ints)
	case m.longs != nil:
		return newIdMapReader(col, m.longs)
	case m.floats != nil:
		return newIdMapReader(col, m.floats)
	case m.doubles != nil:
		return newIdMapReader(col, m.doubles)
	default:
		return newIdMapReader(col, m.strings)
	}
}
