package groupby

import (
	"fmt"

	"github.com/dot5enko/segquery/schema"
)

// IdMap assigns dense ids in first seen order. Not safe for concurrent use.
type IdMap[T comparable] struct {
	ids    map[T]uint32
	values []T

	// NaN never equals itself as a map key, every NaN shares this id
	nanId int64
}

func NewIdMap[T comparable]() *IdMap[T] {
	return &IdMap[T]{ids: map[T]uint32{}, nanId: -1}
}

func (m *IdMap[T]) GetId(value T) uint32 {

	if value != value {
		if m.nanId < 0 {
			m.nanId = int64(len(m.values))
			m.values = append(m.values, value)
		}
		return uint32(m.nanId)
	}

	if id, ok := m.ids[value]; ok {
		return id
	}

	id := uint32(len(m.values))
	m.ids[value] = id
	m.values = append(m.values, value)

	return id
}

func (m *IdMap[T]) Size() int {
	return len(m.values)
}

func (m *IdMap[T]) Value(id uint32) T {
	return m.values[id]
}

// ValueToIdMap is the per column fallback id space for columns without a
// dictionary. Exactly one of the typed maps is set, matching the column type.
type ValueToIdMap struct {
	dataType schema.FieldType

	ints    *IdMap[int32]
	longs   *IdMap[int64]
	floats  *IdMap[float32]
	doubles *IdMap[float64]
	strings *IdMap[string]
}

func NewValueToIdMap(dataType schema.FieldType) (*ValueToIdMap, error) {

	m := &ValueToIdMap{dataType: dataType}

	switch dataType {
	case schema.Int32FieldType:
		m.ints = NewIdMap[int32]()
	case schema.Int64FieldType:
		m.longs = NewIdMap[int64]()
	case schema.Float32FieldType:
		m.floats = NewIdMap[float32]()
	case schema.Float64FieldType:
		m.doubles = NewIdMap[float64]()
	case schema.StringFieldType:
		m.strings = NewIdMap[string]()
	default:
		return nil, fmt.Errorf("value to id map for %s: %w", dataType.String(), schema.ErrUnsupportedDataType)
	}

	return m, nil
}

func (m *ValueToIdMap) DataType() schema.FieldType {
	return m.dataType
}

// GetId panics when value does not match the map type
func (m *ValueToIdMap) GetId(value any) uint32 {
	switch m.dataType {
	case schema.Int32FieldType:
		return m.ints.GetId(value.(int32))
	case schema.Int64FieldType:
		return m.longs.GetId(value.(int64))
	case schema.Float32FieldType:
		return m.floats.GetId(value.(float32))
	case schema.Float64FieldType:
		return m.doubles.GetId(value.(float64))
	default:
		return m.strings.GetId(value.(string))
	}
}

func (m *ValueToIdMap) Size() int {
	switch m.dataType {
	case schema.Int32FieldType:
		return m.ints.Size()
	case schema.Int64FieldType:
		return m.longs.Size()
	case schema.Float32FieldType:
		return m.floats.Size()
	case schema.Float64FieldType:
		return m.doubles.Size()
	default:
		return m.strings.Size()
	}
}

func (m *ValueToIdMap) Value(id uint32) any {
	switch m.dataType {
	case schema.Int32FieldType:
		return m.ints.Value(id)
	case schema.Int64FieldType:
		return m.longs.Value(id)
	case schema.Float32FieldType:
		return m.floats.Value(id)
	case schema.Float64FieldType:
		return m.doubles.Value(id)
	default:
		return m.strings.Value(id)
	}
}
