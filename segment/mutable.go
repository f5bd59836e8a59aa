package segment

import (
	"fmt"
	"sync"

	"github.com/dot5enko/segquery/schema"
	"golang.org/x/exp/constraints"
)

// MutableSegment accepts appends while being queried. Queries should run
// against Snapshot so that TotalDocs and column lengths agree.
type MutableSegment struct {
	name   string
	schema schema.Schema

	locker  sync.RWMutex
	columns []any
	docs    int
}

func NewMutableSegment(name string, sch schema.Schema) (*MutableSegment, error) {

	columns := make([]any, len(sch.Columns))

	for idx, col := range sch.Columns {
		switch col.Type {
		case schema.Int32FieldType:
			columns[idx] = []int32{}
		case schema.Int64FieldType:
			columns[idx] = []int64{}
		case schema.Float32FieldType:
			columns[idx] = []float32{}
		case schema.Float64FieldType:
			columns[idx] = []float64{}
		case schema.StringFieldType:
			columns[idx] = []string{}
		default:
			return nil, fmt.Errorf("%s: %w", col.Type.String(), schema.ErrUnsupportedDataType)
		}
	}

	return &MutableSegment{
		name:    name,
		schema:  sch,
		columns: columns,
	}, nil
}

func appendConverted[T constraints.Ordered](column any, value any, typ schema.FieldType) (any, error) {
	converted, ok := schema.Convert[T](value)
	if !ok {
		return nil, argumentTypeError(value, typ)
	}
	return append(column.([]T), converted), nil
}

// Append adds a row atomically, either every column grows or none
func (m *MutableSegment) Append(row map[string]any) error {

	m.locker.Lock()
	defer m.locker.Unlock()

	updated := make([]any, len(m.columns))

	for idx, col := range m.schema.Columns {
		value, ok := row[col.Name]
		if !ok {
			return fmt.Errorf("%s: %w", col.Name, ErrRowMissingColumn)
		}

		var err error

		switch col.Type {
		case schema.Int32FieldType:
			updated[idx], err = appendConverted[int32](m.columns[idx], value, col.Type)
		case schema.Int64FieldType:
			updated[idx], err = appendConverted[int64](m.columns[idx], value, col.Type)
		case schema.Float32FieldType:
			updated[idx], err = appendConverted[float32](m.columns[idx], value, col.Type)
		case schema.Float64FieldType:
			updated[idx], err = appendConverted[float64](m.columns[idx], value, col.Type)
		case schema.StringFieldType:
			updated[idx], err = appendConverted[string](m.columns[idx], value, col.Type)
		}

		if err != nil {
			return err
		}
	}

	m.columns = updated
	m.docs++

	return nil
}

func (m *MutableSegment) Name() string {
	return m.name
}

func (m *MutableSegment) Schema() schema.Schema {
	return m.schema
}

func (m *MutableSegment) TotalDocs() int {
	m.locker.RLock()
	defer m.locker.RUnlock()

	return m.docs
}

// Snapshot returns a consistent read only view of the rows appended so far
func (m *MutableSegment) Snapshot() Segment {

	m.locker.RLock()
	defer m.locker.RUnlock()

	columns := make(map[string]*Column, len(m.columns))

	for idx, spec := range m.schema.Columns {
		columns[spec.Name] = NewRawColumn(spec, sliceTo(m.columns[idx], m.docs), m.docs, nil)
	}

	return &ImmutableSegment{
		name:     m.name,
		docs:     m.docs,
		schema:   m.schema,
		columns:  columns,
		realtime: true,
	}
}

// full slice expressions keep later appends from writing into a snapshot
func sliceTo(column any, n int) any {
	switch typed := column.(type) {
	case []int32:
		return typed[:n:n]
	case []int64:
		return typed[:n:n]
	case []float32:
		return typed[:n:n]
	case []float64:
		return typed[:n:n]
	case []string:
		return typed[:n:n]
	default:
		panic(fmt.Sprintf("unexpected mutable column storage %T", column))
	}
}

func (m *MutableSegment) Column(name string) (*Column, bool) {

	m.locker.RLock()
	defer m.locker.RUnlock()

	idx := m.schema.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}

	return NewRawColumn(m.schema.Columns[idx], sliceTo(m.columns[idx], m.docs), m.docs, nil), true
}

func (m *MutableSegment) IsDictionaryBased() bool {
	return false
}
