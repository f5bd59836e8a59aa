package segment

import (
	"errors"
	"fmt"
	"math"

	"github.com/dot5enko/segquery/schema"
	"golang.org/x/exp/constraints"
)

var ErrRowMissingColumn = errors.New("row is missing a column value")

type builderOptions struct {
	rawColumns map[string]bool
}

type BuilderOption func(*builderOptions)

// WithRawColumns keeps the named columns without a dictionary
func WithRawColumns(names ...string) BuilderOption {
	return func(o *builderOptions) {
		for _, name := range names {
			o.rawColumns[name] = true
		}
	}
}

// Builder accumulates rows and produces an ImmutableSegment.
// Columns are dictionary encoded unless listed in WithRawColumns.
type Builder struct {
	name    string
	schema  schema.Schema
	options builderOptions

	values [][]any
	rows   int
}

func NewBuilder(name string, sch schema.Schema, opts ...BuilderOption) *Builder {

	options := builderOptions{rawColumns: map[string]bool{}}
	for _, opt := range opts {
		opt(&options)
	}

	return &Builder{
		name:    name,
		schema:  sch,
		options: options,
		values:  make([][]any, len(sch.Columns)),
	}
}

func (b *Builder) AddRow(row map[string]any) error {

	for idx, col := range b.schema.Columns {
		value, ok := row[col.Name]
		if !ok {
			return fmt.Errorf("%s: %w", col.Name, ErrRowMissingColumn)
		}
		b.values[idx] = append(b.values[idx], value)
	}

	b.rows++

	return nil
}

func (b *Builder) Rows() int {
	return b.rows
}

func (b *Builder) Build() (*ImmutableSegment, error) {

	columns := make(map[string]*Column, len(b.schema.Columns))

	for idx, spec := range b.schema.Columns {

		col, err := buildColumn(spec, b.values[idx], !b.options.rawColumns[spec.Name])
		if err != nil {
			return nil, fmt.Errorf("unable to build column %s of segment %s: %s", spec.Name, b.name, err.Error())
		}

		columns[spec.Name] = col
	}

	return &ImmutableSegment{
		name:    b.name,
		docs:    b.rows,
		schema:  b.schema,
		columns: columns,
	}, nil
}

func buildColumn(spec schema.SchemaColumn, values []any, dictionary bool) (*Column, error) {
	switch spec.Type {
	case schema.Int32FieldType:
		return buildTyped[int32](spec, values, dictionary)
	case schema.Int64FieldType:
		return buildTyped[int64](spec, values, dictionary)
	case schema.Float32FieldType:
		return buildTyped[float32](spec, values, dictionary)
	case schema.Float64FieldType:
		return buildTyped[float64](spec, values, dictionary)
	case schema.StringFieldType:
		return buildTyped[string](spec, values, dictionary)
	default:
		return nil, fmt.Errorf("%s: %w", spec.Type.String(), schema.ErrUnsupportedDataType)
	}
}

func buildTyped[T constraints.Ordered](spec schema.SchemaColumn, values []any, dictionary bool) (*Column, error) {

	typed := make([]T, len(values))
	for idx, value := range values {
		converted, ok := schema.Convert[T](value)
		if !ok {
			return nil, argumentTypeError(value, spec.Type)
		}
		typed[idx] = converted
	}

	if !dictionary {
		return NewRawColumn(spec, typed, len(typed), blockBoundsOf(typed)), nil
	}

	dict := NewSortedDictionary(spec.Type, typed)

	ids := make([]uint32, len(typed))
	for idx, value := range typed {
		ids[idx] = uint32(dict.IndexOfTyped(value))
	}

	return NewDictionaryColumn(spec, dict, ids), nil
}

// blockBoundsOf computes per block min/max, nil for non numeric values
func blockBoundsOf[T constraints.Ordered](values []T) []schema.BoundsFloat {

	var zero T
	if _, numeric := schema.ToFloat64(any(zero)); !numeric {
		return nil
	}

	blocks := (len(values) + schema.BlockRowsSize - 1) / schema.BlockRowsSize
	bounds := make([]schema.BoundsFloat, blocks)

	for block := range blocks {
		from := block * schema.BlockRowsSize
		to := min(from+schema.BlockRowsSize, len(values))

		b := schema.BoundsFloat{Min: math.Inf(1), Max: math.Inf(-1)}
		for _, v := range values[from:to] {
			f, _ := schema.ToFloat64(any(v))
			b.Min = min(b.Min, f)
			b.Max = max(b.Max, f)
		}
		bounds[block] = b
	}

	return bounds
}
