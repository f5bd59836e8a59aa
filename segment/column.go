package segment

import (
	"errors"
	"fmt"

	"github.com/dot5enko/segquery/schema"
)

var (
	ErrColumnNotFound   = errors.New("column not found")
	ErrNotNumericColumn = errors.New("column is not numeric")
)

func argumentTypeError(value any, typ schema.FieldType) error {
	return fmt.Errorf("value %v (%T) is not compatible with %s column", value, value, typ.String())
}

// Column is a read only view over one column of a segment. Dictionary columns
// store a forward index of dictionary ids, raw columns a typed value slice.
type Column struct {
	spec schema.SchemaColumn
	rows int

	dictionary Dictionary
	dictIds    []uint32
	dictFloats []float64

	// []int32, []int64, []float32, []float64 or []string
	raw any

	blockBounds []schema.BoundsFloat
}

func NewDictionaryColumn(spec schema.SchemaColumn, dictionary Dictionary, ids []uint32) *Column {
	col := &Column{
		spec:       spec,
		rows:       len(ids),
		dictionary: dictionary,
		dictIds:    ids,
	}

	if floats, ok := dictionary.Float64Values(); ok {
		col.dictFloats = floats
	}

	return col
}

// NewRawColumn wraps a typed slice, bounds are optional per block min/max stats
func NewRawColumn(spec schema.SchemaColumn, values any, rows int, bounds []schema.BoundsFloat) *Column {
	return &Column{
		spec:        spec,
		rows:        rows,
		raw:         values,
		blockBounds: bounds,
	}
}

func (c *Column) Name() string {
	return c.spec.Name
}

func (c *Column) Type() schema.FieldType {
	return c.spec.Type
}

func (c *Column) Rows() int {
	return c.rows
}

func (c *Column) HasDictionary() bool {
	return c.dictionary != nil
}

func (c *Column) Dictionary() Dictionary {
	return c.dictionary
}

func (c *Column) DictIds() []uint32 {
	return c.dictIds
}

func (c *Column) Raw() any {
	return c.raw
}

func (c *Column) BlockBounds(block int) (schema.BoundsFloat, bool) {
	if block >= len(c.blockBounds) {
		return schema.BoundsFloat{}, false
	}
	return c.blockBounds[block], true
}

func RawValues[T any](c *Column) ([]T, bool) {
	typed, ok := c.raw.([]T)
	return typed, ok
}

func (c *Column) ValueAt(doc uint32) any {
	if c.dictionary != nil {
		return c.dictionary.Get(int(c.dictIds[doc]))
	}

	switch raw := c.raw.(type) {
	case []int32:
		return raw[doc]
	case []int64:
		return raw[doc]
	case []float32:
		return raw[doc]
	case []float64:
		return raw[doc]
	case []string:
		return raw[doc]
	default:
		panic(fmt.Sprintf("unsupported raw column storage %T for %s", c.raw, c.spec.Name))
	}
}

func readFloats[T schema.NumericTypes](values []T, docs []uint32, out []float64) {
	for i, doc := range docs {
		out[i] = float64(values[doc])
	}
}

// ReadFloat64 fills out[i] with the numeric value of docs[i]
func (c *Column) ReadFloat64(docs []uint32, out []float64) error {

	if c.dictionary != nil {
		if c.dictFloats == nil {
			return fmt.Errorf("%s: %w", c.spec.Name, ErrNotNumericColumn)
		}
		for i, doc := range docs {
			out[i] = c.dictFloats[c.dictIds[doc]]
		}
		return nil
	}

	switch raw := c.raw.(type) {
	case []int32:
		readFloats(raw, docs, out)
	case []int64:
		readFloats(raw, docs, out)
	case []float32:
		readFloats(raw, docs, out)
	case []float64:
		readFloats(raw, docs, out)
	default:
		return fmt.Errorf("%s: %w", c.spec.Name, ErrNotNumericColumn)
	}

	return nil
}
