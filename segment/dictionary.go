package segment

import (
	"slices"

	"github.com/dot5enko/segquery/schema"
	"golang.org/x/exp/constraints"
)

// Dictionary is a sorted bijective mapping between column values and dense ids.
type Dictionary interface {
	DataType() schema.FieldType
	Cardinality() int

	// IndexOf returns -1 when the value is not in the dictionary
	IndexOf(value any) int
	Get(id int) any

	// LowerBound is the first id whose value is >= value
	LowerBound(value any) (int, error)
	// UpperBound is the first id whose value is > value
	UpperBound(value any) (int, error)

	// Float64Values returns dictionary values indexed by id, false for non numeric dictionaries
	Float64Values() ([]float64, bool)
}

type SortedDictionary[T constraints.Ordered] struct {
	dataType schema.FieldType
	values   []T
	floats   []float64
}

// NewSortedDictionary sorts and deduplicates a copy of values
func NewSortedDictionary[T constraints.Ordered](dataType schema.FieldType, values []T) *SortedDictionary[T] {

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	d := &SortedDictionary[T]{
		dataType: dataType,
		values:   sorted,
	}

	if dataType.IsNumeric() {
		d.floats = make([]float64, len(sorted))
		for idx, v := range sorted {
			f, _ := schema.ToFloat64(any(v))
			d.floats[idx] = f
		}
	}

	return d
}

func (d *SortedDictionary[T]) DataType() schema.FieldType {
	return d.dataType
}

func (d *SortedDictionary[T]) Cardinality() int {
	return len(d.values)
}

func (d *SortedDictionary[T]) Values() []T {
	return d.values
}

func (d *SortedDictionary[T]) IndexOfTyped(value T) int {
	idx, found := slices.BinarySearch(d.values, value)
	if !found {
		return -1
	}
	return idx
}

func (d *SortedDictionary[T]) IndexOf(value any) int {
	typed, ok := schema.Convert[T](value)
	if !ok {
		return -1
	}
	return d.IndexOfTyped(typed)
}

func (d *SortedDictionary[T]) Get(id int) any {
	return d.values[id]
}

func (d *SortedDictionary[T]) LowerBound(value any) (int, error) {
	typed, ok := schema.Convert[T](value)
	if !ok {
		return 0, argumentTypeError(value, d.dataType)
	}
	idx, _ := slices.BinarySearch(d.values, typed)
	return idx, nil
}

func (d *SortedDictionary[T]) UpperBound(value any) (int, error) {
	typed, ok := schema.Convert[T](value)
	if !ok {
		return 0, argumentTypeError(value, d.dataType)
	}
	idx, found := slices.BinarySearch(d.values, typed)
	if found {
		idx++
	}
	return idx, nil
}

func (d *SortedDictionary[T]) Float64Values() ([]float64, bool) {
	return d.floats, d.floats != nil
}
