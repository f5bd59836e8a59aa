package aggregation

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnsupportedAggregation = errors.New("unsupported aggregation function")

type Type byte

const (
	Count Type = iota
	Sum
	Min
	Max
	Avg
)

func (t Type) String() string {
	switch t {
	case Count:
		return "COUNT"
	case Sum:
		return "SUM"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Avg:
		return "AVG"
	default:
		panic(fmt.Sprintf("unknown aggregation type %d", t))
	}
}

func ParseType(name string) (Type, error) {
	switch strings.ToUpper(name) {
	case "COUNT":
		return Count, nil
	case "SUM":
		return Sum, nil
	case "MIN":
		return Min, nil
	case "MAX":
		return Max, nil
	case "AVG":
		return Avg, nil
	default:
		return 0, fmt.Errorf("%s: %w", name, ErrUnsupportedAggregation)
	}
}

// NeedsColumn is false for functions that only count rows
func (t Type) NeedsColumn() bool {
	return t != Count
}

// Value is the intermediate state of one aggregation function. It carries
// enough to merge partial results from any number of segments in any order.
type Value struct {
	Type  Type
	Count int64
	Sum   float64
	Min   float64
	Max   float64
}

func NewValue(t Type) Value {
	return Value{
		Type: t,
		Min:  math.Inf(1),
		Max:  math.Inf(-1),
	}
}

func (v *Value) Add(x float64) {
	v.Count++
	v.Sum += x
	v.Min = min(v.Min, x)
	v.Max = max(v.Max, x)
}

// AddCount accounts rows without values, only meaningful for COUNT
func (v *Value) AddCount(n int64) {
	v.Count += n
}

func (v *Value) AddBatch(values []float64) {
	for _, x := range values {
		v.Add(x)
	}
}

// Merge is associative and commutative
func (v *Value) Merge(other Value) {
	v.Count += other.Count
	v.Sum += other.Sum
	v.Min = min(v.Min, other.Min)
	v.Max = max(v.Max, other.Max)
}

// Final is the user visible result. Empty MIN and MAX stay infinite and
// an empty AVG is NaN.
func (v Value) Final() float64 {
	switch v.Type {
	case Count:
		return float64(v.Count)
	case Sum:
		return v.Sum
	case Min:
		return v.Min
	case Max:
		return v.Max
	case Avg:
		if v.Count == 0 {
			return math.NaN()
		}
		return v.Sum / float64(v.Count)
	default:
		panic(fmt.Sprintf("unknown aggregation type %d", v.Type))
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%s=%v", v.Type.String(), v.Final())
}

// Function is a resolved aggregation over a column
type Function struct {
	Type   Type
	Column string
}

func (f Function) Name() string {
	if !f.Type.NeedsColumn() {
		return f.Type.String() + "(*)"
	}
	return f.Type.String() + "(" + f.Column + ")"
}

func NewValues(functions []Function) []Value {
	out := make([]Value, len(functions))
	for idx, f := range functions {
		out[idx] = NewValue(f.Type)
	}
	return out
}

// MergeAll merges element wise, both slices follow the same function order
func MergeAll(into []Value, from []Value) {
	for idx := range into {
		into[idx].Merge(from[idx])
	}
}
