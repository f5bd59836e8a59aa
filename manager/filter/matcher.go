package filter

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/dot5enko/segquery/bits"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/ops"
	"github.com/dot5enko/segquery/schema"
	"github.com/dot5enko/segquery/segment"
	"golang.org/x/exp/constraints"
)

var ErrArgumentType = errors.New("filter argument type mismatch")

// blockMatcher evaluates one leaf condition on rows [from, to) of a block and
// returns how many pass. dst holds their mask unless none or all of them pass.
type blockMatcher interface {
	match(block, from, to int, dst *bits.Bitfield) int
}

type constMatcher struct {
	full bool
}

func (m constMatcher) match(block, from, to int, dst *bits.Bitfield) int {
	if m.full {
		return to - from
	}
	return 0
}

type idOp byte

const (
	idEq idOp = iota
	idNeq
	idRange
	idSet
)

// dictIdMatcher runs a predicate already translated into dictionary id space
type dictIdMatcher struct {
	ids []uint32
	op  idOp

	id     uint32
	lo, hi uint32
	set    []bool
}

func (m *dictIdMatcher) match(block, from, to int, dst *bits.Bitfield) int {

	ids := m.ids[from:to]

	switch m.op {
	case idEq:
		return ops.Equal(ids, m.id, dst)
	case idNeq:
		return ops.NotEqual(ids, m.id, dst)
	case idRange:
		return ops.InIdRange(ids, m.lo, m.hi, dst)
	default:
		return ops.InIdSet(ids, m.set, dst)
	}
}

func newDictionaryMatcher(col *segment.Column, cond query.FilterCondition) (blockMatcher, error) {

	dict := col.Dictionary()
	card := uint32(dict.Cardinality())

	idRangeMatcher := func(lo, hi int) blockMatcher {
		if lo >= hi {
			return constMatcher{full: false}
		}
		if lo == 0 && uint32(hi) >= card {
			return constMatcher{full: true}
		}
		return &dictIdMatcher{ids: col.DictIds(), op: idRange, lo: uint32(lo), hi: uint32(hi)}
	}

	switch cond.Operand {
	case query.EQ:
		id := dict.IndexOf(cond.Arguments[0])
		if id < 0 {
			return constMatcher{full: false}, nil
		}
		return &dictIdMatcher{ids: col.DictIds(), op: idEq, id: uint32(id)}, nil

	case query.NEQ:
		id := dict.IndexOf(cond.Arguments[0])
		if id < 0 {
			return constMatcher{full: true}, nil
		}
		return &dictIdMatcher{ids: col.DictIds(), op: idNeq, id: uint32(id)}, nil

	case query.GT:
		lo, err := dict.UpperBound(cond.Arguments[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", err.Error(), ErrArgumentType)
		}
		return idRangeMatcher(lo, int(card)), nil

	case query.LT:
		hi, err := dict.LowerBound(cond.Arguments[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", err.Error(), ErrArgumentType)
		}
		return idRangeMatcher(0, hi), nil

	case query.RANGE:
		lo, err := dict.LowerBound(cond.Arguments[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", err.Error(), ErrArgumentType)
		}
		hi, err := dict.LowerBound(cond.Arguments[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", err.Error(), ErrArgumentType)
		}
		return idRangeMatcher(lo, hi), nil

	case query.IN:
		set := make([]bool, card)
		found := 0
		for _, arg := range cond.Arguments {
			if id := dict.IndexOf(arg); id >= 0 && !set[id] {
				set[id] = true
				found++
			}
		}
		if found == 0 {
			return constMatcher{full: false}, nil
		}
		if uint32(found) == card {
			return constMatcher{full: true}, nil
		}
		return &dictIdMatcher{ids: col.DictIds(), op: idSet, set: set}, nil

	default:
		return nil, fmt.Errorf("unsupported operand %s on dictionary column %s", cond.Operand.String(), col.Name())
	}
}

// rawNumericMatcher scans typed values, skipping blocks by their min/max bounds
type rawNumericMatcher[T ops.NumericTypes] struct {
	col    *segment.Column
	values []T
	cond   query.FilterCondition

	args []T
	set  map[T]struct{}
}

func (m *rawNumericMatcher[T]) inSet(v T) bool {
	_, ok := m.set[v]
	return ok
}

func (m *rawNumericMatcher[T]) match(block, from, to int, dst *bits.Bitfield) int {

	if bounds, ok := m.col.BlockBounds(block); ok {
		result, err := ProcessFilterOnBounds(m.cond, &bounds)
		if err == nil {
			switch result {
			case schema.NoIntersection:
				return 0
			case schema.FullIntersection:
				return to - from
			}
		}
	}

	values := m.values[from:to]

	switch m.cond.Operand {
	case query.EQ:
		return ops.Equal(values, m.args[0], dst)
	case query.NEQ:
		return ops.NotEqual(values, m.args[0], dst)
	case query.GT:
		return ops.Greater(values, m.args[0], dst)
	case query.LT:
		return ops.Less(values, m.args[0], dst)
	case query.RANGE:
		return ops.InRange(values, m.args[0], m.args[1], dst)
	default:
		return ops.Matching(values, m.inSet, dst)
	}
}

func newRawNumericMatcher[T ops.NumericTypes](col *segment.Column, cond query.FilterCondition) (blockMatcher, error) {

	values, ok := segment.RawValues[T](col)
	if !ok {
		return nil, fmt.Errorf("column %s storage is %T", col.Name(), col.Raw())
	}

	m := &rawNumericMatcher[T]{
		col:    col,
		values: values,
		cond:   cond,
	}

	args, err := convertArguments[T](col, cond)
	if err != nil {
		return nil, err
	}
	m.args = args

	if cond.Operand == query.IN {
		m.set = make(map[T]struct{}, len(args))
		for _, arg := range args {
			m.set[arg] = struct{}{}
		}
	}

	return m, nil
}

func convertArguments[T constraints.Ordered](col *segment.Column, cond query.FilterCondition) ([]T, error) {
	args := make([]T, len(cond.Arguments))
	for idx, arg := range cond.Arguments {
		converted, ok := schema.Convert[T](arg)
		if !ok {
			return nil, fmt.Errorf("%v (%T) for %s column %s: %w", arg, arg, col.Type().String(), col.Name(), ErrArgumentType)
		}
		args[idx] = converted
	}
	return args, nil
}

// rawOrderedMatcher covers raw columns the numeric kernels can not, strings
type rawOrderedMatcher[T cmp.Ordered] struct {
	values []T
	op     query.CondOperand
	args   []T
	set    map[T]struct{}
}

func (m *rawOrderedMatcher[T]) test(v T) bool {
	switch m.op {
	case query.EQ:
		return v == m.args[0]
	case query.NEQ:
		return v != m.args[0]
	case query.GT:
		return v > m.args[0]
	case query.LT:
		return v < m.args[0]
	case query.RANGE:
		return v >= m.args[0] && v < m.args[1]
	case query.IN:
		_, ok := m.set[v]
		return ok
	default:
		return false
	}
}

func (m *rawOrderedMatcher[T]) match(block, from, to int, dst *bits.Bitfield) int {
	return ops.Matching(m.values[from:to], m.test, dst)
}

func newRawStringMatcher(col *segment.Column, cond query.FilterCondition) (blockMatcher, error) {

	values, ok := segment.RawValues[string](col)
	if !ok {
		return nil, fmt.Errorf("column %s storage is %T", col.Name(), col.Raw())
	}

	args, err := convertArguments[string](col, cond)
	if err != nil {
		return nil, err
	}

	m := &rawOrderedMatcher[string]{values: values, op: cond.Operand, args: args}

	if cond.Operand == query.IN {
		m.set = make(map[string]struct{}, len(args))
		for _, arg := range args {
			m.set[arg] = struct{}{}
		}
	}

	return m, nil
}

func newMatcher(seg segment.Segment, cond query.FilterCondition) (blockMatcher, error) {

	col, ok := seg.Column(cond.Field)
	if !ok {
		return nil, fmt.Errorf("filter on `%s` in segment %s: %w", cond.Field, seg.Name(), segment.ErrColumnNotFound)
	}

	if err := cond.Validate(); err != nil {
		return nil, err
	}

	if col.HasDictionary() {
		return newDictionaryMatcher(col, cond)
	}

	switch col.Type() {
	case schema.Int32FieldType:
		return newRawNumericMatcher[int32](col, cond)
	case schema.Int64FieldType:
		return newRawNumericMatcher[int64](col, cond)
	case schema.Float32FieldType:
		return newRawNumericMatcher[float32](col, cond)
	case schema.Float64FieldType:
		return newRawNumericMatcher[float64](col, cond)
	case schema.StringFieldType:
		return newRawStringMatcher(col, cond)
	default:
		return nil, fmt.Errorf("filter on %s column %s: %w", col.Type().String(), col.Name(), schema.ErrUnsupportedDataType)
	}
}
