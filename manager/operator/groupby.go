package operator

import (
	"context"
	"fmt"

	"github.com/dot5enko/segquery/manager/aggregation"
	"github.com/dot5enko/segquery/manager/groupby"
	"github.com/dot5enko/segquery/manager/result"
	"github.com/dot5enko/segquery/segment"
)

// DefaultDenseGroupKeyBits is the widest packed key kept in a slot array
const DefaultDenseGroupKeyBits = 16

// GroupByOperator aggregates per group. The key space is fixed at
// construction and the per batch loops are specialised per strategy.
type GroupByOperator struct {
	seg       segment.Segment
	docIdSet  *FilteredDocIdSetOperator
	functions []aggregation.Function
	columns   []*segment.Column

	groupColumns []string
	strategy     groupby.Strategy
	readers      []groupby.ComponentReader

	packer    *groupby.KeyPacker
	dense     *groupby.DenseGroups
	sparse    *groupby.MapGroups
	composite *groupby.CompositeGroups

	values []aggregation.Value
}

type GroupByOptions struct {
	Strategy          groupby.Strategy
	DenseGroupKeyBits int
}

func NewGroupByOperator(
	seg segment.Segment,
	docIdSet *FilteredDocIdSetOperator,
	functions []aggregation.Function,
	groupColumns []string,
	opts GroupByOptions,
) (*GroupByOperator, error) {

	columns, err := resolveColumns(seg, functions)
	if err != nil {
		return nil, err
	}

	o := &GroupByOperator{
		seg:          seg,
		docIdSet:     docIdSet,
		functions:    functions,
		columns:      columns,
		groupColumns: groupColumns,
		strategy:     opts.Strategy,
		readers:      make([]groupby.ComponentReader, len(groupColumns)),
	}

	cardinalities := make([]int, len(groupColumns))

	for idx, name := range groupColumns {
		col, ok := seg.Column(name)
		if !ok {
			return nil, fmt.Errorf("group by `%s` in segment %s: %w", name, seg.Name(), segment.ErrColumnNotFound)
		}

		if col.HasDictionary() {
			o.readers[idx] = groupby.NewDictionaryReader(col)
			cardinalities[idx] = col.Dictionary().Cardinality()
			continue
		}

		if opts.Strategy != groupby.DynamicIdMap {
			return nil, groupby.InvariantViolation{Message: fmt.Sprintf("%s strategy with raw column %s", opts.Strategy.String(), name)}
		}

		idMap, err := groupby.NewValueToIdMap(col.Type())
		if err != nil {
			return nil, err
		}
		o.readers[idx], err = groupby.NewIdMapReader(col, idMap)
		if err != nil {
			return nil, err
		}
	}

	switch opts.Strategy {
	case groupby.PackedIntegerKey:
		o.packer, err = groupby.NewKeyPacker(cardinalities)
		if err != nil {
			return nil, err
		}

		denseBits := opts.DenseGroupKeyBits
		if denseBits <= 0 {
			denseBits = DefaultDenseGroupKeyBits
		}

		if o.packer.TotalBits() <= denseBits {
			o.dense = groupby.NewDenseGroups(o.packer.TotalBits())
		} else {
			o.sparse = groupby.NewMapGroups()
		}

	case groupby.CompositeKey, groupby.DynamicIdMap:
		o.composite = groupby.NewCompositeGroups(len(groupColumns))
	}

	return o, nil
}

func (o *GroupByOperator) Name() string {
	return "GROUP_BY"
}

func (o *GroupByOperator) Strategy() groupby.Strategy {
	return o.strategy
}

func (o *GroupByOperator) groups() int {
	switch {
	case o.dense != nil:
		return o.dense.Len()
	case o.sparse != nil:
		return o.sparse.Len()
	default:
		return o.composite.Len()
	}
}

// assignGroups writes the group index of every row of the batch
func (o *GroupByOperator) assignGroups(components [][]uint32, rows int, ids []uint32, out []int32) {

	tuple := func(row int) []uint32 {
		for c := range components {
			ids[c] = components[c][row]
		}
		return ids
	}

	switch {
	case o.dense != nil:
		for row := range rows {
			out[row] = o.dense.GroupId(o.packer.Pack(tuple(row)))
		}
	case o.sparse != nil:
		for row := range rows {
			out[row] = o.sparse.GroupId(o.packer.Pack(tuple(row)))
		}
	default:
		for row := range rows {
			out[row] = o.composite.GroupId(tuple(row))
		}
	}
}

func (o *GroupByOperator) Execute(ctx context.Context) (*result.SegmentResult, error) {

	batchSize := o.docIdSet.MaxDocsPerBatch()
	nf := len(o.functions)

	components := make([][]uint32, len(o.readers))
	for idx := range components {
		components[idx] = make([]uint32, batchSize)
	}
	ids := make([]uint32, len(o.readers))
	groupIds := make([]int32, batchSize)
	values := make([]float64, batchSize)

	cursor := o.docIdSet.NewCursor()
	matched := int64(0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := cursor.NextBatch()
		if err != nil {
			return nil, err
		}
		if batch == nil {
			break
		}

		rows := len(batch)
		matched += int64(rows)

		for idx, reader := range o.readers {
			reader.Read(batch, components[idx][:rows])
		}

		o.assignGroups(components, rows, ids, groupIds[:rows])

		for len(o.values) < o.groups()*nf {
			o.values = append(o.values, aggregation.NewValues(o.functions)...)
		}

		for f, col := range o.columns {
			if col == nil {
				for row := range rows {
					o.values[int(groupIds[row])*nf+f].AddCount(1)
				}
				continue
			}

			if err := col.ReadFloat64(batch, values[:rows]); err != nil {
				return nil, err
			}
			for row := range rows {
				o.values[int(groupIds[row])*nf+f].Add(values[row])
			}
		}
	}

	res := result.NewGroupByResult(o.functions, o.groupColumns)

	for group := range o.groups() {
		groupValues := o.decode(int32(group), ids)

		g := res.Group(groupValues)
		aggregation.MergeAll(g.Aggregates, o.values[group*nf:(group+1)*nf])
	}

	res.Stats = result.Stats{
		TotalDocs:   int64(o.seg.TotalDocs()),
		DocsMatched: matched,
		Segments:    1,
		Strategies:  map[string]int{o.strategy.String(): 1},
	}

	return res, nil
}

// decode turns a group back into raw column values
func (o *GroupByOperator) decode(group int32, ids []uint32) []any {

	switch {
	case o.dense != nil:
		o.packer.Unpack(o.dense.Key(group), ids)
	case o.sparse != nil:
		o.packer.Unpack(o.sparse.Key(group), ids)
	default:
		copy(ids, o.composite.Tuple(group))
	}

	out := make([]any, len(ids))
	for idx, id := range ids {
		out[idx] = o.readers[idx].Value(id)
	}

	return out
}
