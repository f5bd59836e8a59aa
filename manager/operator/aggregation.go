package operator

import (
	"context"
	"fmt"

	"github.com/dot5enko/segquery/manager/aggregation"
	"github.com/dot5enko/segquery/manager/result"
	"github.com/dot5enko/segquery/segment"
)

// resolveColumns looks up the value column of every function, nil for COUNT
func resolveColumns(seg segment.Segment, functions []aggregation.Function) ([]*segment.Column, error) {

	columns := make([]*segment.Column, len(functions))

	for idx, f := range functions {
		if !f.Type.NeedsColumn() {
			continue
		}

		col, ok := seg.Column(f.Column)
		if !ok {
			return nil, fmt.Errorf("%s in segment %s: %w", f.Name(), seg.Name(), segment.ErrColumnNotFound)
		}
		if !col.Type().IsNumeric() {
			return nil, fmt.Errorf("%s over %s column: %w", f.Name(), col.Type().String(), segment.ErrNotNumericColumn)
		}

		columns[idx] = col
	}

	return columns, nil
}

// AggregationOperator folds every filtered doc into one accumulator per function
type AggregationOperator struct {
	seg       segment.Segment
	docIdSet  *FilteredDocIdSetOperator
	functions []aggregation.Function
	columns   []*segment.Column
}

func NewAggregationOperator(
	seg segment.Segment,
	docIdSet *FilteredDocIdSetOperator,
	functions []aggregation.Function,
) (*AggregationOperator, error) {

	columns, err := resolveColumns(seg, functions)
	if err != nil {
		return nil, err
	}

	return &AggregationOperator{
		seg:       seg,
		docIdSet:  docIdSet,
		functions: functions,
		columns:   columns,
	}, nil
}

func (o *AggregationOperator) Name() string {
	return "AGGREGATION"
}

func (o *AggregationOperator) Execute(ctx context.Context) (*result.SegmentResult, error) {

	res := result.NewAggregationResult(o.functions)
	values := make([]float64, o.docIdSet.MaxDocsPerBatch())

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

		matched += int64(len(batch))

		for idx, col := range o.columns {
			if col == nil {
				res.Aggregates[idx].AddCount(int64(len(batch)))
				continue
			}

			if err := col.ReadFloat64(batch, values[:len(batch)]); err != nil {
				return nil, err
			}
			res.Aggregates[idx].AddBatch(values[:len(batch)])
		}
	}

	res.Stats = result.Stats{
		TotalDocs:   int64(o.seg.TotalDocs()),
		DocsMatched: matched,
		Segments:    1,
	}

	return res, nil
}
