package operator

import (
	"context"
	"fmt"

	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/manager/result"
	"github.com/dot5enko/segquery/segment"
)

// SelectionOperator projects the selected columns of filtered docs. Without
// an order by it stops once offset+limit rows are collected.
type SelectionOperator struct {
	seg      segment.Segment
	docIdSet *FilteredDocIdSetOperator

	names   []string
	columns []*segment.Column
	budget  int
}

func NewSelectionOperator(
	seg segment.Segment,
	docIdSet *FilteredDocIdSetOperator,
	sel *query.Selection,
) (*SelectionOperator, error) {

	names := sel.SelectedColumns(seg.Schema().ColumnNames())
	columns := make([]*segment.Column, len(names))

	for idx, name := range names {
		col, ok := seg.Column(name)
		if !ok {
			return nil, fmt.Errorf("selection of `%s` in segment %s: %w", name, seg.Name(), segment.ErrColumnNotFound)
		}
		columns[idx] = col
	}

	return &SelectionOperator{
		seg:      seg,
		docIdSet: docIdSet,
		names:    names,
		columns:  columns,
		budget:   sel.RowBudget(),
	}, nil
}

func (o *SelectionOperator) Name() string {
	return "SELECTION"
}

func (o *SelectionOperator) Execute(ctx context.Context) (*result.SegmentResult, error) {

	res := result.NewSelectionResult(o.names)
	cursor := o.docIdSet.NewCursor()
	matched := int64(0)

collect:
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

		for _, doc := range batch {
			if o.budget >= 0 && len(res.Rows) >= o.budget {
				break collect
			}

			row := make([]any, len(o.columns))
			for idx, col := range o.columns {
				row[idx] = col.ValueAt(doc)
			}
			res.Rows = append(res.Rows, row)
			matched++
		}
	}

	res.Stats = result.Stats{
		TotalDocs:   int64(o.seg.TotalDocs()),
		DocsMatched: matched,
		Segments:    1,
	}

	return res, nil
}
