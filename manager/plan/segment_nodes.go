package plan

import (
	"strings"

	"github.com/dot5enko/segquery/manager/aggregation"
	"github.com/dot5enko/segquery/manager/groupby"
	"github.com/dot5enko/segquery/manager/operator"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/segment"
)

type FilterPlanNode struct {
	seg    segment.Segment
	filter *query.FilterNode

	cell buildCell[*operator.FilterOperator]
}

func NewFilterPlanNode(seg segment.Segment, filter *query.FilterNode) (*FilterPlanNode, error) {
	if filter == nil {
		return nil, ErrMissingFilter
	}
	return &FilterPlanNode{seg: seg, filter: filter}, nil
}

func (n *FilterPlanNode) BuildFilter() (*operator.FilterOperator, error) {
	return n.cell.get(func() (*operator.FilterOperator, error) {
		return operator.NewFilterOperator(n.seg, n.filter), nil
	})
}

func (n *FilterPlanNode) Build() (operator.Operator, error) {
	op, err := n.BuildFilter()
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (n *FilterPlanNode) Describe() Description {
	return Description{Name: "FILTER", Details: []string{n.filter.String()}}
}

// DocIdSetPlanNode without a filter node covers every doc of the segment
type DocIdSetPlanNode struct {
	seg             segment.Segment
	filter          *FilterPlanNode
	maxDocsPerBatch int

	cell buildCell[*operator.FilteredDocIdSetOperator]
}

func NewDocIdSetPlanNode(seg segment.Segment, filter *FilterPlanNode, maxDocsPerBatch int) *DocIdSetPlanNode {
	return &DocIdSetPlanNode{seg: seg, filter: filter, maxDocsPerBatch: maxDocsPerBatch}
}

func (n *DocIdSetPlanNode) BuildDocIdSet() (*operator.FilteredDocIdSetOperator, error) {
	return n.cell.get(func() (*operator.FilteredDocIdSetOperator, error) {

		var filterOp *operator.FilterOperator

		if n.filter != nil {
			var err error
			if filterOp, err = n.filter.BuildFilter(); err != nil {
				return nil, err
			}
		}

		return operator.NewFilteredDocIdSetOperator(filterOp, n.seg.TotalDocs(), n.maxDocsPerBatch), nil
	})
}

func (n *DocIdSetPlanNode) Build() (operator.Operator, error) {
	op, err := n.BuildDocIdSet()
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (n *DocIdSetPlanNode) Describe() Description {
	d := Description{
		Name:    "DOC_ID_SET",
		Details: []string{detail("maxDocsPerBatch", n.maxDocsPerBatch)},
	}
	if n.filter == nil {
		d.Details = append(d.Details, detail("docs", n.seg.TotalDocs()))
	} else {
		d.Children = []Description{n.filter.Describe()}
	}
	return d
}

func functionNames(functions []aggregation.Function) string {
	names := make([]string, len(functions))
	for idx, f := range functions {
		names[idx] = f.Name()
	}
	return strings.Join(names, " ")
}

type AggregationPlanNode struct {
	seg       segment.Segment
	functions []aggregation.Function
	docIdSet  *DocIdSetPlanNode

	cell buildCell[operator.SegmentOperator]
}

func NewAggregationPlanNode(seg segment.Segment, functions []aggregation.Function, docIdSet *DocIdSetPlanNode) (*AggregationPlanNode, error) {
	if len(functions) == 0 {
		return nil, ErrMissingAggregation
	}
	return &AggregationPlanNode{seg: seg, functions: functions, docIdSet: docIdSet}, nil
}

func (n *AggregationPlanNode) BuildSegmentOperator() (operator.SegmentOperator, error) {
	return n.cell.get(func() (operator.SegmentOperator, error) {
		docs, err := n.docIdSet.BuildDocIdSet()
		if err != nil {
			return nil, err
		}
		return operator.NewAggregationOperator(n.seg, docs, n.functions)
	})
}

func (n *AggregationPlanNode) Build() (operator.Operator, error) {
	return n.BuildSegmentOperator()
}

func (n *AggregationPlanNode) Describe() Description {
	return Description{
		Name:     "AGGREGATION",
		Details:  []string{functionNames(n.functions)},
		Children: []Description{n.docIdSet.Describe()},
	}
}

type AggregationGroupByPlanNode struct {
	seg               segment.Segment
	functions         []aggregation.Function
	groupBy           []string
	strategy          groupby.Strategy
	denseGroupKeyBits int
	docIdSet          *DocIdSetPlanNode

	cell buildCell[operator.SegmentOperator]
}

func NewAggregationGroupByPlanNode(
	seg segment.Segment,
	functions []aggregation.Function,
	groupBy []string,
	strategy groupby.Strategy,
	denseGroupKeyBits int,
	docIdSet *DocIdSetPlanNode,
) (*AggregationGroupByPlanNode, error) {

	if len(functions) == 0 {
		return nil, ErrMissingAggregation
	}
	if len(groupBy) == 0 {
		return nil, ErrMissingGroupBy
	}

	return &AggregationGroupByPlanNode{
		seg:               seg,
		functions:         functions,
		groupBy:           groupBy,
		strategy:          strategy,
		denseGroupKeyBits: denseGroupKeyBits,
		docIdSet:          docIdSet,
	}, nil
}

func (n *AggregationGroupByPlanNode) Strategy() groupby.Strategy {
	return n.strategy
}

func (n *AggregationGroupByPlanNode) BuildSegmentOperator() (operator.SegmentOperator, error) {
	return n.cell.get(func() (operator.SegmentOperator, error) {
		docs, err := n.docIdSet.BuildDocIdSet()
		if err != nil {
			return nil, err
		}
		return operator.NewGroupByOperator(n.seg, docs, n.functions, n.groupBy, operator.GroupByOptions{
			Strategy:          n.strategy,
			DenseGroupKeyBits: n.denseGroupKeyBits,
		})
	})
}

func (n *AggregationGroupByPlanNode) Build() (operator.Operator, error) {
	return n.BuildSegmentOperator()
}

func (n *AggregationGroupByPlanNode) Describe() Description {
	return Description{
		Name: "AGGREGATION_GROUP_BY",
		Details: []string{
			functionNames(n.functions),
			detail("groupBy", strings.Join(n.groupBy, " ")),
			detail("strategy", n.strategy.String()),
		},
		Children: []Description{n.docIdSet.Describe()},
	}
}

type SelectionPlanNode struct {
	seg       segment.Segment
	selection *query.Selection
	docIdSet  *DocIdSetPlanNode

	cell buildCell[operator.SegmentOperator]
}

func NewSelectionPlanNode(seg segment.Segment, selection *query.Selection, docIdSet *DocIdSetPlanNode) (*SelectionPlanNode, error) {
	if selection == nil {
		return nil, ErrMissingSelection
	}
	return &SelectionPlanNode{seg: seg, selection: selection, docIdSet: docIdSet}, nil
}

func (n *SelectionPlanNode) BuildSegmentOperator() (operator.SegmentOperator, error) {
	return n.cell.get(func() (operator.SegmentOperator, error) {
		docs, err := n.docIdSet.BuildDocIdSet()
		if err != nil {
			return nil, err
		}
		return operator.NewSelectionOperator(n.seg, docs, n.selection)
	})
}

func (n *SelectionPlanNode) Build() (operator.Operator, error) {
	return n.BuildSegmentOperator()
}

func (n *SelectionPlanNode) Describe() Description {
	d := Description{
		Name:     "SELECTION",
		Details:  []string{strings.Join(n.selection.Columns, " ")},
		Children: []Description{n.docIdSet.Describe()},
	}
	if n.selection.Limit > 0 {
		d.Details = append(d.Details, detail("offset", n.selection.Offset), detail("limit", n.selection.Limit))
	}
	return d
}
