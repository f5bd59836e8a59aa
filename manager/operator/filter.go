package operator

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/dot5enko/segquery/manager/filter"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/segment"
)

// FilterOperator evaluates a predicate tree over one segment
type FilterOperator struct {
	seg  segment.Segment
	node *query.FilterNode
}

func NewFilterOperator(seg segment.Segment, node *query.FilterNode) *FilterOperator {
	return &FilterOperator{seg: seg, node: node}
}

func (o *FilterOperator) Name() string {
	return "FILTER"
}

func (o *FilterOperator) Evaluate() (*roaring.Bitmap, error) {
	return filter.Evaluate(o.seg, o.node)
}
