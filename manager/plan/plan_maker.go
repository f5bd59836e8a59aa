package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dot5enko/segquery/manager/aggregation"
	"github.com/dot5enko/segquery/manager/config"
	"github.com/dot5enko/segquery/manager/groupby"
	"github.com/dot5enko/segquery/manager/operator"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/schema"
	"github.com/dot5enko/segquery/segment"
	"github.com/panjf2000/ants/v2"
)

// InstancePlanMaker turns a query into plans. It holds no per query state
// and is shared by concurrent plan builds.
type InstancePlanMaker struct {
	cfg      config.QueryConfig
	timeouts config.TimeoutConfig
}

func NewInstancePlanMaker(cfg config.QueryConfig, timeouts config.TimeoutConfig) (*InstancePlanMaker, error) {

	if err := timeouts.Validate(); err != nil {
		return nil, err
	}

	if cfg.MaxDocsPerBatch <= 0 {
		cfg.MaxDocsPerBatch = operator.DefaultMaxDocsPerBatch
	}
	if cfg.DenseGroupKeyBits <= 0 {
		cfg.DenseGroupKeyBits = operator.DefaultDenseGroupKeyBits
	}

	return &InstancePlanMaker{cfg: cfg, timeouts: timeouts.Clone()}, nil
}

func (m *InstancePlanMaker) ResourceTimeout(resource string) time.Duration {
	return m.timeouts.Resolve(resource)
}

func parseFunctions(q *query.Query) ([]aggregation.Function, error) {

	functions := make([]aggregation.Function, len(q.Aggregations))

	for idx, info := range q.Aggregations {
		typ, err := aggregation.ParseType(info.Type)
		if err != nil {
			return nil, err
		}

		f := aggregation.Function{Type: typ}
		if typ.NeedsColumn() {
			if info.Column == "" {
				return nil, fmt.Errorf("%s without a column: %w", typ.String(), query.ErrInvalidQuery)
			}
			f.Column = info.Column
		}
		functions[idx] = f
	}

	return functions, nil
}

// SelectGroupByStrategy picks the key space of a group by over seg.
// Raw group columns are checked against the id map factory here so an
// unsupported type fails the query before any segment work.
func (m *InstancePlanMaker) SelectGroupByStrategy(seg segment.Segment, groupBy []string) (groupby.Strategy, error) {

	allDictionary := true
	cardinalities := make([]int, 0, len(groupBy))

	for _, name := range groupBy {
		col, ok := seg.Column(name)
		if !ok {
			return 0, fmt.Errorf("group by `%s` in segment %s: %w", name, seg.Name(), segment.ErrColumnNotFound)
		}

		if !col.HasDictionary() {
			allDictionary = false

			if _, err := groupby.NewValueToIdMap(col.Type()); err != nil {
				return 0, err
			}
			continue
		}

		cardinalities = append(cardinalities, col.Dictionary().Cardinality())
	}

	return groupby.SelectStrategy(seg.IsDictionaryBased(), allDictionary, cardinalities), nil
}

func (m *InstancePlanMaker) makeDocIdSet(q *query.Query, seg segment.Segment) (*DocIdSetPlanNode, error) {

	var filterNode *FilterPlanNode

	if q.HasFilter() {
		var err error
		if filterNode, err = NewFilterPlanNode(seg, q.Filter); err != nil {
			return nil, err
		}
	}

	return NewDocIdSetPlanNode(seg, filterNode, m.cfg.MaxDocsPerBatch), nil
}

func (m *InstancePlanMaker) makeInner(q *query.Query, functions []aggregation.Function, seg segment.Segment) (*InnerSegmentPlan, error) {

	docIdSet, err := m.makeDocIdSet(q, seg)
	if err != nil {
		return nil, err
	}

	var root segmentPlanNode

	switch {
	case q.HasAggregation() && !q.HasGroupBy():
		root, err = NewAggregationPlanNode(seg, functions, docIdSet)

	case q.HasAggregation():
		strategy, strategyErr := m.SelectGroupByStrategy(seg, q.GroupBy)
		if strategyErr != nil {
			return nil, strategyErr
		}
		root, err = NewAggregationGroupByPlanNode(seg, functions, q.GroupBy, strategy, m.cfg.DenseGroupKeyBits, docIdSet)

	case q.HasSelection():
		root, err = NewSelectionPlanNode(seg, q.Selection, docIdSet)

	default:
		return nil, query.ErrNoAggregationOrSelection
	}

	if err != nil {
		return nil, err
	}

	return &InnerSegmentPlan{segment: seg.Name(), root: root}, nil
}

// MakeInnerSegmentPlan selects the execution strategy of one segment
func (m *InstancePlanMaker) MakeInnerSegmentPlan(q *query.Query, seg segment.Segment) (*InnerSegmentPlan, error) {

	if err := q.Validate(); err != nil {
		return nil, err
	}

	functions, err := parseFunctions(q)
	if err != nil {
		return nil, err
	}

	return m.makeInner(q, functions, seg)
}

// isQueryError reports errors that fail the whole query at plan time
func isQueryError(err error) bool {
	return errors.Is(err, schema.ErrUnsupportedDataType) ||
		errors.Is(err, query.ErrNoAggregationOrSelection) ||
		errors.Is(err, aggregation.ErrUnsupportedAggregation)
}

// MakeInterSegmentPlan builds the combine of every segment. A segment that
// can not be planned (missing column for example) is kept as a failed plan
// so it shows up as a failure annotation of the response. failed carries
// plans of segments the caller could not even resolve.
func (m *InstancePlanMaker) MakeInterSegmentPlan(
	q *query.Query,
	segments []segment.Segment,
	pool *ants.Pool,
	failed ...*InnerSegmentPlan,
) (*GlobalPlan, error) {

	if err := q.Validate(); err != nil {
		return nil, err
	}

	functions, err := parseFunctions(q)
	if err != nil {
		return nil, err
	}

	inner := make([]*InnerSegmentPlan, 0, len(segments)+len(failed))

	for _, seg := range segments {
		p, planErr := m.makeInner(q, functions, seg)
		if planErr != nil {
			if isQueryError(planErr) {
				return nil, planErr
			}

			slog.Warn("unable to plan segment", "segment", seg.Name(), "err", planErr.Error())
			p = FailedSegmentPlan(seg.Name(), planErr)
		}
		inner = append(inner, p)
	}

	inner = append(inner, failed...)

	combine := &CombinePlanNode{
		query:         q,
		functions:     functions,
		inner:         inner,
		pool:          pool,
		timeout:       m.ResourceTimeout(q.Source.ResourceName),
		slowThreshold: m.cfg.SlowSegmentThreshold,
	}

	return &GlobalPlan{
		Query: q,
		Root:  &InstanceResponsePlanNode{query: q, combine: combine},
	}, nil
}
