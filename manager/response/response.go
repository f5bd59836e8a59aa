package response

import (
	"context"
	"math"
	"time"

	"github.com/dot5enko/segquery/manager/executor"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/manager/result"
	"github.com/google/uuid"
)

type (
	AggregationResult struct {
		Function string
		Value    float64
	}

	GroupRow struct {
		Values     []any
		Aggregates []float64
	}

	GroupByResult struct {
		Columns   []string
		Functions []string
		Rows      []GroupRow
	}

	SelectionResult struct {
		Columns []string
		Rows    [][]any
	}

	SegmentFailure struct {
		Segment string
		Status  string
		Reason  string
	}

	// SegmentTiming is instance local, it is not part of the data table
	SegmentTiming struct {
		Segment string
		Status  string
		Took    time.Duration
	}

	Stats struct {
		SegmentsQueried   int
		SegmentsProcessed int
		SegmentsFailed    int
		SegmentsTimedOut  int

		TotalDocs   int64
		DocsMatched int64

		Strategies map[string]int
		TimeUsed   time.Duration
	}

	// InstanceResponse is the merged answer of one instance for one query
	InstanceResponse struct {
		RequestId uuid.UUID
		Resource  string
		Partial   bool

		Aggregations []AggregationResult
		GroupBy      *GroupByResult
		Selection    *SelectionResult

		Failures []SegmentFailure
		Stats    Stats
		Timings  []SegmentTiming
	}
)

// FromOutcome shapes a combine outcome into the response of q
func FromOutcome(q *query.Query, outcome *executor.Outcome, took time.Duration) *InstanceResponse {

	resp := &InstanceResponse{
		RequestId: q.Id,
		Resource:  q.Source.ResourceName,
		Partial:   outcome.Partial,
	}

	merged := outcome.Result

	switch merged.Kind {
	case result.AggregationResult:
		for idx, f := range merged.Functions {
			resp.Aggregations = append(resp.Aggregations, AggregationResult{
				Function: f.Name(),
				Value:    merged.Aggregates[idx].Final(),
			})
		}

	case result.GroupByResult:
		gb := &GroupByResult{Columns: merged.GroupColumns}
		for _, f := range merged.Functions {
			gb.Functions = append(gb.Functions, f.Name())
		}

		for _, g := range result.SortedGroups(merged, q.GroupByTopN) {
			row := GroupRow{Values: g.Values, Aggregates: make([]float64, len(g.Aggregates))}
			for idx, v := range g.Aggregates {
				row.Aggregates[idx] = v.Final()
			}
			gb.Rows = append(gb.Rows, row)
		}
		resp.GroupBy = gb

	case result.SelectionResult:
		resp.Selection = &SelectionResult{Columns: merged.Columns, Rows: merged.Rows}
	}

	for _, f := range outcome.Failures {
		resp.Failures = append(resp.Failures, SegmentFailure{
			Segment: f.Segment,
			Status:  f.Status.String(),
			Reason:  f.Reason,
		})

		if f.Status == executor.TaskTimedOut {
			resp.Stats.SegmentsTimedOut++
		} else {
			resp.Stats.SegmentsFailed++
		}
	}

	for _, t := range outcome.Timings {
		resp.Timings = append(resp.Timings, SegmentTiming{Segment: t.Segment, Status: t.Status.String(), Took: t.Took})
	}

	resp.Stats.SegmentsQueried = len(outcome.Timings)
	resp.Stats.SegmentsProcessed = merged.Stats.Segments
	resp.Stats.TotalDocs = merged.Stats.TotalDocs
	resp.Stats.DocsMatched = merged.Stats.DocsMatched
	resp.Stats.Strategies = merged.Stats.Strategies
	resp.Stats.TimeUsed = took

	return resp
}

// Aggregation looks a final aggregate up by function name, NaN when absent
func (r *InstanceResponse) Aggregation(function string) float64 {
	for _, a := range r.Aggregations {
		if a.Function == function {
			return a.Value
		}
	}
	return math.NaN()
}

// InstanceResponseOperator runs the combine and shapes its outcome
type InstanceResponseOperator struct {
	query   *query.Query
	combine *executor.CombineOperator
}

func NewInstanceResponseOperator(q *query.Query, combine *executor.CombineOperator) *InstanceResponseOperator {
	return &InstanceResponseOperator{query: q, combine: combine}
}

func (o *InstanceResponseOperator) Name() string {
	return "INSTANCE_RESPONSE"
}

func (o *InstanceResponseOperator) Execute(ctx context.Context) (*InstanceResponse, error) {

	start := time.Now()

	outcome, err := o.combine.Execute(ctx)
	if err != nil {
		return nil, err
	}

	return FromOutcome(o.query, outcome, time.Since(start)), nil
}
