package result

import (
	"fmt"
	"strings"

	"github.com/dot5enko/segquery/manager/aggregation"
)

type Kind byte

const (
	AggregationResult Kind = iota
	GroupByResult
	SelectionResult
)

func (k Kind) String() string {
	switch k {
	case AggregationResult:
		return "aggregation"
	case GroupByResult:
		return "group-by"
	case SelectionResult:
		return "selection"
	default:
		panic(fmt.Sprintf("unknown result kind %d", k))
	}
}

type Stats struct {
	TotalDocs   int64
	DocsMatched int64
	Segments    int
	// group by strategy name to number of segments that used it
	Strategies map[string]int
}

func (s *Stats) Merge(other Stats) {
	s.TotalDocs += other.TotalDocs
	s.DocsMatched += other.DocsMatched
	s.Segments += other.Segments

	for name, n := range other.Strategies {
		if s.Strategies == nil {
			s.Strategies = map[string]int{}
		}
		s.Strategies[name] += n
	}
}

type Group struct {
	Values     []any
	Aggregates []aggregation.Value
}

// SegmentResult is the partial result of one segment, or of several after merging.
// Group keys are built from raw values so they are comparable across segments.
type SegmentResult struct {
	Kind Kind

	Functions  []aggregation.Function
	Aggregates []aggregation.Value

	GroupColumns []string
	Groups       map[string]*Group

	Columns []string
	Rows    [][]any

	Stats Stats
}

func NewAggregationResult(functions []aggregation.Function) *SegmentResult {
	return &SegmentResult{
		Kind:       AggregationResult,
		Functions:  functions,
		Aggregates: aggregation.NewValues(functions),
	}
}

func NewGroupByResult(functions []aggregation.Function, groupColumns []string) *SegmentResult {
	return &SegmentResult{
		Kind:         GroupByResult,
		Functions:    functions,
		GroupColumns: groupColumns,
		Groups:       map[string]*Group{},
	}
}

func NewSelectionResult(columns []string) *SegmentResult {
	return &SegmentResult{
		Kind:    SelectionResult,
		Columns: columns,
	}
}

// GroupKey joins raw group values with tabs
func GroupKey(values []any) string {
	var sb strings.Builder
	for idx, v := range values {
		if idx > 0 {
			sb.WriteByte('\t')
		}
		fmt.Fprint(&sb, v)
	}
	return sb.String()
}

// Group returns the group for values, creating it with empty aggregates
func (r *SegmentResult) Group(values []any) *Group {
	key := GroupKey(values)

	if g, ok := r.Groups[key]; ok {
		return g
	}

	g := &Group{
		Values:     values,
		Aggregates: aggregation.NewValues(r.Functions),
	}
	r.Groups[key] = g

	return g
}
