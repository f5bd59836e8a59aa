package query

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNoAggregationOrSelection = errors.New("query has neither aggregation nor selection")
	ErrInvalidFilter            = errors.New("invalid filter")
	ErrInvalidQuery             = errors.New("invalid query")
)

// AllColumns in a selection projects every schema column
const AllColumns = "*"

type (
	Source struct {
		ResourceName string
	}

	AggregationInfo struct {
		// COUNT, SUM, MIN, MAX or AVG
		Type string
		// ignored for COUNT
		Column string
	}

	SortSpec struct {
		Column     string
		Descending bool
	}

	Selection struct {
		Columns []string
		OrderBy []SortSpec

		Offset int
		// zero means no limit
		Limit int
	}

	Query struct {
		Id     uuid.UUID
		Source Source

		Filter       *FilterNode
		Aggregations []AggregationInfo

		GroupBy []string
		// keeps only the N biggest groups by the first aggregation, 0 disables trimming
		GroupByTopN int

		Selection *Selection
	}
)

func New(resource string) *Query {
	return &Query{
		Id:     uuid.New(),
		Source: Source{ResourceName: resource},
	}
}

func (q *Query) HasAggregation() bool {
	return len(q.Aggregations) > 0
}

func (q *Query) HasGroupBy() bool {
	return len(q.GroupBy) > 0
}

func (q *Query) HasSelection() bool {
	return q.Selection != nil
}

func (q *Query) HasFilter() bool {
	return q.Filter != nil
}

// Validate checks query shape only, column existence is a per segment concern
func (q *Query) Validate() error {

	if !q.HasAggregation() && !q.HasSelection() {
		return ErrNoAggregationOrSelection
	}

	if q.HasFilter() {
		if err := q.Filter.Validate(); err != nil {
			return err
		}
	}

	if q.HasSelection() {
		if q.Selection.Offset < 0 || q.Selection.Limit < 0 {
			return fmt.Errorf("negative offset or limit: %w", ErrInvalidQuery)
		}
		if len(q.Selection.Columns) == 0 {
			return fmt.Errorf("selection without columns: %w", ErrInvalidQuery)
		}
	}

	if q.GroupByTopN < 0 {
		return fmt.Errorf("negative group by top n: %w", ErrInvalidQuery)
	}

	return nil
}

// SelectedColumns expands `*` against the given schema column order
func (s *Selection) SelectedColumns(schemaColumns []string) []string {
	out := []string{}
	for _, col := range s.Columns {
		if col == AllColumns {
			out = append(out, schemaColumns...)
			continue
		}
		out = append(out, col)
	}
	return out
}

// RowBudget is how many rows a single segment has to produce, -1 when unbounded
func (s *Selection) RowBudget() int {
	if s.Limit == 0 || len(s.OrderBy) > 0 {
		return -1
	}
	return s.Offset + s.Limit
}
