package query

import (
	"errors"
	"testing"
)

func TestValidateRequiresAggregationOrSelection(t *testing.T) {

	q := New("events")

	if err := q.Validate(); !errors.Is(err, ErrNoAggregationOrSelection) {
		t.Errorf("expected ErrNoAggregationOrSelection, got %v", err)
	}

	q.Aggregations = []AggregationInfo{{Type: "COUNT"}}
	if err := q.Validate(); err != nil {
		t.Errorf("aggregation query must be valid: %v", err)
	}

	sel := New("events")
	sel.Selection = &Selection{Columns: []string{AllColumns}, Limit: 10}
	if err := sel.Validate(); err != nil {
		t.Errorf("selection query must be valid: %v", err)
	}
}

func TestFilterValidation(t *testing.T) {

	cases := []struct {
		name  string
		node  *FilterNode
		valid bool
	}{
		{"eq", Leaf("a", EQ, 1), true},
		{"range needs two", Leaf("a", RANGE, 1), false},
		{"range", Leaf("a", RANGE, 1, 5), true},
		{"in empty", Leaf("a", IN), false},
		{"in", Leaf("a", IN, 1, 2, 3), true},
		{"and empty", And(), false},
		{"nested", Or(And(Leaf("a", GT, 1), Leaf("b", LT, 2)), Leaf("c", NEQ, "x")), true},
		{"nested invalid", Or(Leaf("a", GT)), false},
	}

	for _, tc := range cases {
		err := tc.node.Validate()
		if tc.valid && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("%s: expected ErrInvalidFilter, got %v", tc.name, err)
		}
	}
}

func TestFilterColumns(t *testing.T) {
	node := Or(And(Leaf("b", GT, 1), Leaf("a", LT, 2)), Leaf("b", NEQ, 3))

	cols := node.Columns()
	if len(cols) != 2 || cols[0] != "b" || cols[1] != "a" {
		t.Errorf("unexpected columns %v", cols)
	}

	if node.String() != "OR(AND(b GT [1], a LT [2]), b NEQ [3])" {
		t.Errorf("unexpected string %s", node.String())
	}
}

func TestSelectionHelpers(t *testing.T) {
	s := &Selection{Columns: []string{"x", AllColumns}, Offset: 5, Limit: 10}

	cols := s.SelectedColumns([]string{"a", "b"})
	if len(cols) != 3 || cols[0] != "x" || cols[2] != "b" {
		t.Errorf("unexpected columns %v", cols)
	}

	if s.RowBudget() != 15 {
		t.Errorf("expected budget 15, got %d", s.RowBudget())
	}

	s.OrderBy = []SortSpec{{Column: "a"}}
	if s.RowBudget() != -1 {
		t.Errorf("ordered selection must be unbounded per segment")
	}
}
