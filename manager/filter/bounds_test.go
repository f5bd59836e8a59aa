package filter

import (
	"testing"

	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/schema"
)

func TestHeaderFullIntersectFilter(t *testing.T) {

	bounds := schema.NewBoundsFromValues(0.5, 0.8)

	filter := query.FilterCondition{
		Field:     "value",
		Operand:   query.GT,
		Arguments: []any{float32(0.4999)},
	}

	matchResult, matchErr := ProcessFilterOnBounds(filter, &bounds)

	if matchErr != nil {
		t.Errorf("unexpected error %v", matchErr)
	} else if matchResult != schema.FullIntersection {
		t.Errorf("expected full intersection, got %s", matchResult.String())
	}
}

func TestHeaderNoIntersectFilter(t *testing.T) {

	bounds := schema.NewBoundsFromValues(0.5, 0.8)

	filter := query.FilterCondition{
		Field:     "value",
		Operand:   query.LT,
		Arguments: []any{float32(0.4999)},
	}

	matchResult, matchErr := ProcessFilterOnBounds(filter, &bounds)

	if matchErr != nil {
		t.Errorf("unexpected error %v", matchErr)
	} else if matchResult != schema.NoIntersection {
		t.Errorf("expected no intersection, got %s", matchResult.String())
	}
}

func TestHeaderPartialIntersectFilter(t *testing.T) {

	bounds := schema.NewBoundsFromValues(0.5, 0.8)

	filter := query.FilterCondition{
		Field:     "value",
		Operand:   query.LT,
		Arguments: []any{float32(0.5999)},
	}

	matchResult, matchErr := ProcessFilterOnBounds(filter, &bounds)

	if matchErr != nil {
		t.Errorf("unexpected error %v", matchErr)
	} else if matchResult != schema.PartialIntersection {
		t.Errorf("expected partial intersection, got %s", matchResult.String())
	}
}

func TestHeaderStrictComparisons(t *testing.T) {

	bounds := schema.NewBoundsFromValues(10, 20)

	cases := []struct {
		cond     query.FilterCondition
		expected schema.BoundsFilterMatchResult
	}{
		{query.FilterCondition{Operand: query.GT, Arguments: []any{20}}, schema.NoIntersection},
		{query.FilterCondition{Operand: query.GT, Arguments: []any{9}}, schema.FullIntersection},
		{query.FilterCondition{Operand: query.LT, Arguments: []any{10}}, schema.NoIntersection},
		{query.FilterCondition{Operand: query.LT, Arguments: []any{21}}, schema.FullIntersection},
		{query.FilterCondition{Operand: query.RANGE, Arguments: []any{0, 10}}, schema.NoIntersection},
		{query.FilterCondition{Operand: query.RANGE, Arguments: []any{10, 21}}, schema.FullIntersection},
		{query.FilterCondition{Operand: query.RANGE, Arguments: []any{10, 20}}, schema.PartialIntersection},
		{query.FilterCondition{Operand: query.RANGE, Arguments: []any{15, 12}}, schema.NoIntersection},
		{query.FilterCondition{Operand: query.NEQ, Arguments: []any{5}}, schema.FullIntersection},
		{query.FilterCondition{Operand: query.IN, Arguments: []any{1, 2, 30}}, schema.NoIntersection},
		{query.FilterCondition{Operand: query.IN, Arguments: []any{1, 15}}, schema.PartialIntersection},
	}

	for _, tc := range cases {
		result, err := ProcessFilterOnBounds(tc.cond, &bounds)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tc.cond.String(), err)
			continue
		}
		if result != tc.expected {
			t.Errorf("%s: expected %s, got %s", tc.cond.String(), tc.expected.String(), result.String())
		}
	}
}
