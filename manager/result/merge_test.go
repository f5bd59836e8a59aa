package result

import (
	"testing"

	"github.com/dot5enko/segquery/manager/aggregation"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/stretchr/testify/require"
)

var functions = []aggregation.Function{
	{Type: aggregation.Count},
	{Type: aggregation.Sum, Column: "clicks"},
	{Type: aggregation.Max, Column: "clicks"},
}

func groupResult(rows map[string][]float64) *SegmentResult {
	r := NewGroupByResult(functions, []string{"country"})
	for country, clicks := range rows {
		g := r.Group([]any{country})
		for _, c := range clicks {
			g.Aggregates[0].AddCount(1)
			g.Aggregates[1].Add(c)
			g.Aggregates[2].Add(c)
		}
	}
	r.Stats = Stats{TotalDocs: 10, Segments: 1, Strategies: map[string]int{"packed-integer-key": 1}}
	return r
}

func TestMergeGroupsAnyOrder(t *testing.T) {

	segments := []*SegmentResult{
		groupResult(map[string][]float64{"us": {1, 2}, "de": {5}}),
		groupResult(map[string][]float64{"us": {10}, "fr": {3}}),
		groupResult(map[string][]float64{"de": {1}, "fr": {4, 4}}),
	}

	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {2, 0, 1}}

	for _, order := range orders {
		merged := NewGroupByResult(functions, []string{"country"})
		for _, idx := range order {
			require.NoError(t, Merge(merged, segments[idx]))
		}

		require.Len(t, merged.Groups, 3)

		us := merged.Groups["us"]
		require.Equal(t, float64(3), us.Aggregates[0].Final())
		require.Equal(t, float64(13), us.Aggregates[1].Final())
		require.Equal(t, float64(10), us.Aggregates[2].Final())

		fr := merged.Groups["fr"]
		require.Equal(t, float64(3), fr.Aggregates[0].Final())
		require.Equal(t, float64(11), fr.Aggregates[1].Final())

		de := merged.Groups["de"]
		require.Equal(t, float64(6), de.Aggregates[1].Final())

		require.Equal(t, 3, merged.Stats.Segments)
		require.Equal(t, int64(30), merged.Stats.TotalDocs)
		require.Equal(t, 3, merged.Stats.Strategies["packed-integer-key"])
	}

	// inputs are not mutated by merging
	require.Equal(t, float64(3), segments[0].Groups["us"].Aggregates[1].Final())
}

func TestMergeAggregates(t *testing.T) {
	a := NewAggregationResult(functions)
	a.Aggregates[1].Add(5)
	b := NewAggregationResult(functions)
	b.Aggregates[1].Add(7)

	merged := NewAggregationResult(functions)
	require.NoError(t, Merge(merged, a))
	require.NoError(t, Merge(merged, b))
	require.Equal(t, float64(12), merged.Aggregates[1].Final())
	require.Equal(t, float64(7), merged.Aggregates[2].Final())

	require.ErrorIs(t, Merge(merged, NewSelectionResult(nil)), ErrIncompatibleResults)
}

func TestGroupKey(t *testing.T) {
	require.Equal(t, "us\t10\t1.5", GroupKey([]any{"us", int64(10), 1.5}))
}

func TestFinalizeSelection(t *testing.T) {

	r := NewSelectionResult([]string{"country", "clicks"})
	r.Rows = [][]any{
		{"us", int64(5)},
		{"de", int64(20)},
		{"fr", int64(5)},
		{"it", int64(1)},
	}

	sel := &query.Selection{
		Columns: []string{"country", "clicks"},
		OrderBy: []query.SortSpec{{Column: "clicks", Descending: true}},
		Offset:  1,
		Limit:   2,
	}

	require.NoError(t, FinalizeSelection(r, sel))
	require.Equal(t, [][]any{{"us", int64(5)}, {"fr", int64(5)}}, r.Rows)

	bad := NewSelectionResult([]string{"country"})
	require.Error(t, FinalizeSelection(bad, &query.Selection{OrderBy: []query.SortSpec{{Column: "x"}}}))

	past := NewSelectionResult([]string{"country"})
	past.Rows = [][]any{{"us"}}
	require.NoError(t, FinalizeSelection(past, &query.Selection{Offset: 5}))
	require.Empty(t, past.Rows)
}

func TestSortedGroupsTopN(t *testing.T) {
	r := groupResult(map[string][]float64{"us": {1, 2, 3}, "de": {1}, "fr": {1, 1, 1}, "it": {1, 1}})

	top := SortedGroups(r, 2)
	require.Len(t, top, 2)
	require.Equal(t, []any{"fr"}, top[0].Values)
	require.Equal(t, []any{"us"}, top[1].Values)

	require.Len(t, SortedGroups(r, 0), 4)
}
