package response

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dot5enko/segquery/compression"
	"github.com/dot5enko/segquery/manager/aggregation"
	"github.com/dot5enko/segquery/manager/executor"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/manager/result"
	"github.com/stretchr/testify/require"
)

func groupOutcome() *executor.Outcome {
	functions := []aggregation.Function{{Type: aggregation.Count}, {Type: aggregation.Sum, Column: "clicks"}}

	merged := result.NewGroupByResult(functions, []string{"country"})
	for country, n := range map[string]int{"us": 5, "de": 2, "fr": 9} {
		g := merged.Group([]any{country})
		g.Aggregates[0].AddCount(int64(n))
		g.Aggregates[1].Add(float64(n * 10))
	}
	merged.Stats = result.Stats{TotalDocs: 100, DocsMatched: 16, Segments: 2, Strategies: map[string]int{"packed-integer-key": 2}}

	return &executor.Outcome{
		Result:   merged,
		Partial:  true,
		Failures: []executor.SegmentFailure{{Segment: "seg_3", Status: executor.TaskTimedOut, Reason: "timed out"}},
		Timings:  make([]executor.SegmentTiming, 3),
	}
}

func TestFromOutcomeGroupBy(t *testing.T) {

	q := query.New("events")
	q.GroupByTopN = 2

	resp := FromOutcome(q, groupOutcome(), 5*time.Millisecond)

	require.Equal(t, q.Id, resp.RequestId)
	require.True(t, resp.Partial)
	require.Equal(t, []string{"COUNT(*)", "SUM(clicks)"}, resp.GroupBy.Functions)
	require.Len(t, resp.GroupBy.Rows, 2)
	require.Equal(t, []any{"fr"}, resp.GroupBy.Rows[0].Values)
	require.Equal(t, []float64{9, 90}, resp.GroupBy.Rows[0].Aggregates)

	require.Equal(t, 1, resp.Stats.SegmentsTimedOut)
	require.Equal(t, 0, resp.Stats.SegmentsFailed)
	require.Equal(t, 3, resp.Stats.SegmentsQueried)
	require.Equal(t, 2, resp.Stats.SegmentsProcessed)
	require.Equal(t, "timed out", resp.Failures[0].Status)
}

func TestFromOutcomeAggregation(t *testing.T) {
	merged := result.NewAggregationResult([]aggregation.Function{{Type: aggregation.Count}})
	merged.Aggregates[0].AddCount(10_000)

	resp := FromOutcome(query.New("events"), &executor.Outcome{Result: merged}, 0)
	require.Equal(t, float64(10_000), resp.Aggregation("COUNT(*)"))
	require.True(t, math.IsNaN(resp.Aggregation("SUM(x)")))
}

func TestDataTableAcrossCodecs(t *testing.T) {

	q := query.New("events")
	resp := FromOutcome(q, groupOutcome(), 5*time.Millisecond)
	resp.Selection = &SelectionResult{
		Columns: []string{"a", "b", "c", "d", "e"},
		Rows:    [][]any{{int32(1), int64(2), float32(1.5), 2.5, "x"}, {nil, int64(-1), float32(0), 0.0, ""}},
	}
	resp.Aggregations = []AggregationResult{{Function: "COUNT(*)", Value: 16}}
	require.NotEmpty(t, resp.Timings)
	resp.Timings = nil

	for _, codec := range []compression.Codec{compression.NoCompression, compression.Lz4Compression, compression.ZstdCompression} {

		data, err := resp.Encode(codec)
		require.NoError(t, err, codec.String())

		decoded, err := Decode(data)
		require.NoError(t, err, codec.String())
		require.Equal(t, resp, decoded, codec.String())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {

	_, err := Decode([]byte("nope"))
	require.ErrorIs(t, err, ErrBadDataTable)

	resp := &InstanceResponse{Resource: "events"}
	data, err := resp.Encode(compression.NoCompression)
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-3])
	require.ErrorIs(t, err, ErrBadDataTable)

	data[4] = 9
	_, err = Decode(data)
	require.True(t, errors.Is(err, ErrUnsupportedVersion))
}

func TestEncodeRejectsUnknownValues(t *testing.T) {
	resp := &InstanceResponse{Selection: &SelectionResult{Rows: [][]any{{struct{}{}}}}}
	_, err := resp.Encode(compression.Lz4Compression)
	require.Error(t, err)
}
