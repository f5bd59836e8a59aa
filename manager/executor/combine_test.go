package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dot5enko/segquery/manager/aggregation"
	"github.com/dot5enko/segquery/manager/groupby"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/manager/result"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
)

var countOnly = []aggregation.Function{{Type: aggregation.Count}}

type fakeTask struct {
	name string
	run  func(ctx context.Context) (*result.SegmentResult, error)
}

func (f *fakeTask) SegmentName() string {
	return f.name
}

func (f *fakeTask) Run(ctx context.Context) (*result.SegmentResult, error) {
	return f.run(ctx)
}

func countTask(name string, count int64) *fakeTask {
	return &fakeTask{name: name, run: func(ctx context.Context) (*result.SegmentResult, error) {
		res := result.NewAggregationResult(countOnly)
		res.Aggregates[0].AddCount(count)
		res.Stats = result.Stats{TotalDocs: count, DocsMatched: count, Segments: 1}
		return res, nil
	}}
}

// blockedTask ignores cancellation until the test ends
func blockedTask(t *testing.T, name string) *fakeTask {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	return &fakeTask{name: name, run: func(ctx context.Context) (*result.SegmentResult, error) {
		<-release
		return nil, errors.New("released")
	}}
}

func failingTask(name string, err error) *fakeTask {
	return &fakeTask{name: name, run: func(ctx context.Context) (*result.SegmentResult, error) {
		return nil, err
	}}
}

func newTestPool(t *testing.T) *ants.Pool {
	pool, err := NewPool(8, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func combine(t *testing.T, timeout time.Duration, tasks ...SegmentTask) (*Outcome, error) {
	op := NewCombineOperator(newTestPool(t), tasks, CombineOptions{
		Timeout: timeout,
		Empty:   func() *result.SegmentResult { return result.NewAggregationResult(countOnly) },
	})
	return op.Execute(context.Background())
}

func TestCombineMergesEverySegment(t *testing.T) {

	tasks := []SegmentTask{}
	for i := range 10 {
		tasks = append(tasks, countTask(fmt.Sprintf("seg_%d", i), 1000))
	}

	out, err := combine(t, time.Second, tasks...)
	require.NoError(t, err)

	require.False(t, out.Partial)
	require.Empty(t, out.Failures)
	require.Len(t, out.Timings, 10)
	require.Equal(t, float64(10_000), out.Result.Aggregates[0].Final())
	require.Equal(t, 10, out.Result.Stats.Segments)
}

func TestCombineTimeoutReturnsPartialResult(t *testing.T) {

	start := time.Now()

	out, err := combine(t, 50*time.Millisecond,
		countTask("fast_0", 100),
		blockedTask(t, "slow"),
		countTask("fast_1", 100),
	)
	require.NoError(t, err)

	require.Less(t, time.Since(start), time.Second)
	require.True(t, out.Partial)
	require.Equal(t, float64(200), out.Result.Aggregates[0].Final())

	require.Len(t, out.Failures, 1)
	require.Equal(t, "slow", out.Failures[0].Segment)
	require.Equal(t, TaskTimedOut, out.Failures[0].Status)
}

func TestCombineIsolatesSegmentFailures(t *testing.T) {

	panicking := &fakeTask{name: "boom", run: func(ctx context.Context) (*result.SegmentResult, error) {
		panic("corrupted column")
	}}

	out, err := combine(t, time.Second,
		countTask("ok", 7),
		failingTask("missing_column", errors.New("column not found")),
		panicking,
	)
	require.NoError(t, err)

	require.True(t, out.Partial)
	require.Equal(t, float64(7), out.Result.Aggregates[0].Final())
	require.Len(t, out.Failures, 2)

	for _, f := range out.Failures {
		require.Equal(t, TaskFailed, f.Status)
	}
}

func TestCombineAllSegmentsFailed(t *testing.T) {
	_, err := combine(t, time.Second,
		failingTask("a", errors.New("bad")),
		failingTask("b", errors.New("worse")),
	)
	require.ErrorIs(t, err, ErrAllSegmentsFailed)
}

func TestCombineAllSegmentsTimedOut(t *testing.T) {
	_, err := combine(t, 20*time.Millisecond,
		blockedTask(t, "a"),
		blockedTask(t, "b"),
	)
	require.ErrorIs(t, err, ErrAllSegmentsFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorContains(t, err, "2 of 2 segments timed out")
}

func TestCombineFailedAndTimedOutSegments(t *testing.T) {
	_, err := combine(t, 20*time.Millisecond,
		failingTask("a", errors.New("bad")),
		blockedTask(t, "b"),
	)
	require.ErrorIs(t, err, ErrAllSegmentsFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorContains(t, err, "1 of 2 segments timed out")
}

func TestCombineInvariantViolationFailsQuery(t *testing.T) {

	violating := &fakeTask{name: "overflow", run: func(ctx context.Context) (*result.SegmentResult, error) {
		panic(groupby.InvariantViolation{Message: "id 16 exceeds 4 bits"})
	}}

	_, err := combine(t, time.Second, countTask("ok", 1), violating)
	require.ErrorIs(t, err, ErrInvariantViolation)
	require.ErrorContains(t, err, "overflow")

	returned := failingTask("raw", fmt.Errorf("build: %w", groupby.InvariantViolation{Message: "raw column"}))
	_, err = combine(t, time.Second, returned)
	require.ErrorIs(t, err, ErrInvariantViolation)
}

func TestCombineWithoutSegments(t *testing.T) {
	out, err := combine(t, time.Second)
	require.NoError(t, err)
	require.Equal(t, float64(0), out.Result.Aggregates[0].Final())
}

func TestCombineFinalizesSelection(t *testing.T) {

	rowsTask := func(name string, values ...int64) *fakeTask {
		return &fakeTask{name: name, run: func(ctx context.Context) (*result.SegmentResult, error) {
			res := result.NewSelectionResult([]string{"v"})
			for _, v := range values {
				res.Rows = append(res.Rows, []any{v})
			}
			return res, nil
		}}
	}

	sel := &query.Selection{Columns: []string{"v"}, OrderBy: []query.SortSpec{{Column: "v"}}, Limit: 3}

	op := NewCombineOperator(newTestPool(t), []SegmentTask{rowsTask("a", 5, 1, 9), rowsTask("b", 4, 2)}, CombineOptions{
		Timeout:   time.Second,
		Empty:     func() *result.SegmentResult { return result.NewSelectionResult(nil) },
		Selection: sel,
	})

	out, err := op.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"v"}, out.Result.Columns)
	require.Equal(t, [][]any{{int64(1)}, {int64(2)}, {int64(4)}}, out.Result.Rows)
}
