package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/manager/result"
	"github.com/fatih/color"
	"github.com/panjf2000/ants/v2"
)

var (
	ErrAllSegmentsFailed  = errors.New("all segments failed")
	ErrInvariantViolation = errors.New("invariant violation")
)

type SegmentFailure struct {
	Segment string
	Status  TaskStatus
	Reason  string
}

type SegmentTiming struct {
	Segment string
	Status  TaskStatus
	Took    time.Duration
}

// Outcome is the merged result of every segment that finished in time
type Outcome struct {
	Result   *result.SegmentResult
	Partial  bool
	Failures []SegmentFailure
	Timings  []SegmentTiming
}

// CombineOperator runs one task per segment on the pool and merges the
// results that arrive before the timeout
type CombineOperator struct {
	pool    *ants.Pool
	tasks   []SegmentTask
	timeout time.Duration

	// empty result of the expected shape, merged into
	empty     func() *result.SegmentResult
	selection *query.Selection

	slowThreshold time.Duration
}

type CombineOptions struct {
	Timeout   time.Duration
	Empty     func() *result.SegmentResult
	Selection *query.Selection
	// segments slower than this are reported, 0 disables the report
	SlowThreshold time.Duration
}

func NewCombineOperator(pool *ants.Pool, tasks []SegmentTask, opts CombineOptions) *CombineOperator {
	return &CombineOperator{
		pool:          pool,
		tasks:         tasks,
		timeout:       opts.Timeout,
		empty:         opts.Empty,
		selection:     opts.Selection,
		slowThreshold: opts.SlowThreshold,
	}
}

func (c *CombineOperator) Name() string {
	return "COMBINE"
}

func (c *CombineOperator) Execute(parent context.Context) (*Outcome, error) {

	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	// buffered so abandoned tasks never block on send
	outcomes := make(chan taskOutcome, len(c.tasks))

	go func() {
		for idx, task := range c.tasks {
			submitErr := c.pool.Submit(func() {
				outcomes <- runTask(ctx, idx, task)
			})
			if submitErr != nil {
				outcomes <- taskOutcome{idx: idx, err: fmt.Errorf("unable to schedule segment %s: %s", task.SegmentName(), submitErr.Error())}
			}
		}
	}()

	out := &Outcome{Result: c.empty()}
	finished := make([]bool, len(c.tasks))
	received, succeeded, timedOut := 0, 0, 0

join:
	for received < len(c.tasks) {
		select {
		case o := <-outcomes:
			received++
			finished[o.idx] = true
			name := c.tasks[o.idx].SegmentName()

			if o.err == nil {
				if err := result.Merge(out.Result, o.result); err != nil {
					return nil, fmt.Errorf("unable to merge segment %s: %w", name, err)
				}
				succeeded++
				out.Timings = append(out.Timings, SegmentTiming{Segment: name, Status: TaskSucceeded, Took: o.took})

				if c.slowThreshold > 0 && o.took > c.slowThreshold {
					color.Yellow(" slow segment %s took %.2fms", name, o.took.Seconds()*1000)
				}
				continue
			}

			if errors.Is(o.err, ErrInvariantViolation) {
				color.Red(" %s", o.err.Error())
				return nil, o.err
			}

			status := TaskFailed
			if errors.Is(o.err, context.DeadlineExceeded) {
				status = TaskTimedOut
				timedOut++
			}

			out.Failures = append(out.Failures, SegmentFailure{Segment: name, Status: status, Reason: o.err.Error()})
			out.Timings = append(out.Timings, SegmentTiming{Segment: name, Status: status, Took: o.took})

			slog.Warn("segment failed", "segment", name, "status", status.String(), "err", o.err.Error())

		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ctx.Err()
			}

			for idx, done := range finished {
				if done {
					continue
				}
				name := c.tasks[idx].SegmentName()
				out.Failures = append(out.Failures, SegmentFailure{Segment: name, Status: TaskTimedOut, Reason: "timed out"})
				out.Timings = append(out.Timings, SegmentTiming{Segment: name, Status: TaskTimedOut, Took: c.timeout})
				timedOut++
			}

			color.Red(" combine timed out after %s, abandoned %d of %d segments", c.timeout.String(), len(c.tasks)-received, len(c.tasks))
			break join
		}
	}

	if len(c.tasks) > 0 && succeeded == 0 {
		if timedOut > 0 {
			return nil, fmt.Errorf("%w: %d of %d segments timed out after %s: %w",
				ErrAllSegmentsFailed, timedOut, len(c.tasks), c.timeout.String(), context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("%d segments: %w", len(c.tasks), ErrAllSegmentsFailed)
	}

	out.Partial = len(out.Failures) > 0

	if c.selection != nil && out.Result.Kind == result.SelectionResult {
		if err := result.FinalizeSelection(out.Result, c.selection); err != nil {
			return nil, err
		}
	}

	return out, nil
}
