package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dot5enko/segquery/manager/groupby"
	"github.com/dot5enko/segquery/manager/result"
	"github.com/panjf2000/ants/v2"
)

// SegmentTask runs the inner plan of a single segment
type SegmentTask interface {
	SegmentName() string
	Run(ctx context.Context) (*result.SegmentResult, error)
}

type TaskStatus byte

const (
	TaskSucceeded TaskStatus = iota
	TaskFailed
	TaskTimedOut
)

func (s TaskStatus) String() string {
	switch s {
	case TaskSucceeded:
		return "succeeded"
	case TaskFailed:
		return "failed"
	case TaskTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

type taskOutcome struct {
	idx    int
	result *result.SegmentResult
	err    error
	took   time.Duration
}

// NewPool creates the worker pool shared by every combine of an instance
func NewPool(workers int, onPanic func(any)) (*ants.Pool, error) {
	return ants.NewPool(workers, ants.WithPanicHandler(onPanic))
}

// runTask never panics, panics become errors. Invariant violations are
// tagged with ErrInvariantViolation so the combine can fail the query.
func runTask(ctx context.Context, idx int, task SegmentTask) (outcome taskOutcome) {

	start := time.Now()
	outcome.idx = idx

	defer func() {
		outcome.took = time.Since(start)

		if r := recover(); r != nil {
			if violation, ok := r.(groupby.InvariantViolation); ok {
				outcome.err = fmt.Errorf("%w in segment %s: %s", ErrInvariantViolation, task.SegmentName(), violation.Error())
			} else {
				outcome.err = fmt.Errorf("segment %s panicked: %v", task.SegmentName(), r)
			}
			outcome.result = nil
		}
	}()

	if err := ctx.Err(); err != nil {
		outcome.err = err
		return outcome
	}

	outcome.result, outcome.err = task.Run(ctx)

	var violation groupby.InvariantViolation
	if outcome.err != nil && errors.As(outcome.err, &violation) {
		outcome.err = fmt.Errorf("%w in segment %s: %s", ErrInvariantViolation, task.SegmentName(), outcome.err.Error())
	}

	return outcome
}
