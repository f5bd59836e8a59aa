package operator

import (
	"context"

	"github.com/dot5enko/segquery/manager/result"
)

// DefaultMaxDocsPerBatch bounds the size of a single doc id batch
const DefaultMaxDocsPerBatch = 10_000

// Operator is the runtime counterpart of a plan node
type Operator interface {
	Name() string
}

// SegmentOperator computes the partial result of one segment. Execute
// checks ctx between batches and stops early once it is done.
type SegmentOperator interface {
	Operator
	Execute(ctx context.Context) (*result.SegmentResult, error)
}
