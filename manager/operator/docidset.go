package operator

import (
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring"
)

// FilteredDocIdSetOperator hands out the docs matching a filter in ascending
// batches. The filter runs at most once, on the first pull from any cursor,
// and its result is shared by every cursor created afterwards.
type FilteredDocIdSetOperator struct {
	filter          *FilterOperator
	totalDocs       int
	maxDocsPerBatch int

	once        sync.Once
	docs        *roaring.Bitmap
	err         error
	evaluations atomic.Int32

	main *DocIdCursor
}

// NewFilteredDocIdSetOperator with a nil filter covers every doc in [0, totalDocs)
func NewFilteredDocIdSetOperator(filter *FilterOperator, totalDocs, maxDocsPerBatch int) *FilteredDocIdSetOperator {

	if maxDocsPerBatch <= 0 {
		maxDocsPerBatch = DefaultMaxDocsPerBatch
	}

	o := &FilteredDocIdSetOperator{
		filter:          filter,
		totalDocs:       totalDocs,
		maxDocsPerBatch: maxDocsPerBatch,
	}
	o.main = o.NewCursor()

	return o
}

func (o *FilteredDocIdSetOperator) Name() string {
	return "DOC_ID_SET"
}

func (o *FilteredDocIdSetOperator) HasFilter() bool {
	return o.filter != nil
}

func (o *FilteredDocIdSetOperator) MaxDocsPerBatch() int {
	return o.maxDocsPerBatch
}

// Evaluations counts how many times the filter actually ran
func (o *FilteredDocIdSetOperator) Evaluations() int {
	return int(o.evaluations.Load())
}

func (o *FilteredDocIdSetOperator) materialize() (*roaring.Bitmap, error) {
	o.once.Do(func() {
		if o.filter == nil {
			return
		}
		o.evaluations.Add(1)
		o.docs, o.err = o.filter.Evaluate()
	})
	return o.docs, o.err
}

// MatchedDocs is the size of the filtered set, evaluating the filter if needed
func (o *FilteredDocIdSetOperator) MatchedDocs() (int, error) {
	if o.filter == nil {
		return o.totalDocs, nil
	}

	docs, err := o.materialize()
	if err != nil {
		return 0, err
	}

	return int(docs.GetCardinality()), nil
}

// NextBatch pulls from the operator's own cursor, nil means exhausted
func (o *FilteredDocIdSetOperator) NextBatch() ([]uint32, error) {
	return o.main.NextBatch()
}

// NewCursor starts an independent pass over the same doc set
func (o *FilteredDocIdSetOperator) NewCursor() *DocIdCursor {
	return &DocIdCursor{
		owner: o,
		buf:   make([]uint32, o.maxDocsPerBatch),
	}
}

// DocIdCursor is a single consumer pass. The returned batch is reused by
// the next call.
type DocIdCursor struct {
	owner *FilteredDocIdSetOperator
	buf   []uint32

	started bool
	next    int
	it      roaring.ManyIntIterable
}

func (c *DocIdCursor) NextBatch() ([]uint32, error) {

	if c.owner.filter == nil {
		return c.nextRange(), nil
	}

	if !c.started {
		docs, err := c.owner.materialize()
		if err != nil {
			return nil, err
		}
		c.it = docs.ManyIterator()
		c.started = true
	}

	n := c.it.NextMany(c.buf)
	if n == 0 {
		return nil, nil
	}

	return c.buf[:n], nil
}

func (c *DocIdCursor) nextRange() []uint32 {

	if c.next >= c.owner.totalDocs {
		return nil
	}

	to := min(c.next+len(c.buf), c.owner.totalDocs)
	batch := c.buf[:to-c.next]

	for i := range batch {
		batch[i] = uint32(c.next + i)
	}
	c.next = to

	return batch
}
