package filter

import (
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring"
	"github.com/dot5enko/segquery/lists"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/schema"
	"github.com/dot5enko/segquery/segment"
)

type evaluator struct {
	seg  segment.Segment
	docs int

	matches *lists.BlockAnd
	docIds  []uint32
}

// Evaluate resolves a predicate tree against one segment into the set of matching doc ids
func Evaluate(seg segment.Segment, node *query.FilterNode) (*roaring.Bitmap, error) {

	e := &evaluator{
		seg:     seg,
		docs:    seg.TotalDocs(),
		matches: lists.NewBlockAnd(),
		docIds:  make([]uint32, 0, schema.BlockRowsSize),
	}

	result, err := e.evaluate(node)
	if err != nil {
		return nil, err
	}

	slog.Debug("filter evaluated", "segment", seg.Name(), "filter", node.String(), "matched", result.GetCardinality())

	return result, nil
}

func (e *evaluator) evaluate(node *query.FilterNode) (*roaring.Bitmap, error) {

	switch node.Type {
	case query.LeafNode:
		m, err := newMatcher(e.seg, node.Condition)
		if err != nil {
			return nil, err
		}
		return e.scan([]blockMatcher{m}), nil

	case query.AndNode:

		if allLeaves(node.Children) {
			matchers := make([]blockMatcher, 0, len(node.Children))
			for _, child := range node.Children {
				m, err := newMatcher(e.seg, child.Condition)
				if err != nil {
					return nil, err
				}
				matchers = append(matchers, m)
			}
			return e.scan(matchers), nil
		}

		children, err := e.evaluateChildren(node.Children)
		if err != nil {
			return nil, err
		}
		return roaring.FastAnd(children...), nil

	case query.OrNode:

		children, err := e.evaluateChildren(node.Children)
		if err != nil {
			return nil, err
		}
		return roaring.FastOr(children...), nil

	default:
		return nil, fmt.Errorf("unknown filter node type %d: %w", node.Type, query.ErrInvalidFilter)
	}
}

func (e *evaluator) evaluateChildren(nodes []*query.FilterNode) ([]*roaring.Bitmap, error) {
	out := make([]*roaring.Bitmap, 0, len(nodes))
	for _, child := range nodes {
		bm, err := e.evaluate(child)
		if err != nil {
			return nil, err
		}
		out = append(out, bm)
	}
	return out, nil
}

func allLeaves(nodes []*query.FilterNode) bool {
	for _, n := range nodes {
		if n.Type != query.LeafNode {
			return false
		}
	}
	return len(nodes) > 0
}

// scan walks the segment block by block and ANDs the matchers per block
func (e *evaluator) scan(matchers []blockMatcher) *roaring.Bitmap {

	result := roaring.New()
	matches := e.matches

	for block := 0; block*schema.BlockRowsSize < e.docs; block++ {

		from := block * schema.BlockRowsSize
		to := min(from+schema.BlockRowsSize, e.docs)

		matches.Reset(to - from)

		for _, m := range matchers {
			matches.With(m.match(block, from, to, matches.Scratch()))
			if matches.Empty() {
				break
			}
		}

		switch {
		case matches.Empty():
		case matches.Full():
			result.AddRange(uint64(from), uint64(to))
		default:
			e.docIds = matches.AppendDocIds(uint32(from), e.docIds[:0])
			result.AddMany(e.docIds)
		}
	}

	return result
}
