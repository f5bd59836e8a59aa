package plan

import (
	"context"
	"errors"

	"github.com/dot5enko/segquery/manager/operator"
	"github.com/dot5enko/segquery/manager/result"
)

// segmentPlanNode is a root node that produces a segment result
type segmentPlanNode interface {
	PlanNode
	BuildSegmentOperator() (operator.SegmentOperator, error)
}

// InnerSegmentPlan is the plan of one segment, run by the combine as a task
type InnerSegmentPlan struct {
	segment string
	root    segmentPlanNode
}

func (p *InnerSegmentPlan) SegmentName() string {
	return p.segment
}

func (p *InnerSegmentPlan) Root() PlanNode {
	return p.root
}

func (p *InnerSegmentPlan) Run(ctx context.Context) (*result.SegmentResult, error) {
	op, err := p.root.BuildSegmentOperator()
	if err != nil {
		return nil, err
	}
	return op.Execute(ctx)
}

func (p *InnerSegmentPlan) Describe() Description {
	return Description{
		Name:     "SEGMENT",
		Details:  []string{p.segment},
		Children: []Description{p.root.Describe()},
	}
}

// failedPlanNode carries a per segment planning error to execution time,
// where it becomes a failure annotation of that segment only
type failedPlanNode struct {
	err error
}

func (n *failedPlanNode) Build() (operator.Operator, error) {
	return nil, n.err
}

func (n *failedPlanNode) BuildSegmentOperator() (operator.SegmentOperator, error) {
	return nil, n.err
}

func (n *failedPlanNode) Describe() Description {
	return Description{Name: "FAILED", Details: []string{n.err.Error()}}
}

// FailedSegmentPlan is a plan for a segment that can not be executed
func FailedSegmentPlan(segment string, err error) *InnerSegmentPlan {
	if err == nil {
		err = errors.New("segment can not be planned")
	}
	return &InnerSegmentPlan{segment: segment, root: &failedPlanNode{err: err}}
}
