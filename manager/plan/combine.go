package plan

import (
	"context"
	"time"

	"github.com/dot5enko/segquery/manager/aggregation"
	"github.com/dot5enko/segquery/manager/executor"
	"github.com/dot5enko/segquery/manager/operator"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/manager/response"
	"github.com/dot5enko/segquery/manager/result"
	"github.com/panjf2000/ants/v2"
)

type CombinePlanNode struct {
	query     *query.Query
	functions []aggregation.Function
	inner     []*InnerSegmentPlan
	pool      *ants.Pool

	timeout       time.Duration
	slowThreshold time.Duration

	cell buildCell[*executor.CombineOperator]
}

func (n *CombinePlanNode) Timeout() time.Duration {
	return n.timeout
}

func (n *CombinePlanNode) Inner() []*InnerSegmentPlan {
	return n.inner
}

func (n *CombinePlanNode) empty() *result.SegmentResult {
	switch {
	case n.query.HasAggregation() && n.query.HasGroupBy():
		return result.NewGroupByResult(n.functions, n.query.GroupBy)
	case n.query.HasAggregation():
		return result.NewAggregationResult(n.functions)
	default:
		return result.NewSelectionResult(nil)
	}
}

func (n *CombinePlanNode) BuildCombine() (*executor.CombineOperator, error) {
	return n.cell.get(func() (*executor.CombineOperator, error) {

		tasks := make([]executor.SegmentTask, len(n.inner))
		for idx, p := range n.inner {
			tasks[idx] = p
		}

		opts := executor.CombineOptions{
			Timeout:       n.timeout,
			Empty:         n.empty,
			SlowThreshold: n.slowThreshold,
		}
		if !n.query.HasAggregation() {
			opts.Selection = n.query.Selection
		}

		return executor.NewCombineOperator(n.pool, tasks, opts), nil
	})
}

func (n *CombinePlanNode) Build() (operator.Operator, error) {
	op, err := n.BuildCombine()
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (n *CombinePlanNode) Describe() Description {
	d := Description{
		Name:    "COMBINE",
		Details: []string{detail("segments", len(n.inner)), detail("timeout", n.timeout)},
	}
	for _, p := range n.inner {
		d.Children = append(d.Children, p.Describe())
	}
	return d
}

type InstanceResponsePlanNode struct {
	query   *query.Query
	combine *CombinePlanNode

	cell buildCell[*response.InstanceResponseOperator]
}

func (n *InstanceResponsePlanNode) BuildResponse() (*response.InstanceResponseOperator, error) {
	return n.cell.get(func() (*response.InstanceResponseOperator, error) {
		combine, err := n.combine.BuildCombine()
		if err != nil {
			return nil, err
		}
		return response.NewInstanceResponseOperator(n.query, combine), nil
	})
}

func (n *InstanceResponsePlanNode) Build() (operator.Operator, error) {
	op, err := n.BuildResponse()
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (n *InstanceResponsePlanNode) Describe() Description {
	return Description{
		Name:     "INSTANCE_RESPONSE",
		Details:  []string{detail("requestId", n.query.Id), detail("resource", n.query.Source.ResourceName)},
		Children: []Description{n.combine.Describe()},
	}
}

// GlobalPlan is the instance level plan of one query
type GlobalPlan struct {
	Query *query.Query
	Root  *InstanceResponsePlanNode
}

func (p *GlobalPlan) Combine() *CombinePlanNode {
	return p.Root.combine
}

func (p *GlobalPlan) Describe() Description {
	return p.Root.Describe()
}

func (p *GlobalPlan) Execute(ctx context.Context) (*response.InstanceResponse, error) {
	op, err := p.Root.BuildResponse()
	if err != nil {
		return nil, err
	}
	return op.Execute(ctx)
}
