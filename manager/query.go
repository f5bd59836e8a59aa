package manager

import (
	"context"
	"log/slog"
	"time"

	"github.com/dot5enko/segquery/manager/metrics"
	"github.com/dot5enko/segquery/manager/plan"
	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/manager/response"
	"github.com/dot5enko/segquery/segment"
)

// acquire resolves segment names, the ones that can not be resolved become
// failed plans so they are reported in the response
func (m *Manager) acquire(ctx context.Context, names []string) ([]segment.Segment, []*plan.InnerSegmentPlan) {

	if len(names) == 0 {
		names = m.Segments.Names()
	}

	segments := make([]segment.Segment, 0, len(names))
	failed := []*plan.InnerSegmentPlan{}

	for _, name := range names {
		seg, err := m.Segments.Acquire(ctx, name)
		if err != nil {
			failed = append(failed, plan.FailedSegmentPlan(name, err))
			continue
		}
		segments = append(segments, seg)
	}

	return segments, failed
}

// Plan builds the global plan of q over the named segments, every
// registered segment when names is empty
func (m *Manager) Plan(ctx context.Context, q *query.Query, names []string) (*plan.GlobalPlan, error) {
	segments, failed := m.acquire(ctx, names)
	return m.planner.Load().MakeInterSegmentPlan(q, segments, m.pool, failed...)
}

func (m *Manager) Describe(ctx context.Context, q *query.Query, names []string) (plan.Description, error) {
	p, err := m.Plan(ctx, q, names)
	if err != nil {
		return plan.Description{}, err
	}
	return p.Describe(), nil
}

func (m *Manager) Query(ctx context.Context, q *query.Query, names []string) (*response.InstanceResponse, error) {

	start := time.Now()
	resource := q.Source.ResourceName

	p, err := m.Plan(ctx, q, names)
	if err != nil {
		m.metrics.ObserveQuery(resource, metrics.StatusError, time.Since(start))
		return nil, err
	}

	resp, err := p.Execute(ctx)
	if err != nil {
		m.metrics.ObserveQuery(resource, metrics.StatusError, time.Since(start))
		slog.Error("query failed", "request", q.Id.String(), "resource", resource, "err", err.Error())
		return nil, err
	}

	status := metrics.StatusOk
	if resp.Partial {
		status = metrics.StatusPartial
	}

	m.metrics.ObserveQuery(resource, status, time.Since(start))
	m.metrics.ObserveStrategies(resp.Stats.Strategies)
	m.metrics.DocsMatched.Add(float64(resp.Stats.DocsMatched))

	for _, t := range resp.Timings {
		m.metrics.ObserveSegment(t.Status, t.Took)
	}

	slog.Info("query finished",
		"request", q.Id.String(),
		"resource", resource,
		"segments", resp.Stats.SegmentsQueried,
		"failed", resp.Stats.SegmentsFailed,
		"timed_out", resp.Stats.SegmentsTimedOut,
		"matched", resp.Stats.DocsMatched,
		"took", time.Since(start).String(),
	)

	return resp, nil
}

// Encode serializes resp as a data table with the configured codec
func (m *Manager) Encode(resp *response.InstanceResponse) ([]byte, error) {

	data, err := resp.Encode(m.codec)
	if err != nil {
		return nil, err
	}

	m.metrics.ResponseBytes.WithLabelValues(m.codec.String()).Add(float64(len(data)))

	return data, nil
}
