package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dot5enko/segquery/compression"
	"github.com/dot5enko/segquery/manager/config"
	"github.com/dot5enko/segquery/manager/executor"
	"github.com/dot5enko/segquery/manager/metrics"
	"github.com/dot5enko/segquery/manager/plan"
	"github.com/dot5enko/segquery/segment"
	"github.com/fatih/color"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrSegmentExists = errors.New("segment already exists")
	ErrNotMutable    = errors.New("segment is not a realtime segment")
)

// Manager is the query entry point of one instance: it owns the segments,
// the worker pool shared by all queries and the current plan maker
type Manager struct {
	config config.Config
	codec  compression.Codec

	Segments *segment.Registry

	planner atomic.Pointer[plan.InstancePlanMaker]
	pool    *ants.Pool

	registerer prometheus.Registerer
	metrics    *metrics.Metrics
}

type Option func(*Manager)

// WithLoader lets queries reference segments that are not registered yet
func WithLoader(loader segment.Loader) Option {
	return func(m *Manager) {
		m.Segments = segment.NewRegistry(loader)
	}
}

// WithRegisterer registers collectors with reg instead of a private registry
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		m.registerer = reg
	}
}

func New(cfg config.Config, opts ...Option) (*Manager, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := compression.ParseCodec(cfg.Response.Compression)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config:   cfg,
		codec:    codec,
		Segments: segment.NewRegistry(nil),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.registerer == nil {
		m.registerer = prometheus.NewRegistry()
	}
	m.metrics = metrics.NewMetrics(m.registerer, cfg.Metrics.Namespace)

	planner, err := plan.NewInstancePlanMaker(cfg.Query, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	m.planner.Store(planner)

	m.pool, err = executor.NewPool(cfg.Query.Workers, func(p any) {
		color.Red(" segment worker panic: %v", p)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create worker pool: %s", err.Error())
	}

	slog.Info("manager started", "workers", cfg.Query.Workers, "timeout", cfg.Timeout.Default.String(), "codec", codec.String())

	return m, nil
}

func (m *Manager) Config() config.Config {
	return m.config
}

// Register makes seg queryable, replacing a segment with the same name
func (m *Manager) Register(seg segment.Segment) {
	m.Segments.Add(seg)
	m.metrics.RegisteredSegments.Set(float64(len(m.Segments.Names())))

	slog.Debug("segment registered", "segment", seg.Name(), "docs", seg.TotalDocs(), "dictionary", seg.IsDictionaryBased())
}

func (m *Manager) Unregister(name string) bool {
	removed := m.Segments.Remove(name)
	m.metrics.RegisteredSegments.Set(float64(len(m.Segments.Names())))
	return removed
}

// ReloadTimeouts swaps the plan maker, queries already planned keep the
// timeout they were planned with
func (m *Manager) ReloadTimeouts(timeouts config.TimeoutConfig) error {

	planner, err := plan.NewInstancePlanMaker(m.config.Query, timeouts)
	if err != nil {
		return err
	}

	m.planner.Store(planner)
	slog.Info("query timeouts reloaded", "default", timeouts.Default.String(), "overrides", len(timeouts.Resources))

	return nil
}

func (m *Manager) PlanMaker() *plan.InstancePlanMaker {
	return m.planner.Load()
}

func (m *Manager) Close() {
	m.pool.Release()
}
