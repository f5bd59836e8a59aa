package segment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
)

var ErrSegmentNotFound = errors.New("segment not found")

// Loader materializes a segment that is not resident yet
type Loader func(ctx context.Context, name string) (Segment, error)

type Registry struct {
	locker   sync.RWMutex
	segments map[string]Segment

	loader    Loader
	loadGroup singleflight.Group
}

func NewRegistry(loader Loader) *Registry {
	return &Registry{
		segments: map[string]Segment{},
		loader:   loader,
	}
}

func (r *Registry) Add(seg Segment) {
	r.locker.Lock()
	defer r.locker.Unlock()

	r.segments[seg.Name()] = seg
}

func (r *Registry) Remove(name string) bool {
	r.locker.Lock()
	defer r.locker.Unlock()

	_, ok := r.segments[name]
	delete(r.segments, name)

	return ok
}

func (r *Registry) Get(name string) (Segment, bool) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	seg, ok := r.segments[name]
	return seg, ok
}

func (r *Registry) Names() []string {
	r.locker.RLock()
	defer r.locker.RUnlock()

	names := make([]string, 0, len(r.segments))
	for name := range r.segments {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// Load returns a resident segment or loads it once, concurrent callers
// for the same name share the single load
func (r *Registry) Load(ctx context.Context, name string) (Segment, error) {

	if seg, ok := r.Get(name); ok {
		return seg, nil
	}

	if r.loader == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrSegmentNotFound)
	}

	v, err, shared := r.loadGroup.Do(name, func() (any, error) {

		if seg, ok := r.Get(name); ok {
			return seg, nil
		}

		seg, loadErr := r.loader(ctx, name)
		if loadErr != nil {
			return nil, fmt.Errorf("unable to load segment %s: %w", name, loadErr)
		}

		r.Add(seg)
		slog.Debug("segment loaded", "segment", name, "docs", seg.TotalDocs())

		return seg, nil
	})

	if err != nil {
		return nil, err
	}

	if shared {
		slog.Debug("segment load shared", "segment", name)
	}

	return v.(Segment), nil
}

// Acquire resolves a segment for query execution, mutable segments
// are pinned to a snapshot
func (r *Registry) Acquire(ctx context.Context, name string) (Segment, error) {

	seg, err := r.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	if mutable, ok := seg.(*MutableSegment); ok {
		return mutable.Snapshot(), nil
	}

	return seg, nil
}
