package manager

import (
	"fmt"

	"github.com/dot5enko/segquery/schema"
	"github.com/dot5enko/segquery/segment"
)

// CreateSchema registers an empty realtime segment that accepts rows of sch
func (m *Manager) CreateSchema(name string, sch schema.Schema) (*segment.MutableSegment, error) {

	if _, exists := m.Segments.Get(name); exists {
		return nil, fmt.Errorf("%s: %w", name, ErrSegmentExists)
	}

	seg, err := segment.NewMutableSegment(name, sch)
	if err != nil {
		return nil, err
	}

	m.Register(seg)

	return seg, nil
}

func (m *Manager) mutable(name string) (*segment.MutableSegment, error) {

	seg, ok := m.Segments.Get(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, segment.ErrSegmentNotFound)
	}

	mutable, ok := seg.(*segment.MutableSegment)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotMutable)
	}

	return mutable, nil
}

// Ingest appends rows to a realtime segment. Rows before a failing one stay
// appended.
func (m *Manager) Ingest(name string, rows []map[string]any) (int, error) {

	seg, err := m.mutable(name)
	if err != nil {
		return 0, err
	}

	for idx, row := range rows {
		if err := seg.Append(row); err != nil {
			return idx, fmt.Errorf("row %d of %s: %w", idx, name, err)
		}
	}

	return len(rows), nil
}

// Seal converts a realtime segment into a dictionary encoded one and swaps
// it in the registry under the same name. Rows appended while sealing are
// not carried over.
func (m *Manager) Seal(name string) (*segment.ImmutableSegment, error) {

	seg, err := m.mutable(name)
	if err != nil {
		return nil, err
	}

	snapshot := seg.Snapshot()
	sch := snapshot.Schema()

	columns := make([]*segment.Column, len(sch.Columns))
	for idx, spec := range sch.Columns {
		col, ok := snapshot.Column(spec.Name)
		if !ok {
			return nil, fmt.Errorf("%s of %s: %w", spec.Name, name, segment.ErrColumnNotFound)
		}
		columns[idx] = col
	}

	b := segment.NewBuilder(name, sch)
	row := make(map[string]any, len(columns))

	for doc := range snapshot.TotalDocs() {
		for idx, col := range columns {
			row[sch.Columns[idx].Name] = col.ValueAt(uint32(doc))
		}
		if err := b.AddRow(row); err != nil {
			return nil, err
		}
	}

	sealed, err := b.Build()
	if err != nil {
		return nil, err
	}

	m.Register(sealed)

	return sealed, nil
}
