package segment

import (
	"github.com/dot5enko/segquery/schema"
)

// Segment is an immutable (or snapshot-consistent) partition of a table.
// Doc ids are dense in [0, TotalDocs).
type Segment interface {
	Name() string
	TotalDocs() int
	Schema() schema.Schema
	Column(name string) (*Column, bool)

	// IsDictionaryBased is false for realtime segments, which never carry
	// dictionaries. Sealed segments may still keep single columns raw, see
	// Column.HasDictionary.
	IsDictionaryBased() bool
}

type ImmutableSegment struct {
	name    string
	docs    int
	schema  schema.Schema
	columns map[string]*Column

	// snapshot of a realtime segment
	realtime bool
}

func (s *ImmutableSegment) Name() string {
	return s.name
}

func (s *ImmutableSegment) TotalDocs() int {
	return s.docs
}

func (s *ImmutableSegment) Schema() schema.Schema {
	return s.schema
}

func (s *ImmutableSegment) Column(name string) (*Column, bool) {
	col, ok := s.columns[name]
	return col, ok
}

func (s *ImmutableSegment) IsDictionaryBased() bool {
	return !s.realtime
}
