package segment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dot5enko/segquery/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() schema.Schema {
	return schema.Schema{
		Name: "events",
		Columns: []schema.SchemaColumn{
			{Name: "country", Type: schema.StringFieldType},
			{Name: "clicks", Type: schema.Int64FieldType},
			{Name: "price", Type: schema.Float64FieldType},
		},
	}
}

func buildTestSegment(t *testing.T, opts ...BuilderOption) *ImmutableSegment {
	t.Helper()

	b := NewBuilder("seg_0", testSchema(), opts...)

	rows := []map[string]any{
		{"country": "us", "clicks": 10, "price": 1.5},
		{"country": "de", "clicks": 3, "price": 2.0},
		{"country": "us", "clicks": 7, "price": 0.5},
		{"country": "fr", "clicks": 10, "price": 4.0},
	}

	for _, row := range rows {
		require.NoError(t, b.AddRow(row))
	}

	seg, err := b.Build()
	require.NoError(t, err)

	return seg
}

func TestSortedDictionary(t *testing.T) {
	dict := NewSortedDictionary(schema.Int64FieldType, []int64{30, 10, 20, 10})

	require.Equal(t, 3, dict.Cardinality())
	require.Equal(t, []int64{10, 20, 30}, dict.Values())

	require.Equal(t, 1, dict.IndexOf(20))
	require.Equal(t, 1, dict.IndexOf(int64(20)))
	require.Equal(t, -1, dict.IndexOf(25))
	require.Equal(t, -1, dict.IndexOf("20"))

	lb, err := dict.LowerBound(15)
	require.NoError(t, err)
	require.Equal(t, 1, lb)

	ub, err := dict.UpperBound(20)
	require.NoError(t, err)
	require.Equal(t, 2, ub)

	_, err = dict.UpperBound("x")
	require.Error(t, err)

	floats, ok := dict.Float64Values()
	require.True(t, ok)
	require.Equal(t, []float64{10, 20, 30}, floats)

	strDict := NewSortedDictionary(schema.StringFieldType, []string{"b", "a"})
	_, ok = strDict.Float64Values()
	require.False(t, ok)
	require.Equal(t, "a", strDict.Get(0))
}

func TestBuilderDictionaryColumns(t *testing.T) {
	seg := buildTestSegment(t)

	require.Equal(t, 4, seg.TotalDocs())
	require.True(t, seg.IsDictionaryBased())

	country, ok := seg.Column("country")
	require.True(t, ok)
	require.True(t, country.HasDictionary())
	require.Equal(t, 3, country.Dictionary().Cardinality())
	require.Equal(t, []uint32{2, 0, 2, 1}, country.DictIds())
	require.Equal(t, "fr", country.ValueAt(3))

	clicks, _ := seg.Column("clicks")
	out := make([]float64, 2)
	require.NoError(t, clicks.ReadFloat64([]uint32{0, 1}, out))
	require.Equal(t, []float64{10, 3}, out)

	err := country.ReadFloat64([]uint32{0}, out)
	require.ErrorIs(t, err, ErrNotNumericColumn)

	_, ok = seg.Column("missing")
	require.False(t, ok)
}

func TestBuilderRawColumns(t *testing.T) {
	seg := buildTestSegment(t, WithRawColumns("price"))

	// a raw column does not turn a sealed segment into a realtime one
	require.True(t, seg.IsDictionaryBased())

	price, _ := seg.Column("price")
	require.False(t, price.HasDictionary())

	values, ok := RawValues[float64](price)
	require.True(t, ok)
	require.Equal(t, []float64{1.5, 2.0, 0.5, 4.0}, values)

	bounds, ok := price.BlockBounds(0)
	require.True(t, ok)
	require.Equal(t, schema.BoundsFloat{Min: 0.5, Max: 4.0}, bounds)

	_, ok = price.BlockBounds(1)
	require.False(t, ok)
}

func TestBuilderRejectsBadRows(t *testing.T) {
	b := NewBuilder("bad", testSchema())

	err := b.AddRow(map[string]any{"country": "us", "clicks": 1})
	require.ErrorIs(t, err, ErrRowMissingColumn)

	require.NoError(t, b.AddRow(map[string]any{"country": "us", "clicks": "many", "price": 1.0}))
	_, err = b.Build()
	require.Error(t, err)

	unsupported := NewBuilder("u8", schema.Schema{Columns: []schema.SchemaColumn{{Name: "x", Type: schema.Uint8FieldType}}})
	require.NoError(t, unsupported.AddRow(map[string]any{"x": 1}))
	_, err = unsupported.Build()
	require.Error(t, err)
}

func TestMutableSegmentSnapshot(t *testing.T) {
	m, err := NewMutableSegment("rt", testSchema())
	require.NoError(t, err)

	require.NoError(t, m.Append(map[string]any{"country": "us", "clicks": 1, "price": 1.0}))
	require.NoError(t, m.Append(map[string]any{"country": "de", "clicks": 2, "price": 2.0}))

	snap := m.Snapshot()

	require.NoError(t, m.Append(map[string]any{"country": "fr", "clicks": 3, "price": 3.0}))

	// failed append leaves the segment untouched
	require.Error(t, m.Append(map[string]any{"country": "fr", "clicks": "x", "price": 3.0}))

	require.Equal(t, 2, snap.TotalDocs())
	require.Equal(t, 3, m.TotalDocs())
	require.False(t, m.IsDictionaryBased())
	require.False(t, snap.IsDictionaryBased())

	col, ok := snap.Column("clicks")
	require.True(t, ok)
	require.Equal(t, 2, col.Rows())

	values, _ := RawValues[int64](col)
	require.Equal(t, []int64{1, 2}, values)

	live, _ := m.Column("country")
	require.Equal(t, "fr", live.ValueAt(2))
}

func TestRegistryLoadSharesConcurrentLoads(t *testing.T) {

	var loads atomic.Int32
	release := make(chan struct{})

	seg := buildTestSegment(t)

	registry := NewRegistry(func(ctx context.Context, name string) (Segment, error) {
		loads.Add(1)
		<-release
		return seg, nil
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loaded, err := registry.Load(context.Background(), "seg_0")
			if assert.NoError(t, err) {
				assert.Equal(t, "seg_0", loaded.Name())
			}
		}()
	}

	close(release)
	wg.Wait()

	require.LessOrEqual(t, loads.Load(), int32(8))
	require.GreaterOrEqual(t, loads.Load(), int32(1))

	_, ok := registry.Get("seg_0")
	require.True(t, ok)

	before := loads.Load()
	_, err := registry.Load(context.Background(), "seg_0")
	require.NoError(t, err)
	require.Equal(t, before, loads.Load())
}

func TestRegistryErrors(t *testing.T) {
	registry := NewRegistry(nil)

	_, err := registry.Load(context.Background(), "nope")
	require.ErrorIs(t, err, ErrSegmentNotFound)

	failing := NewRegistry(func(ctx context.Context, name string) (Segment, error) {
		return nil, errors.New("disk gone")
	})
	_, err = failing.Load(context.Background(), "seg")
	require.ErrorContains(t, err, "disk gone")

	m, _ := NewMutableSegment("rt", testSchema())
	registry.Add(m)
	registry.Add(buildTestSegment(t))

	require.Equal(t, []string{"rt", "seg_0"}, registry.Names())

	acquired, err := registry.Acquire(context.Background(), "rt")
	require.NoError(t, err)
	_, isMutable := acquired.(*MutableSegment)
	require.False(t, isMutable)

	require.True(t, registry.Remove("rt"))
	require.False(t, registry.Remove("rt"))
}
