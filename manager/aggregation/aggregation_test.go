package aggregation

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func TestParseType(t *testing.T) {
	for _, name := range []string{"count", "SUM", "Min", "max", "avg"} {
		if _, err := ParseType(name); err != nil {
			t.Errorf("%s must parse: %v", name, err)
		}
	}

	if _, err := ParseType("median"); !errors.Is(err, ErrUnsupportedAggregation) {
		t.Errorf("expected ErrUnsupportedAggregation, got %v", err)
	}
}

func TestFinalValues(t *testing.T) {
	values := []float64{4, 1, 7, 2}

	expected := map[Type]float64{Count: 4, Sum: 14, Min: 1, Max: 7, Avg: 3.5}

	for typ, want := range expected {
		v := NewValue(typ)
		v.AddBatch(values)

		if got := v.Final(); got != want {
			t.Errorf("%s: expected %v, got %v", typ.String(), want, got)
		}
	}

	empty := NewValue(Min)
	if !math.IsInf(empty.Final(), 1) {
		t.Errorf("empty min must be +inf, got %v", empty.Final())
	}
	if !math.IsNaN(NewValue(Avg).Final()) {
		t.Errorf("empty avg must be NaN")
	}
}

// merging any split of the input in any order gives the same result as one pass
func TestMergeOrderIndependent(t *testing.T) {

	rng := rand.New(rand.NewPCG(1, 2))

	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(rng.IntN(1000))
	}

	for _, typ := range []Type{Count, Sum, Min, Max, Avg} {

		whole := NewValue(typ)
		whole.AddBatch(values)

		parts := []Value{}
		for from := 0; from < len(values); from += 137 {
			part := NewValue(typ)
			part.AddBatch(values[from:min(from+137, len(values))])
			parts = append(parts, part)
		}

		for round := range 5 {
			rng.Shuffle(len(parts), func(i, j int) { parts[i], parts[j] = parts[j], parts[i] })

			merged := NewValue(typ)
			for _, p := range parts {
				merged.Merge(p)
			}

			if merged.Final() != whole.Final() {
				t.Errorf("%s round %d: expected %v, got %v", typ.String(), round, whole.Final(), merged.Final())
			}
		}
	}
}

func TestFunctionName(t *testing.T) {
	if name := (Function{Type: Count}).Name(); name != "COUNT(*)" {
		t.Errorf("unexpected name %s", name)
	}
	if name := (Function{Type: Sum, Column: "clicks"}).Name(); name != "SUM(clicks)" {
		t.Errorf("unexpected name %s", name)
	}
}
