package result

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/dot5enko/segquery/manager/aggregation"
	"github.com/dot5enko/segquery/manager/query"
)

var ErrIncompatibleResults = errors.New("incompatible segment results")

// Merge folds from into into. For aggregation and group by results the
// outcome does not depend on merge order.
func Merge(into, from *SegmentResult) error {

	if into.Kind != from.Kind {
		return fmt.Errorf("%s with %s: %w", into.Kind.String(), from.Kind.String(), ErrIncompatibleResults)
	}

	switch into.Kind {
	case AggregationResult:
		if len(into.Aggregates) != len(from.Aggregates) {
			return fmt.Errorf("%d aggregates with %d: %w", len(into.Aggregates), len(from.Aggregates), ErrIncompatibleResults)
		}
		aggregation.MergeAll(into.Aggregates, from.Aggregates)

	case GroupByResult:
		MergeGroups(into, from)

	case SelectionResult:
		if into.Columns == nil {
			into.Columns = from.Columns
		}
		into.Rows = append(into.Rows, from.Rows...)
	}

	into.Stats.Merge(from.Stats)

	return nil
}

// MergeGroups unions the key sets, shared keys combine their aggregates
func MergeGroups(into, from *SegmentResult) {
	for key, group := range from.Groups {
		existing, ok := into.Groups[key]
		if !ok {
			into.Groups[key] = &Group{
				Values:     group.Values,
				Aggregates: slices.Clone(group.Aggregates),
			}
			continue
		}
		aggregation.MergeAll(existing.Aggregates, group.Aggregates)
	}
}

// compareValues orders numbers numerically and everything else by its string form
func compareValues(a, b any) int {
	af, aNumeric := toFloat(a)
	bf, bNumeric := toFloat(b)

	if aNumeric && bNumeric {
		return cmp.Compare(af, bf)
	}

	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// FinalizeSelection applies the global order by, then offset and limit
func FinalizeSelection(r *SegmentResult, sel *query.Selection) error {

	if len(sel.OrderBy) > 0 {

		positions := make([]int, len(sel.OrderBy))
		for idx, spec := range sel.OrderBy {
			positions[idx] = slices.Index(r.Columns, spec.Column)
			if positions[idx] < 0 {
				return fmt.Errorf("order by column `%s` is not selected", spec.Column)
			}
		}

		slices.SortStableFunc(r.Rows, func(a, b []any) int {
			for idx, spec := range sel.OrderBy {
				c := compareValues(a[positions[idx]], b[positions[idx]])
				if spec.Descending {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	from := min(sel.Offset, len(r.Rows))
	to := len(r.Rows)
	if sel.Limit > 0 {
		to = min(from+sel.Limit, to)
	}

	r.Rows = r.Rows[from:to]

	return nil
}

// SortedGroups orders groups by their first aggregate descending, ties by key.
// topN > 0 keeps only the first topN groups.
func SortedGroups(r *SegmentResult, topN int) []*Group {

	type keyed struct {
		key   string
		group *Group
	}

	all := make([]keyed, 0, len(r.Groups))
	for key, g := range r.Groups {
		all = append(all, keyed{key: key, group: g})
	}

	slices.SortFunc(all, func(a, b keyed) int {
		if len(a.group.Aggregates) > 0 {
			if c := cmp.Compare(b.group.Aggregates[0].Final(), a.group.Aggregates[0].Final()); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.key, b.key)
	})

	if topN > 0 && len(all) > topN {
		all = all[:topN]
	}

	out := make([]*Group, len(all))
	for idx, k := range all {
		out[idx] = k.group
	}

	return out
}
