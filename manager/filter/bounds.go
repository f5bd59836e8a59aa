package filter

import (
	"fmt"

	"github.com/dot5enko/segquery/manager/query"
	"github.com/dot5enko/segquery/schema"
)

// ProcessFilterOnBounds decides whether a block with the given min/max can
// match the condition at all, or matches it entirely
func ProcessFilterOnBounds(
	filter query.FilterCondition,
	bounds *schema.BoundsFloat,
) (matchResult schema.BoundsFilterMatchResult, err error) {

	switch filter.Operand {
	case query.RANGE:

		operandFrom := filter.ArgumentFloatValue(0)
		operandTo := filter.ArgumentFloatValue(1)

		if operandFrom >= operandTo {
			return schema.NoIntersection, nil
		}

		return bounds.Intersects(schema.BoundsFloat{Min: operandFrom, Max: operandTo}), nil

	case query.EQ:

		operand := filter.ArgumentFloatValue(0)

		if !bounds.Contains(operand) {
			return schema.NoIntersection, nil
		}
		if bounds.Min == operand && bounds.Max == operand {
			return schema.FullIntersection, nil
		}

		return schema.PartialIntersection, nil

	case query.NEQ:

		operand := filter.ArgumentFloatValue(0)

		if !bounds.Contains(operand) {
			return schema.FullIntersection, nil
		}
		if bounds.Min == operand && bounds.Max == operand {
			return schema.NoIntersection, nil
		}

		return schema.PartialIntersection, nil

	case query.GT:

		operand := filter.ArgumentFloatValue(0)

		if operand >= bounds.Max {
			return schema.NoIntersection, nil
		}

		if operand < bounds.Min {
			return schema.FullIntersection, nil
		}

		return schema.PartialIntersection, nil

	case query.LT:

		operand := filter.ArgumentFloatValue(0)

		if operand <= bounds.Min {
			return schema.NoIntersection, nil
		}

		if operand > bounds.Max {
			return schema.FullIntersection, nil
		}

		return schema.PartialIntersection, nil

	case query.IN:

		for idx := range filter.Arguments {
			if bounds.Contains(filter.ArgumentFloatValue(idx)) {
				return schema.PartialIntersection, nil
			}
		}

		return schema.NoIntersection, nil

	default:
		return schema.UnknownIntersection, fmt.Errorf("unsupported operand type=%v while ProcessFilterOnBounds", filter.Operand)
	}
}
