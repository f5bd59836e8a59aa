package plan

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dot5enko/segquery/manager/operator"
)

var (
	ErrMissingFilter      = errors.New("plan node requires a filter")
	ErrMissingAggregation = errors.New("plan node requires aggregations")
	ErrMissingGroupBy     = errors.New("plan node requires group by columns")
	ErrMissingSelection   = errors.New("plan node requires a selection")
)

// PlanNode is a lazily built operator factory. Build is idempotent and safe
// for concurrent use, every caller gets the same operator.
type PlanNode interface {
	Build() (operator.Operator, error)
	Describe() Description
}

type Description struct {
	Name     string
	Details  []string
	Children []Description
}

func (d Description) String() string {
	var sb strings.Builder
	d.write(&sb, 0)
	return sb.String()
}

func (d Description) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(d.Name)
	if len(d.Details) > 0 {
		sb.WriteString("(")
		sb.WriteString(strings.Join(d.Details, ", "))
		sb.WriteString(")")
	}
	sb.WriteString("\n")

	for _, child := range d.Children {
		child.write(sb, depth+1)
	}
}

// buildCell memoizes the single build of a node
type buildCell[T any] struct {
	once   sync.Once
	value  T
	err    error
	builds int
}

func (c *buildCell[T]) get(build func() (T, error)) (T, error) {
	c.once.Do(func() {
		c.builds++
		c.value, c.err = build()
		if c.err != nil {
			var zero T
			c.value = zero
		}
	})
	return c.value, c.err
}

func detail(key string, value any) string {
	return fmt.Sprintf("%s: %v", key, value)
}
