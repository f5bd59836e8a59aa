package query

import (
	"fmt"

	"github.com/dot5enko/segquery/schema"
)

type FilterCondition struct {
	Field     string
	Operand   CondOperand
	Arguments []any
}

func (fc FilterCondition) ArgumentFloatValue(idx int) float64 {

	arg := fc.Arguments[idx]

	v, ok := schema.ToFloat64(arg)
	if !ok {
		panic(fmt.Sprintf("filter cond argument is not numeric: %T", arg))
	}

	return v
}

func (fc FilterCondition) Validate() error {

	arity := fc.Operand.Arity()

	if arity < 0 && len(fc.Arguments) == 0 {
		return fmt.Errorf("%s on `%s` requires at least one argument: %w", fc.Operand.String(), fc.Field, ErrInvalidFilter)
	}
	if arity > 0 && len(fc.Arguments) != arity {
		return fmt.Errorf("%s on `%s` requires %d arguments, got %d: %w", fc.Operand.String(), fc.Field, arity, len(fc.Arguments), ErrInvalidFilter)
	}

	return nil
}

func (fc FilterCondition) String() string {
	return fmt.Sprintf("%s %s %v", fc.Field, fc.Operand.String(), fc.Arguments)
}

type FilterNodeType byte

const (
	LeafNode FilterNodeType = iota
	AndNode
	OrNode
)

func (t FilterNodeType) String() string {
	switch t {
	case LeafNode:
		return "LEAF"
	case AndNode:
		return "AND"
	case OrNode:
		return "OR"
	default:
		return "UNKNOWN"
	}
}

// FilterNode is a predicate tree, leaves carry a condition, inner nodes children
type FilterNode struct {
	Type      FilterNodeType
	Condition FilterCondition
	Children  []*FilterNode
}

func Leaf(field string, operand CondOperand, args ...any) *FilterNode {
	return &FilterNode{
		Type:      LeafNode,
		Condition: FilterCondition{Field: field, Operand: operand, Arguments: args},
	}
}

func And(children ...*FilterNode) *FilterNode {
	return &FilterNode{Type: AndNode, Children: children}
}

func Or(children ...*FilterNode) *FilterNode {
	return &FilterNode{Type: OrNode, Children: children}
}

func (n *FilterNode) Validate() error {
	switch n.Type {
	case LeafNode:
		return n.Condition.Validate()
	case AndNode, OrNode:
		if len(n.Children) == 0 {
			return fmt.Errorf("%s node without children: %w", n.Type.String(), ErrInvalidFilter)
		}
		for _, child := range n.Children {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown filter node type %d: %w", n.Type, ErrInvalidFilter)
	}
}

// Columns lists referenced columns in first-seen order
func (n *FilterNode) Columns() []string {
	seen := map[string]bool{}
	out := []string{}

	var walk func(node *FilterNode)
	walk = func(node *FilterNode) {
		if node.Type == LeafNode {
			if !seen[node.Condition.Field] {
				seen[node.Condition.Field] = true
				out = append(out, node.Condition.Field)
			}
			return
		}
		for _, child := range node.Children {
			walk(child)
		}
	}
	walk(n)

	return out
}

func (n *FilterNode) String() string {
	if n.Type == LeafNode {
		return n.Condition.String()
	}

	out := n.Type.String() + "("
	for idx, child := range n.Children {
		if idx > 0 {
			out += ", "
		}
		out += child.String()
	}
	return out + ")"
}
