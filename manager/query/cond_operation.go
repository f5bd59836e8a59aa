package query

import "fmt"

type CondOperand byte

const (
	EQ CondOperand = iota
	GT
	LT
	// RANGE is half open: from <= v < to
	RANGE
	NEQ
	IN
)

func (c CondOperand) String() string {
	switch c {
	case EQ:
		return "EQ"
	case GT:
		return "GT"
	case LT:
		return "LT"
	case RANGE:
		return "RANGE"
	case NEQ:
		return "NEQ"
	case IN:
		return "IN"
	default:
		panic(fmt.Sprintf("unknown operand %v", byte(c)))
	}
}

// Arity is the required argument count, -1 means at least one
func (c CondOperand) Arity() int {
	switch c {
	case RANGE:
		return 2
	case IN:
		return -1
	default:
		return 1
	}
}
