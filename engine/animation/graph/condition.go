package graph

import (
	"cmp"
	"fmt"
)

// CompareOp is the comparison operator of a condition.
type CompareOp uint8

const (
	CompareLess CompareOp = iota
	CompareLessOrEqual
	CompareGreater
	CompareGreaterOrEqual
	CompareEqual
	CompareNotEqual
)

var compareOpSymbols = [...]string{"<", "<=", ">", ">=", "==", "!="}

func (op CompareOp) String() string {
	if int(op) < len(compareOpSymbols) {
		return compareOpSymbols[op]
	}
	return fmt.Sprintf("CompareOp(%d)", uint8(op))
}

// ParseCompareOp maps an operator symbol to its CompareOp.
//
// Parameters:
//   - s: one of <, <=, >, >=, ==, !=
//
// Returns:
//   - CompareOp: the parsed operator
//   - bool: false if s is not a known operator
func ParseCompareOp(s string) (CompareOp, bool) {
	for i, sym := range compareOpSymbols {
		if sym == s {
			return CompareOp(i), true
		}
	}
	return 0, false
}

// Holds applies the operator to a three-way comparison result (-1, 0, 1).
func (op CompareOp) Holds(order int) bool {
	switch op {
	case CompareLess:
		return order < 0
	case CompareLessOrEqual:
		return order <= 0
	case CompareGreater:
		return order > 0
	case CompareGreaterOrEqual:
		return order >= 0
	case CompareEqual:
		return order == 0
	case CompareNotEqual:
		return order != 0
	}
	return false
}

// Compare evaluates "left op right" for any ordered type.
func Compare[T cmp.Ordered](op CompareOp, left, right T) bool {
	return op.Holds(cmp.Compare(left, right))
}

// CompareBool evaluates "left op right" with false ordered before true.
func CompareBool(op CompareOp, left, right bool) bool {
	return Compare(op, boolRank(left), boolRank(right))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// RemainingTimeKind selects how a clip's remaining time is measured.
type RemainingTimeKind uint8

const (
	// RemainingAbsolute is length minus elapsed time, in seconds.
	RemainingAbsolute RemainingTimeKind = iota
	// RemainingRatio is the remaining fraction of the clip, in [0, 1].
	RemainingRatio
)

func (k RemainingTimeKind) String() string {
	if k == RemainingRatio {
		return "ratio"
	}
	return "absolute"
}

// ConditionValue is the payload of a Condition. It is one of BoolCondition,
// IntCondition, FloatCondition or RemainingTimeCondition.
type ConditionValue interface {
	isConditionValue()
}

// BoolCondition compares a bool parameter against Value.
type BoolCondition struct {
	ParameterIndex int
	Value          bool
}

// IntCondition compares an int parameter against Value.
type IntCondition struct {
	ParameterIndex int
	Value          int32
}

// FloatCondition compares a float parameter against Value.
type FloatCondition struct {
	ParameterIndex int
	Value          float32
}

// RemainingTimeCondition compares the remaining playback time of a clip node,
// identified by config id, against Time.
type RemainingTimeCondition struct {
	ClipConfigID uint8
	Kind         RemainingTimeKind
	Time         float32
}

func (BoolCondition) isConditionValue()          {}
func (IntCondition) isConditionValue()           {}
func (FloatCondition) isConditionValue()         {}
func (RemainingTimeCondition) isConditionValue() {}

// Condition is one clause of a transition. The parameter or remaining time is the left
// operand: "parameter Op Value".
type Condition struct {
	Op    CompareOp
	Value ConditionValue
}

// String renders the condition for diagnostics.
func (c Condition) String() string {
	switch v := c.Value.(type) {
	case BoolCondition:
		return fmt.Sprintf("bool[%d] %s %t", v.ParameterIndex, c.Op, v.Value)
	case IntCondition:
		return fmt.Sprintf("int[%d] %s %d", v.ParameterIndex, c.Op, v.Value)
	case FloatCondition:
		return fmt.Sprintf("float[%d] %s %g", v.ParameterIndex, c.Op, v.Value)
	case RemainingTimeCondition:
		return fmt.Sprintf("remaining_%s(clip %d) %s %g", v.Kind, v.ClipConfigID, c.Op, v.Time)
	}
	return "invalid condition"
}
