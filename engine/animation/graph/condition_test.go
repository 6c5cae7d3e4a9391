package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareOperators(t *testing.T) {
	tests := []struct {
		op          CompareOp
		left, right float32
		want        bool
	}{
		{CompareLess, 1, 2, true},
		{CompareLess, 2, 2, false},
		{CompareLessOrEqual, 2, 2, true},
		{CompareGreater, 3, 2, true},
		{CompareGreater, 2, 2, false},
		{CompareGreaterOrEqual, 2, 2, true},
		{CompareEqual, 2, 2, true},
		{CompareNotEqual, 2, 2, false},
		{CompareNotEqual, 1, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.op, tt.left, tt.right))
		})
	}
}

func TestCompareBoolOrdersFalseFirst(t *testing.T) {
	assert.True(t, CompareBool(CompareEqual, true, true))
	assert.False(t, CompareBool(CompareEqual, true, false))
	assert.True(t, CompareBool(CompareGreater, true, false))
	assert.True(t, CompareBool(CompareNotEqual, false, true))
}

func TestParseCompareOp(t *testing.T) {
	for _, sym := range []string{"<", "<=", ">", ">=", "==", "!="} {
		op, ok := ParseCompareOp(sym)
		assert.True(t, ok)
		assert.Equal(t, sym, op.String())
	}
	_, ok := ParseCompareOp("=>")
	assert.False(t, ok)
}

func TestConditionString(t *testing.T) {
	c := Condition{Op: CompareLessOrEqual, Value: RemainingTimeCondition{ClipConfigID: 4, Kind: RemainingRatio, Time: 0.25}}
	assert.Equal(t, "remaining_ratio(clip 4) <= 0.25", c.String())
}
