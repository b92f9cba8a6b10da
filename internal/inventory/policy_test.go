package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		stock int
		want  Action
	}{
		{"zero stock suspends", 0, ActionSuspendOrders},
		{"one unit limits", 1, ActionLimitOrders},
		{"two units limit", 2, ActionLimitOrders},
		{"three units no action", 3, ActionNone},
		{"plenty of stock", 50, ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.stock))
		})
	}
}

func TestCritical(t *testing.T) {
	assert.True(t, Critical(0, 5))
	assert.True(t, Critical(5, 5))
	assert.False(t, Critical(6, 5))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "suspend_orders", ActionSuspendOrders.String())
	assert.Equal(t, "limit_orders", ActionLimitOrders.String())
	assert.Equal(t, "none", ActionNone.String())
}
