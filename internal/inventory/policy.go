package inventory

import (
	"foodcourt/internal/constants"
)

// Action is the decision derived from a critical stock level. The same
// classification drives both consumers of the fanout: the notifications
// service turns it into an alert, the orders service into order restrictions.
type Action int

const (
	ActionNone Action = iota
	ActionLimitOrders
	ActionSuspendOrders
)

func (a Action) String() string {
	switch a {
	case ActionLimitOrders:
		return "limit_orders"
	case ActionSuspendOrders:
		return "suspend_orders"
	default:
		return "none"
	}
}

// Classify maps the remaining stock of a product to the action both handler
// variants must take. Out of stock suspends ordering outright; a near-empty
// shelf caps the per-order quantity at what is left.
func Classify(currentStock int) Action {
	switch {
	case currentStock <= constants.StockSuspendThreshold:
		return ActionSuspendOrders
	case currentStock <= constants.StockLimitThreshold:
		return ActionLimitOrders
	default:
		return ActionNone
	}
}

// Critical reports whether a stock level must be announced on the fanout
// exchange at all.
func Critical(currentStock, criticalLevel int) bool {
	return currentStock <= criticalLevel
}
