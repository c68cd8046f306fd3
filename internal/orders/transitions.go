package orders

import (
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

// fulfillmentTransitions is the only source of truth for order status moves.
// Anything not listed is rejected, which also rules out downgrades.
var fulfillmentTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusPlaced, enums.OrderStatusCancelled},
	enums.OrderStatusPlaced:     {enums.OrderStatusAccepted, enums.OrderStatusCancelled},
	enums.OrderStatusAccepted:   {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing:  {enums.OrderStatusDispatched, enums.OrderStatusCancelled},
	enums.OrderStatusDispatched: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:  {},
	enums.OrderStatusCancelled:  {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range fulfillmentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in the given status may still be
// cancelled. Only delivered and already-cancelled orders cannot.
func Cancellable(status enums.OrderStatus) bool {
	return CanTransition(status, enums.OrderStatusCancelled)
}

// vendorStatuses are the transitions a vendor may drive from their queue.
var vendorStatuses = map[enums.OrderStatus]bool{
	enums.OrderStatusAccepted:   true,
	enums.OrderStatusPreparing:  true,
	enums.OrderStatusDispatched: true,
	enums.OrderStatusDelivered:  true,
}

// VendorDriven reports whether the target status is one vendors control.
func VendorDriven(status enums.OrderStatus) bool {
	return vendorStatuses[status]
}
