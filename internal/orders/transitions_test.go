package orders

import (
	"testing"

	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
)

func TestCanTransitionHappyPath(t *testing.T) {
	path := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusPlaced,
		enums.OrderStatusAccepted,
		enums.OrderStatusPreparing,
		enums.OrderStatusDispatched,
		enums.OrderStatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransitionRejectsDowngrades(t *testing.T) {
	if CanTransition(enums.OrderStatusDelivered, enums.OrderStatusDispatched) {
		t.Fatal("delivered must not downgrade")
	}
	if CanTransition(enums.OrderStatusDispatched, enums.OrderStatusPreparing) {
		t.Fatal("dispatched must not downgrade")
	}
	if CanTransition(enums.OrderStatusPlaced, enums.OrderStatusPlaced) {
		t.Fatal("self transition must be rejected")
	}
	if CanTransition(enums.OrderStatusPlaced, enums.OrderStatusDispatched) {
		t.Fatal("skipping preparation must be rejected")
	}
}

func TestCancellableWindow(t *testing.T) {
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusPlaced,
		enums.OrderStatusAccepted,
		enums.OrderStatusPreparing,
		enums.OrderStatusDispatched,
	} {
		if !Cancellable(status) {
			t.Fatalf("expected %s to be cancellable", status)
		}
	}
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	} {
		if Cancellable(status) {
			t.Fatalf("expected %s to not be cancellable", status)
		}
	}
}

func TestVendorDriven(t *testing.T) {
	if VendorDriven(enums.OrderStatusCancelled) {
		t.Fatal("vendors do not cancel through status updates")
	}
	if VendorDriven(enums.OrderStatusPlaced) {
		t.Fatal("placed is payment-driven, not vendor-driven")
	}
	if !VendorDriven(enums.OrderStatusAccepted) {
		t.Fatal("accepted should be vendor-driven")
	}
}
