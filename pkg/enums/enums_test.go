package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus("shipped")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != OrderStatusShipped {
		t.Fatalf("expected shipped, got %q", got)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusPending:    false,
		OrderStatusConfirmed:  false,
		OrderStatusProcessing: false,
		OrderStatusShipped:    false,
		OrderStatusDelivered:  false,
		OrderStatusCancelled:  true,
		OrderStatusRefunded:   true,
	}
	for status, want := range terminal {
		if status.IsTerminal() != want {
			t.Fatalf("%s: expected terminal=%v", status, want)
		}
	}
}

func TestOutboxEventTypesAreValid(t *testing.T) {
	for _, eventType := range []OutboxEventType{EventOrderCreated, EventOrderStatusChanged, EventPaymentSucceeded, EventReturnCompleted} {
		if !eventType.IsValid() {
			t.Fatalf("expected %s to be valid", eventType)
		}
	}
	if OutboxEventType("order_created").IsValid() {
		t.Fatal("underscored legacy names are not event types")
	}
}

func TestParseCouponKind(t *testing.T) {
	if _, err := ParseCouponKind("bogo"); err == nil {
		t.Fatal("expected unknown coupon kind to fail")
	}
	kind, err := ParseCouponKind("percentage")
	if err != nil || kind != CouponKindPercentage {
		t.Fatalf("unexpected parse result %q %v", kind, err)
	}
}
