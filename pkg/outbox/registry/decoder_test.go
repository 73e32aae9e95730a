package registry

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderStatusChanged, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"newStatus":"shipped"}`)
	output, err := reg.Decode(enums.EventOrderStatusChanged, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["newStatus"] != "shipped" {
		t.Fatalf("unexpected output %+v", output)
	}
	if _, err := reg.Decode(enums.EventOrderStatusChanged, 2, input); err == nil {
		t.Fatalf("expected unregistered version to fail")
	}
}

func TestCommerceDecoderRegistry(t *testing.T) {
	reg := NewCommerceDecoderRegistry()
	orderID := uuid.New()

	raw := mustMarshal(t, payloads.PaymentEvent{
		OrderID: orderID,
		Amount:  "42.50",
		Outcome: enums.PaymentOutcomeFailed,
	})
	decoded, err := reg.Decode(enums.EventPaymentFailed, 1, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payment, ok := decoded.(*payloads.PaymentEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", decoded)
	}
	if payment.OrderID != orderID || payment.Amount != "42.50" {
		t.Fatalf("payload mismatch %+v", payment)
	}

	for _, eventType := range []enums.OutboxEventType{
		enums.EventOrderCreated,
		enums.EventOrderStatusChanged,
		enums.EventPaymentSucceeded,
		enums.EventReturnCompleted,
	} {
		if _, err := reg.Decode(eventType, 1, json.RawMessage(`{}`)); err != nil {
			t.Fatalf("expected decoder for %s: %v", eventType, err)
		}
	}
}
