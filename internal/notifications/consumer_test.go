package notifications

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-engine/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/payloads"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/registry"
)

type fakeGuard struct {
	seen    map[uuid.UUID]bool
	err     error
	deleted []uuid.UUID
}

func (f *fakeGuard) CheckAndMarkProcessed(_ context.Context, _ string, eventID uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[uuid.UUID]bool{}
	}
	already := f.seen[eventID]
	f.seen[eventID] = true
	return already, nil
}

func (f *fakeGuard) Delete(_ context.Context, _ string, eventID uuid.UUID) error {
	delete(f.seen, eventID)
	f.deleted = append(f.deleted, eventID)
	return nil
}

type failingCreator struct{}

func (failingCreator) Create(context.Context, *models.Notification) (bool, error) {
	return false, errors.New("insert failed")
}

func newTestConsumer(repo creator, guard processedGuard) *Consumer {
	return &Consumer{
		repo:        repo,
		idempotency: guard,
		decoders:    registry.NewCommerceDecoderRegistry(),
		logg:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
}

func commerceMessage(t *testing.T, event outbox.DomainEvent) *pubsub.Message {
	t.Helper()
	row, err := outbox.BuildRow(event)
	if err != nil {
		t.Fatalf("build row: %v", err)
	}
	return &pubsub.Message{
		ID:         "msg-" + event.EventID.String(),
		Data:       row.Payload,
		Attributes: map[string]string{"event_type": string(event.EventType)},
	}
}

func TestConsumerWritesBuyerNotificationOnce(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	guard := &fakeGuard{}
	consumer := newTestConsumer(repo, guard)

	buyerID, orderID := uuid.New(), uuid.New()
	tracking := "1Z999"
	event := outbox.NewDomainEvent(enums.EventOrderStatusChanged, enums.AggregateOrder, orderID, nil, payloads.OrderStatusChangedEvent{
		OrderID:        orderID,
		OrderNumber:    "ORD-20260101-000007",
		BuyerID:        buyerID,
		OldStatus:      enums.OrderStatusProcessing,
		NewStatus:      enums.OrderStatusShipped,
		TrackingNumber: tracking,
		ChangedAt:      time.Now().UTC(),
	})
	msg := commerceMessage(t, event)

	if res := consumer.process(context.Background(), msg); !res.ack {
		t.Fatalf("expected ack, got %+v", res)
	}
	if res := consumer.process(context.Background(), msg); !res.ack {
		t.Fatalf("expected redelivery to ack, got %+v", res)
	}

	svc := newServiceWithRepo(repo)
	list, err := svc.List(context.Background(), ListParams{UserID: buyerID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(list.Items))
	}
	got := list.Items[0]
	if got.Type != enums.NotificationTypeOrderStatusChanged || got.EventID != event.EventID {
		t.Fatalf("unexpected notification %+v", got)
	}
	if got.Message != "Your order ORD-20260101-000007 has shipped. Tracking number: 1Z999." {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestConsumerSkipsUnknownAndMalformed(t *testing.T) {
	consumer := newTestConsumer(failingCreator{}, &fakeGuard{})

	unknown := &pubsub.Message{ID: "1", Data: []byte(`{}`), Attributes: map[string]string{"event_type": "store.opened"}}
	if res := consumer.process(context.Background(), unknown); !res.ack {
		t.Fatal("unknown events are acked")
	}

	garbage := &pubsub.Message{ID: "2", Data: []byte(`not json`), Attributes: map[string]string{"event_type": string(enums.EventOrderCreated)}}
	if res := consumer.process(context.Background(), garbage); !res.ack {
		t.Fatal("malformed envelopes are acked")
	}
}

func TestConsumerNacksAndReleasesOnWriteFailure(t *testing.T) {
	guard := &fakeGuard{}
	consumer := newTestConsumer(failingCreator{}, guard)

	orderID := uuid.New()
	event := outbox.NewDomainEvent(enums.EventPaymentFailed, enums.AggregatePayment, uuid.New(), nil, payloads.PaymentEvent{
		PaymentID: uuid.New(), OrderID: orderID, BuyerID: uuid.New(), OrderNumber: "ORD-20260101-000001",
		Amount: "10.00", Currency: "USD", Outcome: enums.PaymentOutcomeFailed,
	})
	res := consumer.process(context.Background(), commerceMessage(t, event))
	if !res.nack {
		t.Fatalf("expected nack, got %+v", res)
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != event.EventID {
		t.Fatalf("expected idempotency key released, got %v", guard.deleted)
	}
}

func TestConsumerNacksWhenIdempotencyUnavailable(t *testing.T) {
	consumer := newTestConsumer(failingCreator{}, &fakeGuard{err: errors.New("redis down")})
	event := outbox.NewDomainEvent(enums.EventOrderCreated, enums.AggregateOrder, uuid.New(), nil, payloads.OrderCreatedEvent{
		OrderID: uuid.New(), BuyerID: uuid.New(), OrderNumber: "ORD-20260101-000002", Total: "5.00", Currency: "USD",
	})
	if res := consumer.process(context.Background(), commerceMessage(t, event)); !res.nack {
		t.Fatalf("expected nack, got %+v", res)
	}
}

func TestBuildNotificationMessages(t *testing.T) {
	buyer := uuid.New()
	cases := []struct {
		eventType enums.OutboxEventType
		payload   any
		kind      enums.NotificationType
		message   string
	}{
		{
			enums.EventOrderCreated,
			&payloads.OrderCreatedEvent{BuyerID: buyer, OrderNumber: "ORD-1", Total: "60.05", Currency: "USD"},
			enums.NotificationTypeOrderCreated,
			"Your order ORD-1 for 60.05 USD has been placed.",
		},
		{
			enums.EventPaymentSucceeded,
			&payloads.PaymentEvent{BuyerID: buyer, OrderNumber: "ORD-1", Amount: "60.05", Currency: "USD"},
			enums.NotificationTypePaymentSucceeded,
			"We received 60.05 USD for order ORD-1.",
		},
		{
			enums.EventPaymentFailed,
			&payloads.PaymentEvent{BuyerID: buyer, OrderNumber: "ORD-1", FailureReason: "card declined"},
			enums.NotificationTypePaymentFailed,
			"Payment for order ORD-1 failed: card declined.",
		},
		{
			enums.EventReturnCompleted,
			&payloads.ReturnCompletedEvent{BuyerID: buyer, ReturnNumber: "RET-1", RefundAmount: "20.00"},
			enums.NotificationTypeReturnCompleted,
			"Return RET-1 is complete. 20.00 has been refunded.",
		},
	}
	for _, tc := range cases {
		n := buildNotification(tc.eventType, tc.payload)
		if n == nil {
			t.Fatalf("%s: expected notification", tc.eventType)
		}
		if n.Type != tc.kind || n.Message != tc.message || n.UserID != buyer {
			t.Fatalf("%s: unexpected notification %+v", tc.eventType, n)
		}
	}

	if n := buildNotification(enums.EventOrderCreated, &payloads.OrderCreatedEvent{}); n != nil {
		t.Fatal("events without a buyer notify no one")
	}
}

func TestRepositoryCreateIgnoresDuplicateEvent(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	eventID, userID := uuid.New(), uuid.New()

	first := &models.Notification{UserID: userID, EventID: eventID, Type: enums.NotificationTypeOrderCreated, Title: "t", Message: "m"}
	created, err := repo.Create(context.Background(), first)
	if err != nil || !created {
		t.Fatalf("first create: created=%v err=%v", created, err)
	}
	again := &models.Notification{UserID: userID, EventID: eventID, Type: enums.NotificationTypeOrderCreated, Title: "t", Message: "m"}
	created, err = repo.Create(context.Background(), again)
	if err != nil || created {
		t.Fatalf("duplicate create: created=%v err=%v", created, err)
	}

	if _, err := repo.MarkAllRead(context.Background(), userID, time.Now().Add(-48*time.Hour)); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	deleted, err := repo.DeleteReadBefore(context.Background(), time.Now().Add(-24*time.Hour))
	if err != nil || deleted != 1 {
		t.Fatalf("delete read: deleted=%d err=%v", deleted, err)
	}
}

