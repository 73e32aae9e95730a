package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/idempotency"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/payloads"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/registry"
)

const buyerNotificationConsumer = "buyer-notifications"

type creator interface {
	Create(ctx context.Context, notification *models.Notification) (bool, error)
}

type processedGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer turns commerce events from the subscription into buyer notifications.
type Consumer struct {
	repo         creator
	subscription *pubsub.Subscriber
	idempotency  processedGuard
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds a buyer notification consumer.
func NewConsumer(repo creator, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("commerce subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		decoders:     registry.NewCommerceDecoderRegistry(),
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping unknown event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	payload, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}

	notification := buildNotification(eventType, payload)
	if notification == nil {
		c.logg.Info(logCtx, "event does not notify anyone")
		return processResult{ack: true}
	}
	notification.EventID = eventID

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, buyerNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	created, err := c.repo.Create(ctx, notification)
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, buyerNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if created {
		c.logg.Info(logCtx, "buyer notified")
	}
	return processResult{ack: true}
}

// buildNotification maps a decoded payload to the buyer facing notification,
// or nil when the event has no recipient.
func buildNotification(eventType enums.OutboxEventType, payload any) *models.Notification {
	switch p := payload.(type) {
	case *payloads.OrderCreatedEvent:
		return orderNotification(p.BuyerID, p.OrderID, enums.NotificationTypeOrderCreated,
			"Order placed",
			fmt.Sprintf("Your order %s for %s %s has been placed.", p.OrderNumber, p.Total, p.Currency))
	case *payloads.OrderStatusChangedEvent:
		message := fmt.Sprintf("Your order %s is now %s.", p.OrderNumber, p.NewStatus)
		if p.NewStatus == enums.OrderStatusShipped && p.TrackingNumber != "" {
			message = fmt.Sprintf("Your order %s has shipped. Tracking number: %s.", p.OrderNumber, p.TrackingNumber)
		}
		return orderNotification(p.BuyerID, p.OrderID, enums.NotificationTypeOrderStatusChanged, "Order updated", message)
	case *payloads.PaymentEvent:
		if eventType == enums.EventPaymentFailed {
			message := fmt.Sprintf("Payment for order %s failed.", p.OrderNumber)
			if p.FailureReason != "" {
				message = fmt.Sprintf("Payment for order %s failed: %s.", p.OrderNumber, p.FailureReason)
			}
			return orderNotification(p.BuyerID, p.OrderID, enums.NotificationTypePaymentFailed, "Payment failed", message)
		}
		return orderNotification(p.BuyerID, p.OrderID, enums.NotificationTypePaymentSucceeded,
			"Payment received",
			fmt.Sprintf("We received %s %s for order %s.", p.Amount, p.Currency, p.OrderNumber))
	case *payloads.ReturnCompletedEvent:
		return orderNotification(p.BuyerID, p.OrderID, enums.NotificationTypeReturnCompleted,
			"Return completed",
			fmt.Sprintf("Return %s is complete. %s has been refunded.", p.ReturnNumber, p.RefundAmount))
	default:
		return nil
	}
}

func orderNotification(userID, orderID uuid.UUID, kind enums.NotificationType, title, message string) *models.Notification {
	if userID == uuid.Nil {
		return nil
	}
	return &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		OrderID: &orderID,
	}
}
