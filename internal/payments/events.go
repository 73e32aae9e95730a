package payments

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/payloads"
)

func paymentEvent(payment *models.Payment, order *models.Order, actor *outbox.ActorRef) outbox.DomainEvent {
	eventType := enums.EventPaymentSucceeded
	if payment.Status == enums.PaymentOutcomeFailed {
		eventType = enums.EventPaymentFailed
	}
	data := payloads.PaymentEvent{
		PaymentID:   payment.ID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		BuyerID:     order.BuyerID,
		ExternalRef: payment.ExternalRef,
		Amount:      money.Format(payment.Amount),
		Currency:    payment.Currency,
		Outcome:     payment.Status,
	}
	if payment.FailureReason != nil {
		data.FailureReason = *payment.FailureReason
	}
	return outbox.NewDomainEvent(eventType, enums.AggregatePayment, payment.ID, actor, data)
}

func actorRef(userID uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: string(role)}
}
