package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/payloads"
)

func orderCreatedEvent(order *models.Order, actor *outbox.ActorRef) outbox.DomainEvent {
	lines := make([]payloads.OrderCreatedLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, payloads.OrderCreatedLine{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			VendorID:  line.VendorID,
			Quantity:  line.Quantity,
			LineTotal: money.Format(line.LineTotal),
		})
	}
	data := payloads.OrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		BuyerID:     order.BuyerID,
		Total:       money.Format(order.Total),
		Currency:    order.Currency,
		Lines:       lines,
	}
	if order.CouponCode != nil {
		data.CouponCode = *order.CouponCode
	}
	return outbox.NewDomainEvent(enums.EventOrderCreated, enums.AggregateOrder, order.ID, actor, data)
}

// StatusChangedEvent builds order.status_changed for a transition out of from.
func StatusChangedEvent(order *models.Order, from enums.OrderStatus, reason string, actor *outbox.ActorRef, at time.Time) outbox.DomainEvent {
	data := payloads.OrderStatusChangedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		BuyerID:     order.BuyerID,
		OldStatus:   from,
		NewStatus:   order.Status,
		Reason:      reason,
		ChangedAt:   at,
	}
	if order.TrackingNumber != nil {
		data.TrackingNumber = *order.TrackingNumber
	}
	if order.Carrier != nil {
		data.Carrier = *order.Carrier
	}
	return outbox.NewDomainEvent(enums.EventOrderStatusChanged, enums.AggregateOrder, order.ID, actor, data)
}

func buyerActor(buyerID uuid.UUID) *outbox.ActorRef {
	return actorRef(buyerID, enums.UserRoleBuyer)
}

func actorRef(userID uuid.UUID, role enums.UserRole) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: userID, Role: string(role)}
}
