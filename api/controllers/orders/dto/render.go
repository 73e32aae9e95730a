package orderdto

import (
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
	"github.com/angelmondragon/marketplace-engine/pkg/pagination"
)

func NewOrder(order *models.Order) Order {
	lines := make([]OrderLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderLine{
			ID:               line.ID,
			ProductID:        line.ProductID,
			VariantID:        line.VariantID,
			VendorID:         line.VendorID,
			ProductName:      line.ProductName,
			SKU:              line.SKU,
			Quantity:         line.Quantity,
			UnitPrice:        money.Format(line.UnitPrice),
			LineTotal:        money.Format(line.LineTotal),
			CommissionRate:   money.Format(line.CommissionRate),
			CommissionAmount: money.Format(line.CommissionAmount),
			VendorPayout:     money.Format(line.VendorPayout),
		})
	}
	return Order{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		BuyerID:           order.BuyerID,
		ShippingAddressID: order.ShippingAddressID,
		BillingAddressID:  order.BillingAddressID,
		PaymentMethod:     order.PaymentMethod,
		Status:            order.Status,
		PaymentStatus:     order.PaymentStatus,
		Currency:          order.Currency,
		Subtotal:          money.Format(order.Subtotal),
		ShippingCost:      money.Format(order.ShippingCost),
		TaxAmount:         money.Format(order.TaxAmount),
		DiscountAmount:    money.Format(order.DiscountAmount),
		Total:             money.Format(order.Total),
		CouponCode:        order.CouponCode,
		CustomerNote:      order.CustomerNote,
		CancelReason:      order.CancelReason,
		TrackingNumber:    order.TrackingNumber,
		Carrier:           order.Carrier,
		PaidAt:            order.PaidAt,
		ShippedAt:         order.ShippedAt,
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		CreatedAt:         order.CreatedAt,
		Lines:             lines,
	}
}

func NewHistory(rows []models.OrderStatusHistory) []StatusChange {
	out := make([]StatusChange, 0, len(rows))
	for _, row := range rows {
		out = append(out, StatusChange{
			From:      row.OldStatus,
			To:        row.NewStatus,
			ChangedBy: row.ChangedBy,
			Note:      row.Note,
			At:        row.CreatedAt,
		})
	}
	return out
}

func NewOrderList(page pagination.Page[models.Order]) OrderList {
	items := make([]OrderSummary, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, OrderSummary{
			ID:            order.ID,
			OrderNumber:   order.OrderNumber,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			Total:         money.Format(order.Total),
			Currency:      order.Currency,
			CreatedAt:     order.CreatedAt,
		})
	}
	return OrderList{Items: items, NextCursor: page.NextCursor}
}

func NewPayment(payment *models.Payment) Payment {
	return Payment{
		ID:            payment.ID,
		OrderID:       payment.OrderID,
		ExternalRef:   payment.ExternalRef,
		Amount:        money.Format(payment.Amount),
		Currency:      payment.Currency,
		Method:        payment.Method,
		Status:        payment.Status,
		FailureReason: payment.FailureReason,
		CreatedAt:     payment.CreatedAt,
	}
}

func NewRefund(refund *models.Refund) Refund {
	return Refund{
		ID:        refund.ID,
		OrderID:   refund.OrderID,
		ReturnID:  refund.ReturnID,
		Amount:    money.Format(refund.Amount),
		Reason:    refund.Reason,
		CreatedAt: refund.CreatedAt,
	}
}

func NewReturn(request *models.ReturnRequest) Return {
	return Return{
		ID:              request.ID,
		ReturnNumber:    request.ReturnNumber,
		OrderID:         request.OrderID,
		OrderLineID:     request.OrderLineID,
		BuyerID:         request.BuyerID,
		Reason:          request.Reason,
		Description:     request.Description,
		Quantity:        request.Quantity,
		Status:          request.Status,
		RequestedAmount: money.Format(request.RequestedAmount),
		RefundAmount:    money.Format(request.RefundAmount),
		AdminNote:       request.AdminNote,
		DecidedAt:       request.DecidedAt,
		CompletedAt:     request.CompletedAt,
		CreatedAt:       request.CreatedAt,
	}
}
