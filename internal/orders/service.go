// Package orders turns carts into orders and drives the order status machine.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/internal/cart"
	"github.com/angelmondragon/marketplace-engine/internal/catalog"
	"github.com/angelmondragon/marketplace-engine/internal/commission"
	"github.com/angelmondragon/marketplace-engine/internal/coupons"
	"github.com/angelmondragon/marketplace-engine/internal/inventory"
	"github.com/angelmondragon/marketplace-engine/pkg/config"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/metrics"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
	"github.com/angelmondragon/marketplace-engine/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	GetCart(ctx context.Context, buyerID uuid.UUID) (*cart.View, error)
	RemoveOrderedWithTx(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, ordered []models.CartItem) error
}

type catalogLookup interface {
	Lookup(ctx context.Context, productID, variantID uuid.UUID) (*catalog.Snapshot, error)
}

type identityDirectory interface {
	GetBuyer(ctx context.Context, buyerID uuid.UUID) (*models.User, error)
	OwnedAddress(ctx context.Context, buyerID, addressID uuid.UUID) (*models.Address, error)
	VendorCommissionRate(ctx context.Context, vendorID uuid.UUID) (*decimal.Decimal, error)
}

type couponRedeemer interface {
	Validate(ctx context.Context, code string, cartTotal decimal.Decimal, customerID uuid.UUID) (coupons.Result, error)
	Redeem(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, customerID, orderID uuid.UUID, discount decimal.Decimal) error
}

type stockLedger interface {
	TryDebit(ctx context.Context, tx *gorm.DB, productID, variantID uuid.UUID, qty int) (inventory.DebitResult, error)
	Credit(ctx context.Context, tx *gorm.DB, productID, variantID uuid.UUID, qty int) (int, error)
}

type refundLedger interface {
	ReverseForRefund(ctx context.Context, tx *gorm.DB, order *models.Order, lineID *uuid.UUID, amount decimal.Decimal) error
}

// Pricing holds the checkout knobs applied when totals are computed.
type Pricing struct {
	Currency              string
	FlatShipping          decimal.Decimal
	ZoneRates             map[string]decimal.Decimal
	TaxRatePercent        decimal.Decimal
	DefaultCommissionRate decimal.Decimal
}

// PricingFromConfig converts the checkout config section.
func PricingFromConfig(cfg config.CheckoutConfig) Pricing {
	return Pricing{
		Currency:              strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		FlatShipping:          cfg.FlatShippingAmount(),
		ZoneRates:             cfg.ZoneRates(),
		TaxRatePercent:        cfg.TaxRate(),
		DefaultCommissionRate: cfg.CommissionRate(),
	}
}

// ShippingFor returns the zone rate for country, or the flat rate.
func (p Pricing) ShippingFor(country string) decimal.Decimal {
	if rate, ok := p.ZoneRates[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return rate
	}
	return p.FlatShipping
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo      *Repository
	Tx        txRunner
	Carts     cartStore
	Catalog   catalogLookup
	Identity  identityDirectory
	Coupons   couponRedeemer
	Stock     stockLedger
	Ledger    refundLedger
	Sequencer Sequencer
	Pricing   Pricing
	Metrics   *metrics.CommerceMetrics
	Logger    *logger.Logger
}

type Service struct {
	repo      *Repository
	tx        txRunner
	carts     cartStore
	catalog   catalogLookup
	identity  identityDirectory
	coupons   couponRedeemer
	stock     stockLedger
	ledger    refundLedger
	sequencer Sequencer
	pricing   Pricing
	metrics   *metrics.CommerceMetrics
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart store required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog lookup required")
	case params.Identity == nil:
		return nil, fmt.Errorf("identity directory required")
	case params.Coupons == nil:
		return nil, fmt.Errorf("coupon redeemer required")
	case params.Stock == nil:
		return nil, fmt.Errorf("stock ledger required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("refund ledger required")
	case params.Sequencer == nil:
		return nil, fmt.Errorf("order sequencer required")
	}
	pricing := params.Pricing
	if pricing.Currency == "" {
		pricing.Currency = "USD"
	}
	return &Service{
		repo:      params.Repo,
		tx:        params.Tx,
		carts:     params.Carts,
		catalog:   params.Catalog,
		identity:  params.Identity,
		coupons:   params.Coupons,
		stock:     params.Stock,
		ledger:    params.Ledger,
		sequencer: params.Sequencer,
		pricing:   pricing,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// CreateOrderInput is the buyer's checkout request.
type CreateOrderInput struct {
	BuyerID           uuid.UUID
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
	PaymentMethod     enums.PaymentMethod
	CouponCode        *string
	CustomerNote      *string
}

// CreateOrderResult carries the persisted order and the events to dispatch.
type CreateOrderResult struct {
	Order  *models.Order
	Events []outbox.DomainEvent
}

// ChangeResult is returned by operations that move an order's status.
type ChangeResult struct {
	Order  *models.Order
	Events []outbox.DomainEvent
}

type pricedLine struct {
	snapshot *catalog.Snapshot
	quantity int
	total    decimal.Decimal
	split    commission.Split
}

// CreateOrder assembles an order from the buyer's cart. Catalog and identity
// reads happen first; stock debits, coupon redemption, persistence and the
// cart clear then run in one transaction so any failure leaves no trace.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	result, err := s.createOrder(ctx, input)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Reason() != "" {
			s.metrics.IncCheckoutRejected(typed.Reason())
		}
		return nil, err
	}
	s.metrics.IncOrderCreated()
	return result, nil
}

func (s *Service) createOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if input.ShippingAddressID == uuid.Nil || input.BillingAddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping and billing addresses required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}

	view, err := s.carts.GetCart(ctx, input.BuyerID)
	if err != nil {
		return nil, err
	}
	if view.IsEmpty() {
		return nil, pkgerrors.Reject(pkgerrors.CodeValidation, pkgerrors.ReasonEmptyCart, "cart is empty").
			WithDetails(map[string]any{"reason": pkgerrors.ReasonEmptyCart})
	}

	if _, err := s.identity.GetBuyer(ctx, input.BuyerID); err != nil {
		return nil, err
	}
	shipping, err := s.identity.OwnedAddress(ctx, input.BuyerID, input.ShippingAddressID)
	if err != nil {
		return nil, err
	}
	if _, err := s.identity.OwnedAddress(ctx, input.BuyerID, input.BillingAddressID); err != nil {
		return nil, err
	}

	lines, err := s.priceLines(ctx, view.Items)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.total)
	}
	shippingCost := money.Round(s.pricing.ShippingFor(shipping.Country))
	tax := money.Percent(subtotal, s.pricing.TaxRatePercent)

	discount := decimal.Zero
	var coupon *models.Coupon
	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		res, err := s.coupons.Validate(ctx, *input.CouponCode, subtotal, input.BuyerID)
		if err != nil {
			return nil, err
		}
		if !res.Valid {
			return nil, coupons.Rejection(res.Reason, coupons.NormalizeCode(*input.CouponCode))
		}
		discount = res.Discount
		coupon = res.Coupon
	}

	total := money.Sum(subtotal, shippingCost, tax).Sub(discount)
	if total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("computed negative order total %s", money.Format(total)))
	}

	now := s.now().UTC()
	seq, err := s.sequencer.Next(ctx, now.Format(dayLayout))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
	}

	order := &models.Order{
		ID:                uuid.New(),
		OrderNumber:       FormatNumber(now, seq),
		BuyerID:           input.BuyerID,
		ShippingAddressID: input.ShippingAddressID,
		BillingAddressID:  input.BillingAddressID,
		PaymentMethod:     input.PaymentMethod,
		Subtotal:          subtotal,
		ShippingCost:      shippingCost,
		TaxAmount:         tax,
		DiscountAmount:    discount,
		Total:             total,
		Currency:          s.pricing.Currency,
		Status:            enums.OrderStatusPending,
		PaymentStatus:     enums.PaymentStatusPending,
		CustomerNote:      trimmedOrNil(input.CustomerNote),
	}
	if coupon != nil {
		couponID := coupon.ID
		code := coupon.Code
		order.CouponID = &couponID
		order.CouponCode = &code
	}
	order.Lines = make([]models.OrderLine, 0, len(lines))
	for _, line := range lines {
		order.Lines = append(order.Lines, models.OrderLine{
			OrderID:          order.ID,
			ProductID:        line.snapshot.ProductID,
			VariantID:        line.snapshot.VariantID,
			VendorID:         line.snapshot.VendorID,
			ProductName:      line.snapshot.Name,
			SKU:              line.snapshot.SKU,
			Quantity:         line.quantity,
			UnitPrice:        line.snapshot.Price,
			LineTotal:        line.total,
			CommissionRate:   line.split.Rate,
			CommissionAmount: line.split.Commission,
			VendorPayout:     line.split.VendorPayout,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, line := range order.Lines {
			if _, err := s.stock.TryDebit(ctx, tx, line.ProductID, line.VariantID, line.Quantity); err != nil {
				return err
			}
		}
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
		if err := repo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			NewStatus: enums.OrderStatusPending,
			ChangedBy: &input.BuyerID,
			Note:      "order placed",
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order history")
		}
		if coupon != nil {
			if err := s.coupons.Redeem(ctx, tx, coupon, input.BuyerID, order.ID, discount); err != nil {
				return err
			}
		}
		return s.carts.RemoveOrderedWithTx(ctx, tx, input.BuyerID, view.Items)
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"buyer_id":     order.BuyerID.String(),
			"total":        money.Format(order.Total),
			"lines":        len(order.Lines),
		})
		s.logg.Info(logCtx, "order created")
	}

	return &CreateOrderResult{
		Order:  order,
		Events: []outbox.DomainEvent{orderCreatedEvent(order, buyerActor(order.BuyerID))},
	}, nil
}

// priceLines snapshots current catalog prices and vendor commission rates.
func (s *Service) priceLines(ctx context.Context, items []models.CartItem) ([]pricedLine, error) {
	rates := map[uuid.UUID]decimal.Decimal{}
	lines := make([]pricedLine, 0, len(items))
	for _, item := range items {
		snap, err := s.catalog.Lookup(ctx, item.ProductID, item.VariantID)
		if err != nil {
			return nil, err
		}
		if !snap.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is no longer available", item.ProductID)).
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		rate, ok := rates[snap.VendorID]
		if !ok {
			vendorRate, err := s.identity.VendorCommissionRate(ctx, snap.VendorID)
			if err != nil {
				return nil, err
			}
			rate = commission.ResolveRate(vendorRate, s.pricing.DefaultCommissionRate)
			rates[snap.VendorID] = rate
		}
		total := money.Round(snap.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		lines = append(lines, pricedLine{
			snapshot: snap,
			quantity: item.Quantity,
			total:    total,
			split:    commission.Calculate(total, rate),
		})
	}
	return lines, nil
}

// CancelOrderInput identifies who cancels which order.
type CancelOrderInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Reason  string
	IsAdmin bool
}

// CancelOrder cancels an order that has not been delivered, returning its
// stock. A paid order is marked refunded without contacting the gateway.
func (s *Service) CancelOrder(ctx context.Context, input CancelOrderInput) (*ChangeResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !input.IsAdmin && order.BuyerID != input.ActorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
	}
	role := enums.UserRoleBuyer
	if input.IsAdmin {
		role = enums.UserRoleAdmin
	}
	return s.cancel(ctx, order, input.ActorID, role, input.Reason)
}

func (s *Service) cancel(ctx context.Context, order *models.Order, actorID uuid.UUID, role enums.UserRole, reason string) (*ChangeResult, error) {
	switch order.Status {
	case enums.OrderStatusCancelled, enums.OrderStatusDelivered, enums.OrderStatusRefunded:
		return nil, InvalidTransition(string(order.Status), string(enums.OrderStatusCancelled))
	}

	now := s.now().UTC()
	observed := order.Status
	refund := order.PaymentStatus == enums.PaymentStatusPaid
	reason = strings.TrimSpace(reason)

	updates := map[string]any{
		"status":       enums.OrderStatusCancelled,
		"cancelled_at": now,
		"updated_at":   now,
	}
	if reason != "" {
		updates["cancel_reason"] = reason
	}
	if refund {
		updates["payment_status"] = enums.PaymentStatusRefunded
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.TransitionStatus(ctx, order.ID, observed, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !ok {
			return pkgerrors.Reject(pkgerrors.CodeStateConflict, pkgerrors.ReasonInvalidStateTransition, "order changed concurrently").
				WithDetails(map[string]any{"reason": pkgerrors.ReasonInvalidStateTransition})
		}
		for _, line := range order.Lines {
			if _, err := s.stock.Credit(ctx, tx, line.ProductID, line.VariantID, line.Quantity); err != nil {
				return err
			}
		}
		if refund {
			if err := s.ledger.ReverseForRefund(ctx, tx, order, nil, order.Total); err != nil {
				return err
			}
		}
		return repo.AppendHistory(ctx, historyEntry(order.ID, observed, enums.OrderStatusCancelled, actorID, reason))
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	order.UpdatedAt = now
	if reason != "" {
		order.CancelReason = &reason
	}
	if refund {
		order.PaymentStatus = enums.PaymentStatusRefunded
	}
	s.logTransition(ctx, order, observed)

	event := StatusChangedEvent(order, observed, reason, actorRef(actorID, role), now)
	return &ChangeResult{Order: order, Events: []outbox.DomainEvent{event}}, nil
}

// UpdateStatusInput is a fulfillment driven status change.
type UpdateStatusInput struct {
	OrderID        uuid.UUID
	NewStatus      enums.OrderStatus
	TrackingNumber *string
	Carrier        *string
	ActorID        uuid.UUID
	Note           *string
}

// UpdateOrderStatus moves an order along the status machine. Cancellation is
// routed through CancelOrder so stock is returned.
func (s *Service) UpdateOrderStatus(ctx context.Context, input UpdateStatusInput) (*ChangeResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", input.NewStatus))
	}
	order, err := s.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	note := ""
	if input.Note != nil {
		note = strings.TrimSpace(*input.Note)
	}
	if input.NewStatus == enums.OrderStatusCancelled {
		if order.Status == enums.OrderStatusCancelled {
			return &ChangeResult{Order: order}, nil
		}
		return s.cancel(ctx, order, input.ActorID, enums.UserRoleAdmin, note)
	}
	if order.Status == input.NewStatus {
		return &ChangeResult{Order: order}, nil
	}
	if err := CheckOrderTransition(order.Status, input.NewStatus); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	observed := order.Status
	updates := map[string]any{
		"status":     input.NewStatus,
		"updated_at": now,
	}
	refund := false
	switch input.NewStatus {
	case enums.OrderStatusShipped:
		updates["shipped_at"] = now
		if tracking := trimmedOrNil(input.TrackingNumber); tracking != nil {
			updates["tracking_number"] = *tracking
			order.TrackingNumber = tracking
		}
		if carrier := trimmedOrNil(input.Carrier); carrier != nil {
			updates["carrier"] = *carrier
			order.Carrier = carrier
		}
		order.ShippedAt = &now
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
		order.DeliveredAt = &now
	case enums.OrderStatusRefunded:
		if order.PaymentStatus == enums.PaymentStatusPaid {
			updates["payment_status"] = enums.PaymentStatusRefunded
			refund = true
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.TransitionStatus(ctx, order.ID, observed, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.Reject(pkgerrors.CodeStateConflict, pkgerrors.ReasonInvalidStateTransition, "order changed concurrently").
				WithDetails(map[string]any{"reason": pkgerrors.ReasonInvalidStateTransition})
		}
		if refund {
			if err := s.ledger.ReverseForRefund(ctx, tx, order, nil, order.Total); err != nil {
				return err
			}
		}
		return repo.AppendHistory(ctx, historyEntry(order.ID, observed, input.NewStatus, input.ActorID, note))
	})
	if err != nil {
		return nil, err
	}

	order.Status = input.NewStatus
	order.UpdatedAt = now
	if refund {
		order.PaymentStatus = enums.PaymentStatusRefunded
	}
	s.logTransition(ctx, order, observed)

	event := StatusChangedEvent(order, observed, note, actorRef(input.ActorID, enums.UserRoleAdmin), now)
	return &ChangeResult{Order: order, Events: []outbox.DomainEvent{event}}, nil
}

// GetOrder loads an order with its lines.
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", orderID))
	}
	return order, nil
}

// History returns the order's status transitions oldest first.
func (s *Service) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	rows, err := s.repo.History(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	return rows, nil
}

// ListBuyerOrders pages through the buyer's orders newest first.
func (s *Service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	if buyerID == uuid.Nil {
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByBuyer(ctx, buyerID, params.Limit, cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pagination.Build(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

// ExpiryResult summarizes one pass of unpaid order expiry.
type ExpiryResult struct {
	Cancelled int
	Skipped   int
	Events    []outbox.DomainEvent
}

// ExpireUnpaidOrders cancels orders still awaiting payment that were placed
// before cutoff. Orders that moved concurrently are skipped.
func (s *Service) ExpireUnpaidOrders(ctx context.Context, cutoff time.Time, limit int) (*ExpiryResult, error) {
	rows, err := s.repo.FindUnpaidBefore(ctx, cutoff, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unpaid orders")
	}
	result := &ExpiryResult{}
	for _, row := range rows {
		order, err := s.GetOrder(ctx, row.ID)
		if err != nil {
			return result, err
		}
		change, err := s.cancel(ctx, order, uuid.Nil, enums.UserRoleAdmin, "payment not received")
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				result.Skipped++
				continue
			}
			return result, err
		}
		result.Cancelled++
		result.Events = append(result.Events, change.Events...)
	}
	return result, nil
}

func (s *Service) logTransition(ctx context.Context, order *models.Order, from enums.OrderStatus) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   order.ID.String(),
		"old_status": string(from),
		"new_status": string(order.Status),
	})
	s.logg.Info(logCtx, "order status changed")
}

func historyEntry(orderID uuid.UUID, from, to enums.OrderStatus, actorID uuid.UUID, note string) *models.OrderStatusHistory {
	entry := &models.OrderStatusHistory{
		OrderID:   orderID,
		OldStatus: from,
		NewStatus: to,
		Note:      note,
	}
	if actorID != uuid.Nil {
		id := actorID
		entry.ChangedBy = &id
	}
	return entry
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
