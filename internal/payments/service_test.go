package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/marketplace-engine/internal/ledger"
	"github.com/angelmondragon/marketplace-engine/internal/orders"
	"github.com/angelmondragon/marketplace-engine/pkg/db"
	"github.com/angelmondragon/marketplace-engine/pkg/db/dbtest"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/payloads"
)

type harness struct {
	client *db.Client
	orders *orders.Repository
	ledger ledger.Service
	svc    *Service
	vendor uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	ordersRepo := orders.NewRepository(conn)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client, nil)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Orders: ordersRepo,
		Tx:     client,
		Ledger: ledgerSvc,
	})
	require.NoError(t, err)
	return &harness{client: client, orders: ordersRepo, ledger: ledgerSvc, svc: svc, vendor: uuid.New()}
}

// seedOrder stores a pending order with one 50.00 line at 10% commission,
// 5.00 shipping and 5.00 tax.
func (h *harness) seedOrder(t *testing.T) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:                uuid.New(),
		OrderNumber:       "ORD-20260101-" + uuid.NewString()[:6],
		BuyerID:           uuid.New(),
		ShippingAddressID: uuid.New(),
		BillingAddressID:  uuid.New(),
		PaymentMethod:     enums.PaymentMethodCard,
		Subtotal:          decimal.RequireFromString("50.00"),
		ShippingCost:      decimal.RequireFromString("5.00"),
		TaxAmount:         decimal.RequireFromString("5.00"),
		DiscountAmount:    decimal.Zero,
		Total:             decimal.RequireFromString("60.00"),
		Currency:          "USD",
		Status:            enums.OrderStatusPending,
		PaymentStatus:     enums.PaymentStatusPending,
		Lines: []models.OrderLine{{
			ProductID:        uuid.New(),
			VendorID:         h.vendor,
			ProductName:      "Lamp",
			SKU:              "LAMP",
			Quantity:         2,
			UnitPrice:        decimal.RequireFromString("25.00"),
			LineTotal:        decimal.RequireFromString("50.00"),
			CommissionRate:   decimal.NewFromInt(10),
			CommissionAmount: decimal.RequireFromString("5.00"),
			VendorPayout:     decimal.RequireFromString("45.00"),
		}},
	}
	require.NoError(t, h.orders.Create(context.Background(), order))
	return order
}

func succeeded(orderID uuid.UUID, ref, amount string) RecordPaymentInput {
	return RecordPaymentInput{
		OrderID:     orderID,
		ExternalRef: ref,
		Amount:      decimal.RequireFromString(amount),
		Method:      enums.PaymentMethodCard,
		Outcome:     enums.PaymentOutcomeSucceeded,
	}
}

func TestRecordPaymentSucceededConfirmsOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.seedOrder(t)

	result, err := h.svc.RecordPayment(ctx, succeeded(order.ID, "sq_pay_1", "60.00"))
	require.NoError(t, err)
	require.False(t, result.Duplicate)
	require.Equal(t, enums.PaymentStatusPaid, result.Order.PaymentStatus)
	require.Equal(t, enums.OrderStatusConfirmed, result.Order.Status)

	require.Len(t, result.Events, 2)
	require.Equal(t, enums.EventPaymentSucceeded, result.Events[0].EventType)
	require.Equal(t, enums.EventOrderStatusChanged, result.Events[1].EventType)
	payload := result.Events[0].Data.(payloads.PaymentEvent)
	require.Equal(t, "60.00", payload.Amount)

	stored, err := h.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, stored.Status)
	require.NotNil(t, stored.PaidAt)

	history, err := h.orders.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, enums.OrderStatusConfirmed, history[0].NewStatus)

	balance, err := h.ledger.Balance(ctx, h.vendor)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.RequireFromString("45.00")), "got %s", balance)
}

func TestRecordPaymentDuplicateReferenceReplays(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.seedOrder(t)

	first, err := h.svc.RecordPayment(ctx, succeeded(order.ID, "sq_pay_dup", "60.00"))
	require.NoError(t, err)

	again, err := h.svc.RecordPayment(ctx, succeeded(order.ID, "sq_pay_dup", "60.00"))
	require.NoError(t, err)
	require.True(t, again.Duplicate)
	require.Empty(t, again.Events)
	require.Equal(t, first.Payment.ID, again.Payment.ID)

	entries, err := h.ledger.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2, "replay must not accrue twice")

	other := h.seedOrder(t)
	_, err = h.svc.RecordPayment(ctx, succeeded(other.ID, "sq_pay_dup", "60.00"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeIdempotency), "got %v", err)
}

func TestRecordPaymentAmountMismatchLeavesOrderUntouched(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.seedOrder(t)

	_, err := h.svc.RecordPayment(ctx, succeeded(order.ID, "sq_pay_short", "59.99"))
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonAmountMismatch), "got %v", err)

	stored, err := h.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPending, stored.PaymentStatus)
	payments, err := h.svc.Payments(ctx, order.ID)
	require.NoError(t, err)
	require.Empty(t, payments)
}

func TestRecordPaymentStateConflicts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	paid := h.seedOrder(t)
	_, err := h.svc.RecordPayment(ctx, succeeded(paid.ID, "sq_a", "60.00"))
	require.NoError(t, err)
	_, err = h.svc.RecordPayment(ctx, succeeded(paid.ID, "sq_b", "60.00"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	cancelled := h.seedOrder(t)
	_, err = h.orders.TransitionStatus(ctx, cancelled.ID, enums.OrderStatusPending, map[string]any{"status": enums.OrderStatusCancelled})
	require.NoError(t, err)
	_, err = h.svc.RecordPayment(ctx, succeeded(cancelled.ID, "sq_c", "60.00"))
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonInvalidStateTransition), "got %v", err)

	_, err = h.svc.RecordPayment(ctx, succeeded(uuid.New(), "sq_d", "60.00"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRecordPaymentFailedThenRetrySucceeds(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.seedOrder(t)

	reason := "card declined"
	failed := succeeded(order.ID, "sq_fail", "60.00")
	failed.Outcome = enums.PaymentOutcomeFailed
	failed.FailureReason = &reason
	result, err := h.svc.RecordPayment(ctx, failed)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusFailed, result.Order.PaymentStatus)
	require.Equal(t, enums.OrderStatusPending, result.Order.Status)
	require.Len(t, result.Events, 1)
	require.Equal(t, enums.EventPaymentFailed, result.Events[0].EventType)
	require.Equal(t, "card declined", result.Events[0].Data.(payloads.PaymentEvent).FailureReason)

	retry, err := h.svc.RecordPayment(ctx, succeeded(order.ID, "sq_retry", "60.00"))
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, retry.Order.PaymentStatus)

	payments, err := h.svc.Payments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
}

func TestRecordPaymentValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.seedOrder(t)

	cases := map[string]func(*RecordPaymentInput){
		"missing ref":      func(in *RecordPaymentInput) { in.ExternalRef = "  " },
		"zero amount":      func(in *RecordPaymentInput) { in.Amount = decimal.Zero },
		"bad outcome":      func(in *RecordPaymentInput) { in.Outcome = "pending" },
		"bad method":       func(in *RecordPaymentInput) { in.Method = "iou" },
		"foreign currency": func(in *RecordPaymentInput) { in.Currency = "EUR" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := succeeded(order.ID, "sq_val_"+name, "60.00")
			mutate(&input)
			_, err := h.svc.RecordPayment(ctx, input)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestRecordRefund(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.seedOrder(t)

	_, err := h.svc.RecordRefund(ctx, RecordRefundInput{OrderID: order.ID, Amount: decimal.NewFromInt(10)})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonNotPaid), "got %v", err)

	_, err = h.svc.RecordPayment(ctx, succeeded(order.ID, "sq_paid", "60.00"))
	require.NoError(t, err)

	_, err = h.svc.RecordRefund(ctx, RecordRefundInput{OrderID: order.ID, Amount: decimal.RequireFromString("60.01")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = h.svc.RecordRefund(ctx, RecordRefundInput{OrderID: order.ID, Amount: decimal.Zero})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	result, err := h.svc.RecordRefund(ctx, RecordRefundInput{OrderID: order.ID, Amount: decimal.RequireFromString("20.00"), Reason: "late delivery"})
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusRefunded, result.Order.PaymentStatus)
	require.Equal(t, enums.OrderStatusConfirmed, result.Order.Status, "fulfillment status is unchanged")
	require.Equal(t, "late delivery", result.Refund.Reason)

	balance, err := h.ledger.Balance(ctx, h.vendor)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.RequireFromString("27.00")), "got %s", balance)

	_, err = h.svc.RecordRefund(ctx, RecordRefundInput{OrderID: order.ID, Amount: decimal.NewFromInt(1)})
	require.True(t, pkgerrors.HasReason(err, pkgerrors.ReasonNotPaid))

	refunds, err := h.svc.Refunds(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
}

func TestRecordRefundWithTxRequiresTransaction(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.RecordRefundWithTx(context.Background(), nil, RecordRefundInput{OrderID: uuid.New(), Amount: decimal.NewFromInt(1)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestPaymentEventTimestamps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	fixed := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	h.svc.now = func() time.Time { return fixed }
	order := h.seedOrder(t)

	result, err := h.svc.RecordPayment(ctx, succeeded(order.ID, "sq_time", "60.00"))
	require.NoError(t, err)
	require.True(t, result.Order.PaidAt.Equal(fixed))
	status := result.Events[1].Data.(payloads.OrderStatusChangedEvent)
	require.True(t, status.ChangedAt.Equal(fixed))
}
