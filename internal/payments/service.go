package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/internal/orders"
	dbpkg "github.com/angelmondragon/marketplace-engine/pkg/db"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/metrics"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type vendorLedger interface {
	AccrueOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
	ReverseForRefund(ctx context.Context, tx *gorm.DB, order *models.Order, lineID *uuid.UUID, amount decimal.Decimal) error
}

// RecordPaymentInput is a gateway report about one payment attempt.
type RecordPaymentInput struct {
	OrderID       uuid.UUID
	ExternalRef   string
	Amount        decimal.Decimal
	Currency      string
	Method        enums.PaymentMethod
	Outcome       enums.PaymentOutcome
	FailureReason *string
	ActorID       uuid.UUID
}

// Result is the outcome of RecordPayment. Duplicate is set when the external
// reference was already recorded; no events are produced in that case.
type Result struct {
	Payment   *models.Payment
	Order     *models.Order
	Events    []outbox.DomainEvent
	Duplicate bool
}

// RecordRefundInput records money returned for a paid order. OrderLineID
// narrows the vendor ledger reversal to one line.
type RecordRefundInput struct {
	OrderID     uuid.UUID
	Amount      decimal.Decimal
	Reason      string
	ReturnID    *uuid.UUID
	OrderLineID *uuid.UUID
}

type RefundResult struct {
	Refund *models.Refund
	Order  *models.Order
}

type ServiceParams struct {
	Repo    Repository
	Orders  *orders.Repository
	Tx      txRunner
	Ledger  vendorLedger
	Metrics *metrics.CommerceMetrics
	Logger  *logger.Logger
}

type Service struct {
	repo    Repository
	orders  *orders.Repository
	tx      txRunner
	ledger  vendorLedger
	metrics *metrics.CommerceMetrics
	logg    *logger.Logger
	now     func() time.Time
}

var errRefRace = errors.New("external reference recorded concurrently")

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("vendor ledger required")
	}
	return &Service{
		repo:    params.Repo,
		orders:  params.Orders,
		tx:      params.Tx,
		ledger:  params.Ledger,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// RecordPayment applies a gateway payment report to its order. Reports are
// delivered at least once, so a known external reference replays the stored
// result instead of failing.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (*Result, error) {
	input.ExternalRef = strings.TrimSpace(input.ExternalRef)
	if err := validatePaymentInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByExternalRef(ctx, input.ExternalRef)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment by reference")
	}
	if existing != nil {
		return s.duplicate(ctx, existing, input)
	}

	var (
		payment *models.Payment
		order   *models.Order
		from    enums.OrderStatus
	)
	now := s.now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		var err error
		order, err = repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", input.OrderID))
		}
		if err := checkPayable(order, input); err != nil {
			return err
		}
		from = order.Status

		payment = &models.Payment{
			OrderID:       order.ID,
			ExternalRef:   input.ExternalRef,
			Amount:        money.Round(input.Amount),
			Currency:      order.Currency,
			Method:        input.Method,
			Status:        input.Outcome,
			FailureReason: input.FailureReason,
		}
		if err := s.repo.WithTx(tx).CreatePayment(ctx, payment); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return errRefRace
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment")
		}

		if input.Outcome == enums.PaymentOutcomeFailed {
			return s.markFailed(ctx, repo, order)
		}
		return s.markPaid(ctx, tx, repo, order, input.ActorID, now)
	})
	if errors.Is(err, errRefRace) {
		existing, findErr := s.repo.FindByExternalRef(ctx, input.ExternalRef)
		if findErr != nil || existing == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload raced payment")
		}
		return s.duplicate(ctx, existing, input)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.IncPaymentRecorded(string(input.Outcome))
	actor := actorRef(input.ActorID, enums.UserRoleAdmin)
	events := []outbox.DomainEvent{paymentEvent(payment, order, actor)}
	if order.Status != from {
		events = append(events, orders.StatusChangedEvent(order, from, "payment received", actor, now))
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"payment_id":   payment.ID.String(),
			"outcome":      string(input.Outcome),
		})
		s.logg.Info(logCtx, "payment recorded")
	}
	return &Result{Payment: payment, Order: order, Events: events}, nil
}

func (s *Service) markPaid(ctx context.Context, tx *gorm.DB, repo *orders.Repository, order *models.Order, actorID uuid.UUID, now time.Time) error {
	if err := orders.CheckPaymentTransition(order.PaymentStatus, enums.PaymentStatusPaid); err != nil {
		return err
	}
	ok, err := repo.TransitionPayment(ctx, order.ID, order.PaymentStatus, map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"paid_at":        now,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order payment changed concurrently")
	}
	order.PaymentStatus = enums.PaymentStatusPaid
	order.PaidAt = &now

	if order.Status == enums.OrderStatusPending {
		ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, map[string]any{
			"status": enums.OrderStatusConfirmed,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
		}
		order.Status = enums.OrderStatusConfirmed
		var changedBy *uuid.UUID
		if actorID != uuid.Nil {
			changedBy = &actorID
		}
		if err := repo.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			OldStatus: enums.OrderStatusPending,
			NewStatus: enums.OrderStatusConfirmed,
			ChangedBy: changedBy,
			Note:      "payment received",
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order history")
		}
	}

	if err := s.ledger.AccrueOrder(ctx, tx, order); err != nil {
		return err
	}
	return nil
}

func (s *Service) markFailed(ctx context.Context, repo *orders.Repository, order *models.Order) error {
	if err := orders.CheckPaymentTransition(order.PaymentStatus, enums.PaymentStatusFailed); err != nil {
		return err
	}
	ok, err := repo.TransitionPayment(ctx, order.ID, order.PaymentStatus, map[string]any{
		"payment_status": enums.PaymentStatusFailed,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order payment changed concurrently")
	}
	order.PaymentStatus = enums.PaymentStatusFailed
	return nil
}

func (s *Service) duplicate(ctx context.Context, existing *models.Payment, input RecordPaymentInput) (*Result, error) {
	if existing.OrderID != input.OrderID || !existing.Amount.Equal(money.Round(input.Amount)) {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "external reference already used for a different payment").
			WithDetails(map[string]any{
				"external_ref": existing.ExternalRef,
				"order_id":     existing.OrderID.String(),
			})
	}
	order, err := s.orders.FindByID(ctx, existing.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	s.metrics.IncPaymentRecorded("duplicate")
	return &Result{Payment: existing, Order: order, Duplicate: true}, nil
}

func validatePaymentInput(input RecordPaymentInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ExternalRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "external reference required")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.Outcome.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment outcome %q", input.Outcome))
	}
	if !input.Method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.Method))
	}
	return nil
}

func checkPayable(order *models.Order, input RecordPaymentInput) error {
	if input.Currency != "" && !strings.EqualFold(input.Currency, order.Currency) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("currency %s does not match order currency %s", input.Currency, order.Currency))
	}
	if !money.Round(input.Amount).Equal(order.Total) {
		return pkgerrors.Reject(pkgerrors.CodeValidation, pkgerrors.ReasonAmountMismatch, "payment amount does not match order total").
			WithDetails(map[string]any{
				"reason":   pkgerrors.ReasonAmountMismatch,
				"expected": money.Format(order.Total),
				"received": money.Format(input.Amount),
			})
	}
	switch order.Status {
	case enums.OrderStatusCancelled, enums.OrderStatusRefunded:
		return orders.InvalidTransition(string(order.Status), "paid")
	}
	switch order.PaymentStatus {
	case enums.PaymentStatusPaid, enums.PaymentStatusRefunded:
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("order %s already %s", order.OrderNumber, order.PaymentStatus)).
			WithDetails(map[string]any{"payment_status": string(order.PaymentStatus)})
	}
	return nil
}

// RecordRefund records a refund against a paid order in its own transaction.
func (s *Service) RecordRefund(ctx context.Context, input RecordRefundInput) (*RefundResult, error) {
	var result *RefundResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.RecordRefundWithTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordRefundWithTx records a refund inside the caller's transaction. The
// order moves to payment_status refunded; its fulfillment status is kept.
func (s *Service) RecordRefundWithTx(ctx context.Context, tx *gorm.DB, input RecordRefundInput) (*RefundResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required for refund")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	amount := money.Round(input.Amount)
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = "refund"
	}

	repo := s.orders.WithTx(tx)
	order, err := repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", input.OrderID))
	}
	if order.PaymentStatus != enums.PaymentStatusPaid {
		return nil, pkgerrors.Reject(pkgerrors.CodeStateConflict, pkgerrors.ReasonNotPaid, "order is not paid").
			WithDetails(map[string]any{
				"reason":         pkgerrors.ReasonNotPaid,
				"payment_status": string(order.PaymentStatus),
			})
	}
	if amount.GreaterThan(order.Total) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds order total").
			WithDetails(map[string]any{"total": money.Format(order.Total), "amount": money.Format(amount)})
	}

	ok, err := repo.TransitionPayment(ctx, order.ID, enums.PaymentStatusPaid, map[string]any{
		"payment_status": enums.PaymentStatusRefunded,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order refunded")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order payment changed concurrently")
	}
	order.PaymentStatus = enums.PaymentStatusRefunded

	refund := &models.Refund{
		OrderID:  order.ID,
		ReturnID: input.ReturnID,
		Amount:   amount,
		Reason:   reason,
	}
	if err := s.repo.WithTx(tx).CreateRefund(ctx, refund); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist refund")
	}
	if err := s.ledger.ReverseForRefund(ctx, tx, order, input.OrderLineID, amount); err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":  order.ID.String(),
			"refund_id": refund.ID.String(),
			"amount":    money.Format(amount),
		})
		s.logg.Info(logCtx, "refund recorded")
	}
	return &RefundResult{Refund: refund, Order: order}, nil
}

// Payments lists the recorded payment attempts for an order.
func (s *Service) Payments(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	rows, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}

// Refunds lists the refunds recorded for an order.
func (s *Service) Refunds(ctx context.Context, orderID uuid.UUID) ([]models.Refund, error) {
	rows, err := s.repo.ListRefunds(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refunds")
	}
	return rows, nil
}
