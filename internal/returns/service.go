package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-engine/internal/orders"
	"github.com/angelmondragon/marketplace-engine/internal/payments"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/metrics"
	"github.com/angelmondragon/marketplace-engine/pkg/money"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type refunder interface {
	RecordRefundWithTx(ctx context.Context, tx *gorm.DB, input payments.RecordRefundInput) (*payments.RefundResult, error)
}

type restocker interface {
	Credit(ctx context.Context, tx *gorm.DB, productID, variantID uuid.UUID, qty int) (int, error)
}

// RequestInput opens a return for one delivered order line. A zero Quantity
// returns the whole line.
type RequestInput struct {
	OrderID     uuid.UUID
	OrderLineID uuid.UUID
	BuyerID     uuid.UUID
	Reason      enums.ReturnReason
	Description string
	Amount      decimal.Decimal
	Quantity    int
}

type DecideInput struct {
	ReturnID  uuid.UUID
	AdminID   uuid.UUID
	Approve   bool
	AdminNote *string
}

type CompleteInput struct {
	ReturnID uuid.UUID
	AdminID  uuid.UUID
}

// CompleteResult carries the finished return, the recorded refund and the
// events to publish.
type CompleteResult struct {
	Return *models.ReturnRequest
	Refund *models.Refund
	Events []outbox.DomainEvent
}

type ServiceParams struct {
	Repo    *Repository
	Orders  *orders.Repository
	Tx      txRunner
	Refunds refunder
	Stock   restocker
	Metrics *metrics.CommerceMetrics
	Logger  *logger.Logger
}

type Service struct {
	repo    *Repository
	orders  *orders.Repository
	tx      txRunner
	refunds refunder
	stock   restocker
	metrics *metrics.CommerceMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("returns repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Refunds == nil:
		return nil, fmt.Errorf("refund recorder required")
	case params.Stock == nil:
		return nil, fmt.Errorf("inventory required")
	}
	return &Service{
		repo:    params.Repo,
		orders:  params.Orders,
		tx:      params.Tx,
		refunds: params.Refunds,
		stock:   params.Stock,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// FormatNumber renders RET-YYYYMMDD-XXXXXXXX from the UTC day and the id.
func FormatNumber(at time.Time, id uuid.UUID) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("RET-%s-%s", at.UTC().Format("20060102"), suffix)
}

func (s *Service) Request(ctx context.Context, input RequestInput) (*models.ReturnRequest, error) {
	if input.OrderID == uuid.Nil || input.OrderLineID == uuid.Nil || input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order, order line and buyer are required")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid return reason %q", input.Reason))
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return amount must be positive")
	}

	var request *models.ReturnRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByID(ctx, input.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", input.OrderID))
		}
		if order.BuyerID != input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
		}
		if order.Status != enums.OrderStatusDelivered {
			return pkgerrors.Reject(pkgerrors.CodeStateConflict, pkgerrors.ReasonInvalidStateTransition,
				fmt.Sprintf("order is %s; only delivered orders can be returned", order.Status)).
				WithDetails(map[string]any{"reason": pkgerrors.ReasonInvalidStateTransition, "status": string(order.Status)})
		}
		if err := requirePaid(order); err != nil {
			return err
		}
		line := findLine(order, input.OrderLineID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "order line does not belong to order")
		}
		qty := input.Quantity
		if qty == 0 {
			qty = line.Quantity
		}
		if qty < 0 || qty > line.Quantity {
			return pkgerrors.Reject(pkgerrors.CodeValidation, pkgerrors.ReasonInvalidQuantity,
				fmt.Sprintf("return quantity must be between 1 and %d", line.Quantity))
		}

		repo := s.repo.WithTx(tx)
		open, err := repo.HasOpenForLine(ctx, line.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open returns")
		}
		if open {
			return pkgerrors.New(pkgerrors.CodeConflict, "a return is already open for this order line")
		}

		id := uuid.New()
		request = &models.ReturnRequest{
			ID:              id,
			ReturnNumber:    FormatNumber(s.now(), id),
			OrderID:         order.ID,
			OrderLineID:     line.ID,
			BuyerID:         input.BuyerID,
			Reason:          input.Reason,
			Description:     strings.TrimSpace(input.Description),
			Quantity:        qty,
			Status:          enums.ReturnStatusRequested,
			RequestedAmount: money.Round(input.Amount),
			RefundAmount:    money.Min(money.Round(input.Amount), line.LineTotal),
		}
		if err := repo.Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist return")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx, request, "return requested")
	return request, nil
}

// Decide approves or rejects a requested return. Approval moves straight on to
// processing and needs a paid order with no other return of it in flight.
func (s *Service) Decide(ctx context.Context, input DecideInput) (*models.ReturnRequest, error) {
	request, err := s.Get(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}
	if request.Status != enums.ReturnStatusRequested {
		target := enums.ReturnStatusRejected
		if input.Approve {
			target = enums.ReturnStatusApproved
		}
		return nil, checkTransition(request.Status, target)
	}

	now := s.now().UTC()
	updates := map[string]any{
		"decided_at": now,
		"admin_note": trimmedOrNil(input.AdminNote),
	}
	if input.AdminID != uuid.Nil {
		updates["decided_by"] = input.AdminID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if !input.Approve {
			updates["status"] = enums.ReturnStatusRejected
			return s.move(ctx, repo, request.ID, enums.ReturnStatusRequested, updates)
		}
		order, err := s.orders.WithTx(tx).FindByID(ctx, request.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", request.OrderID))
		}
		if err := requirePaid(order); err != nil {
			return err
		}
		inFlight, err := repo.HasInFlightForOrder(ctx, order.ID, request.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check returns in flight")
		}
		if inFlight {
			return pkgerrors.New(pkgerrors.CodeConflict, "another return for this order is being processed")
		}
		updates["status"] = enums.ReturnStatusApproved
		if err := s.move(ctx, repo, request.ID, enums.ReturnStatusRequested, updates); err != nil {
			return err
		}
		return s.move(ctx, repo, request.ID, enums.ReturnStatusApproved, map[string]any{"status": enums.ReturnStatusProcessing})
	})
	if err != nil {
		return nil, err
	}

	decided, err := s.Get(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	s.log(ctx, decided, "return decided")
	return decided, nil
}

// Complete records the refund, restocks the returned units and finishes the
// return in one transaction.
func (s *Service) Complete(ctx context.Context, input CompleteInput) (*CompleteResult, error) {
	request, err := s.Get(ctx, input.ReturnID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(request.Status, enums.ReturnStatusCompleted); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var refund *models.Refund
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.move(ctx, s.repo.WithTx(tx), request.ID, enums.ReturnStatusProcessing, map[string]any{
			"status":       enums.ReturnStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return err
		}

		order, err := s.orders.WithTx(tx).FindByID(ctx, request.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", request.OrderID))
		}
		line := findLine(order, request.OrderLineID)
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "return references a missing order line")
		}

		returnID := request.ID
		lineID := line.ID
		res, err := s.refunds.RecordRefundWithTx(ctx, tx, payments.RecordRefundInput{
			OrderID:     order.ID,
			Amount:      request.RefundAmount,
			Reason:      "return " + request.ReturnNumber,
			ReturnID:    &returnID,
			OrderLineID: &lineID,
		})
		if err != nil {
			return err
		}
		refund = res.Refund

		if _, err := s.stock.Credit(ctx, tx, line.ProductID, line.VariantID, request.Quantity); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = enums.ReturnStatusCompleted
	request.CompletedAt = &now
	s.metrics.IncReturnCompleted()
	s.log(ctx, request, "return completed")

	event := outbox.NewDomainEvent(enums.EventReturnCompleted, enums.AggregateReturn, request.ID, actorRef(input.AdminID),
		payloads.ReturnCompletedEvent{
			ReturnID:     request.ID,
			ReturnNumber: request.ReturnNumber,
			OrderID:      request.OrderID,
			OrderLineID:  request.OrderLineID,
			BuyerID:      request.BuyerID,
			RefundAmount: money.Format(request.RefundAmount),
			Restocked:    request.Quantity,
			CompletedAt:  now,
		})
	return &CompleteResult{Return: request, Refund: refund, Events: []outbox.DomainEvent{event}}, nil
}

// Cancel withdraws a return on the buyer's behalf before it is processed.
func (s *Service) Cancel(ctx context.Context, returnID, buyerID uuid.UUID) (*models.ReturnRequest, error) {
	request, err := s.Get(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if request.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "return belongs to another buyer")
	}
	if err := checkTransition(request.Status, enums.ReturnStatusCancelled); err != nil {
		return nil, err
	}
	if err := s.move(ctx, s.repo, request.ID, request.Status, map[string]any{"status": enums.ReturnStatusCancelled}); err != nil {
		return nil, err
	}
	request.Status = enums.ReturnStatusCancelled
	s.log(ctx, request, "return cancelled")
	return request, nil
}

func (s *Service) Get(ctx context.Context, returnID uuid.UUID) (*models.ReturnRequest, error) {
	request, err := s.repo.FindByID(ctx, returnID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load return")
	}
	if request == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("return %s not found", returnID))
	}
	return request, nil
}

func (s *Service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.ReturnRequest, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}
	return rows, nil
}

func (s *Service) move(ctx context.Context, repo *Repository, id uuid.UUID, from enums.ReturnStatus, updates map[string]any) error {
	ok, err := repo.Transition(ctx, id, from, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "return changed concurrently")
	}
	return nil
}

func (s *Service) log(ctx context.Context, request *models.ReturnRequest, msg string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"return_id":     request.ID.String(),
		"return_number": request.ReturnNumber,
		"order_id":      request.OrderID.String(),
		"status":        string(request.Status),
	})
	s.logg.Info(logCtx, msg)
}

// requirePaid rejects returns against orders whose payment was never captured
// or has already been refunded; the refund at completion needs a paid order.
func requirePaid(order *models.Order) error {
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil
	}
	return pkgerrors.Reject(pkgerrors.CodeStateConflict, pkgerrors.ReasonNotPaid,
		fmt.Sprintf("order payment is %s; only paid orders can be returned", order.PaymentStatus)).
		WithDetails(map[string]any{"reason": pkgerrors.ReasonNotPaid, "payment_status": string(order.PaymentStatus)})
}

func findLine(order *models.Order, lineID uuid.UUID) *models.OrderLine {
	for i := range order.Lines {
		if order.Lines[i].ID == lineID {
			return &order.Lines[i]
		}
	}
	return nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func actorRef(adminID uuid.UUID) *outbox.ActorRef {
	if adminID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleAdmin)}
}
