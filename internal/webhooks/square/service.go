package squarewebhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"

	"github.com/angelmondragon/marketplace-engine/internal/payments"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
	"github.com/angelmondragon/marketplace-engine/pkg/square"
)

const (
	eventPaymentCreated = "payment.created"
	eventPaymentUpdated = "payment.updated"
)

type paymentRecorder interface {
	RecordPayment(ctx context.Context, input payments.RecordPaymentInput) (*payments.Result, error)
}

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*sq.Payment, error)
}

type eventDispatcher interface {
	Dispatch(ctx context.Context, events ...outbox.DomainEvent)
}

type ServiceParams struct {
	Payments   paymentRecorder
	Square     paymentFetcher
	Dispatcher eventDispatcher
	Logger     *logger.Logger
}

// Service applies Square payment notifications to orders.
type Service struct {
	payments   paymentRecorder
	square     paymentFetcher
	dispatcher eventDispatcher
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	if params.Dispatcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event dispatcher required")
	}
	return &Service{
		payments:   params.Payments,
		square:     params.Square,
		dispatcher: params.Dispatcher,
		logg:       params.Logger,
	}, nil
}

type SquareWebhookEvent struct {
	MerchantID string            `json:"merchant_id"`
	EventID    string            `json:"event_id"`
	Type       string            `json:"type"`
	CreatedAt  string            `json:"created_at"`
	Data       SquareWebhookData `json:"data"`
}

type SquareWebhookData struct {
	Type   string              `json:"type"`
	ID     string              `json:"id"`
	Object SquareWebhookObject `json:"object"`
}

type SquareWebhookObject struct {
	Payment *sq.Payment `json:"payment"`
}

// HandleEvent records terminal Square payment states. Non-terminal states and
// unrelated event types are acknowledged without side effects and return a nil
// result.
func (s *Service) HandleEvent(ctx context.Context, event *SquareWebhookEvent) (*payments.Result, error) {
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "square event required")
	}

	switch strings.ToLower(event.Type) {
	case eventPaymentCreated, eventPaymentUpdated:
	default:
		return nil, nil
	}

	payment, err := s.resolvePayment(ctx, event)
	if err != nil {
		return nil, err
	}
	outcome, ok := outcomeForStatus(stringValue(payment.GetStatus()))
	if !ok {
		return nil, nil
	}

	input, err := recordInput(payment, outcome)
	if err != nil {
		return nil, err
	}
	result, err := s.payments.RecordPayment(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(result.Events) > 0 {
		s.dispatcher.Dispatch(ctx, result.Events...)
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"square_payment_id": input.ExternalRef,
			"order_id":          input.OrderID.String(),
			"outcome":           string(outcome),
			"duplicate":         result.Duplicate,
		})
		s.logg.Info(logCtx, "square payment applied")
	}
	return result, nil
}

func (s *Service) resolvePayment(ctx context.Context, event *SquareWebhookEvent) (*sq.Payment, error) {
	if event.Data.Object.Payment != nil {
		return event.Data.Object.Payment, nil
	}
	if event.Data.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment payload missing")
	}
	if s.square == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment payload missing and square client unavailable")
	}
	payment, err := s.square.GetPayment(ctx, event.Data.ID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("square payment %s not found", event.Data.ID))
	}
	return payment, nil
}

func recordInput(payment *sq.Payment, outcome enums.PaymentOutcome) (payments.RecordPaymentInput, error) {
	ref := strings.TrimSpace(stringValue(payment.GetID()))
	if ref == "" {
		return payments.RecordPaymentInput{}, pkgerrors.New(pkgerrors.CodeValidation, "square payment id missing")
	}
	orderID, err := uuid.Parse(strings.TrimSpace(stringValue(payment.GetReferenceID())))
	if err != nil {
		return payments.RecordPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "square payment reference_id must be an order id")
	}
	amount, currency := square.PaymentAmount(payment)

	input := payments.RecordPaymentInput{
		OrderID:     orderID,
		ExternalRef: ref,
		Amount:      amount,
		Currency:    currency,
		Method:      methodForSource(stringValue(payment.GetSourceType())),
		Outcome:     outcome,
	}
	if outcome == enums.PaymentOutcomeFailed {
		reason := fmt.Sprintf("square status %s", strings.ToUpper(stringValue(payment.GetStatus())))
		input.FailureReason = &reason
	}
	return input, nil
}

func outcomeForStatus(status string) (enums.PaymentOutcome, bool) {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "COMPLETED":
		return enums.PaymentOutcomeSucceeded, true
	case "FAILED", "CANCELED":
		return enums.PaymentOutcomeFailed, true
	default:
		return "", false
	}
}

func methodForSource(source string) enums.PaymentMethod {
	switch strings.ToUpper(strings.TrimSpace(source)) {
	case "CARD":
		return enums.PaymentMethodCard
	case "WALLET":
		return enums.PaymentMethodWallet
	case "BANK_ACCOUNT":
		return enums.PaymentMethodBankTransfer
	case "CASH":
		return enums.PaymentMethodCashOnDelivery
	default:
		return enums.PaymentMethodOther
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
