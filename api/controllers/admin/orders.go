package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	orderdto "github.com/angelmondragon/marketplace-engine/api/controllers/orders/dto"
	"github.com/angelmondragon/marketplace-engine/api/middleware"
	"github.com/angelmondragon/marketplace-engine/api/responses"
	"github.com/angelmondragon/marketplace-engine/api/validators"
	internalorders "github.com/angelmondragon/marketplace-engine/internal/orders"
	"github.com/angelmondragon/marketplace-engine/internal/payments"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
)

type statusUpdater interface {
	UpdateOrderStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*internalorders.ChangeResult, error)
}

type paymentService interface {
	RecordPayment(ctx context.Context, input payments.RecordPaymentInput) (*payments.Result, error)
	RecordRefund(ctx context.Context, input payments.RecordRefundInput) (*payments.RefundResult, error)
}

type eventDispatcher interface {
	Dispatch(ctx context.Context, events ...outbox.DomainEvent)
}

// UpdateOrderStatus moves an order along its lifecycle.
func UpdateOrderStatus(svc statusUpdater, dispatcher eventDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		adminID, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderdto.UpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		result, err := svc.UpdateOrderStatus(r.Context(), internalorders.UpdateStatusInput{
			OrderID:        orderID,
			NewStatus:      status,
			TrackingNumber: trimmed(payload.TrackingNumber),
			Carrier:        trimmed(payload.Carrier),
			ActorID:        adminID,
			Note:           trimmed(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispatch(r.Context(), dispatcher, result.Events)

		responses.WriteSuccess(w, orderdto.NewOrder(result.Order))
	}
}

// RecordPayment records a gateway outcome reported by an operator.
func RecordPayment(svc paymentService, dispatcher eventDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		adminID, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderdto.RecordPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toRecordPaymentInput(orderID, adminID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecordPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispatch(r.Context(), dispatcher, result.Events)

		status := http.StatusCreated
		if result.Duplicate {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, orderdto.PaymentReceipt{
			Payment:   orderdto.NewPayment(result.Payment),
			Order:     orderdto.NewOrder(result.Order),
			Duplicate: result.Duplicate,
		})
	}
}

// RecordRefund refunds a paid order outside of the returns flow.
func RecordRefund(svc paymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderdto.RecordRefundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := validators.ParseAmount("amount", payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := validators.OptionalUUID("order_line_id", payload.OrderLineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecordRefund(r.Context(), payments.RecordRefundInput{
			OrderID:     orderID,
			Amount:      amount,
			Reason:      validators.SanitizeString(payload.Reason, 500),
			OrderLineID: lineID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, orderdto.RefundReceipt{
			Refund: orderdto.NewRefund(result.Refund),
			Order:  orderdto.NewOrder(result.Order),
		})
	}
}

func toRecordPaymentInput(orderID, adminID uuid.UUID, payload orderdto.RecordPaymentRequest) (payments.RecordPaymentInput, error) {
	amount, err := validators.ParseAmount("amount", payload.Amount)
	if err != nil {
		return payments.RecordPaymentInput{}, err
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.Method))
	if err != nil {
		return payments.RecordPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method")
	}
	outcome, err := enums.ParsePaymentOutcome(strings.TrimSpace(payload.Outcome))
	if err != nil {
		return payments.RecordPaymentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid outcome")
	}
	return payments.RecordPaymentInput{
		OrderID:       orderID,
		ExternalRef:   payload.ExternalRef,
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(payload.Currency)),
		Method:        method,
		Outcome:       outcome,
		FailureReason: trimmed(payload.FailureReason),
		ActorID:       adminID,
	}, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	if out == "" {
		return nil
	}
	return &out
}

func dispatch(ctx context.Context, dispatcher eventDispatcher, events []outbox.DomainEvent) {
	if dispatcher == nil || len(events) == 0 {
		return
	}
	dispatcher.Dispatch(context.WithoutCancel(ctx), events...)
}
