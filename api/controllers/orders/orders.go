package orders

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
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/outbox"
	"github.com/angelmondragon/marketplace-engine/pkg/pagination"
)

type orderService interface {
	CreateOrder(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.CreateOrderResult, error)
	CancelOrder(ctx context.Context, input internalorders.CancelOrderInput) (*internalorders.ChangeResult, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error)
}

type eventDispatcher interface {
	Dispatch(ctx context.Context, events ...outbox.DomainEvent)
}

// Create converts the caller's cart into a pending order.
func Create(svc orderService, dispatcher eventDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		buyerID, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderdto.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toCreateOrderInput(buyerID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispatch(r.Context(), dispatcher, result.Events)

		responses.WriteSuccessStatus(w, http.StatusCreated, orderdto.NewOrder(result.Order))
	}
}

// List returns the caller's orders newest first.
func List(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		buyerID, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := svc.ListBuyerOrders(r.Context(), buyerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderdto.NewOrderList(page))
	}
}

// Detail returns one order with lines and status history.
func Detail(svc orderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		actorID, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.BuyerID != actorID && !middleware.IsAdmin(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		history, err := svc.History(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := orderdto.NewOrder(order)
		view.History = orderdto.NewHistory(history)
		responses.WriteSuccess(w, view)
	}
}

// Cancel lets the buyer cancel a pending or confirmed order.
func Cancel(svc orderService, dispatcher eventDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		actorID, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderdto.CancelOrderRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.CancelOrder(r.Context(), internalorders.CancelOrderInput{
			OrderID: orderID,
			ActorID: actorID,
			Reason:  validators.SanitizeString(payload.Reason, 500),
			IsAdmin: middleware.IsAdmin(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispatch(r.Context(), dispatcher, result.Events)

		responses.WriteSuccess(w, orderdto.NewOrder(result.Order))
	}
}

func toCreateOrderInput(buyerID uuid.UUID, payload orderdto.CreateOrderRequest) (internalorders.CreateOrderInput, error) {
	shippingID, err := uuid.Parse(payload.ShippingAddressID)
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping_address_id")
	}
	billingID, err := uuid.Parse(payload.BillingAddressID)
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing_address_id")
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
	if err != nil {
		return internalorders.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_method")
	}

	input := internalorders.CreateOrderInput{
		BuyerID:           buyerID,
		ShippingAddressID: shippingID,
		BillingAddressID:  billingID,
		PaymentMethod:     method,
	}
	if payload.CouponCode != nil {
		if code := strings.TrimSpace(*payload.CouponCode); code != "" {
			input.CouponCode = &code
		}
	}
	if payload.CustomerNote != nil {
		note := validators.SanitizeString(*payload.CustomerNote, 1000)
		input.CustomerNote = &note
	}
	return input, nil
}

func dispatch(ctx context.Context, dispatcher eventDispatcher, events []outbox.DomainEvent) {
	if dispatcher == nil || len(events) == 0 {
		return
	}
	dispatcher.Dispatch(context.WithoutCancel(ctx), events...)
}
