package admin

import (
	"context"
	"net/http"

	orderdto "github.com/angelmondragon/marketplace-engine/api/controllers/orders/dto"
	"github.com/angelmondragon/marketplace-engine/api/middleware"
	"github.com/angelmondragon/marketplace-engine/api/responses"
	"github.com/angelmondragon/marketplace-engine/api/validators"
	"github.com/angelmondragon/marketplace-engine/internal/returns"
	"github.com/angelmondragon/marketplace-engine/pkg/db/models"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
)

type returnService interface {
	Decide(ctx context.Context, input returns.DecideInput) (*models.ReturnRequest, error)
	Complete(ctx context.Context, input returns.CompleteInput) (*returns.CompleteResult, error)
}

// DecideReturn approves or rejects a requested return.
func DecideReturn(svc returnService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return service unavailable"))
			return
		}
		adminID, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		returnID, err := validators.URLParamUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderdto.DecideReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Decide(r.Context(), returns.DecideInput{
			ReturnID:  returnID,
			AdminID:   adminID,
			Approve:   *payload.Approve,
			AdminNote: trimmed(payload.AdminNote),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderdto.NewReturn(request))
	}
}

// CompleteReturn refunds and restocks a return under processing.
func CompleteReturn(svc returnService, dispatcher eventDispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return service unavailable"))
			return
		}
		adminID, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		returnID, err := validators.URLParamUUID(r, "returnId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Complete(r.Context(), returns.CompleteInput{ReturnID: returnID, AdminID: adminID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispatch(r.Context(), dispatcher, result.Events)

		view := orderdto.ReturnCompletion{Return: orderdto.NewReturn(result.Return)}
		if result.Refund != nil {
			refund := orderdto.NewRefund(result.Refund)
			view.Refund = &refund
		}
		responses.WriteSuccess(w, view)
	}
}
