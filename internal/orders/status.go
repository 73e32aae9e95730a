package orders

import (
	"fmt"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
)

var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusConfirmed, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
	enums.OrderStatusConfirmed:  {enums.OrderStatusProcessing, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled, enums.OrderStatusRefunded},
	enums.OrderStatusDelivered:  {enums.OrderStatusRefunded},
}

var paymentTransitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusPending: {enums.PaymentStatusPaid, enums.PaymentStatusFailed},
	enums.PaymentStatusFailed:  {enums.PaymentStatusPaid, enums.PaymentStatusFailed},
	enums.PaymentStatusPaid:    {enums.PaymentStatusRefunded},
}

// CheckOrderTransition returns nil when from may move to to. Re-applying the
// current status is allowed so callers can treat it as a no-op.
func CheckOrderTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", to))
	}
	if from == to {
		return nil
	}
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return InvalidTransition(string(from), string(to))
}

// CheckPaymentTransition applies the payment status machine.
func CheckPaymentTransition(from, to enums.PaymentStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", to))
	}
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	if from == to {
		return nil
	}
	return InvalidTransition(string(from), string(to))
}

// InvalidTransition is the state conflict returned for an illegal move.
func InvalidTransition(from, to string) error {
	return pkgerrors.Reject(pkgerrors.CodeStateConflict, pkgerrors.ReasonInvalidStateTransition,
		fmt.Sprintf("cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{
			"reason": pkgerrors.ReasonInvalidStateTransition,
			"from":   from,
			"to":     to,
		})
}
