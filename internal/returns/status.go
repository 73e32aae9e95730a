package returns

import (
	"fmt"

	"github.com/angelmondragon/marketplace-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-engine/pkg/errors"
)

var transitions = map[enums.ReturnStatus][]enums.ReturnStatus{
	enums.ReturnStatusRequested:  {enums.ReturnStatusApproved, enums.ReturnStatusRejected, enums.ReturnStatusCancelled},
	enums.ReturnStatusApproved:   {enums.ReturnStatusProcessing, enums.ReturnStatusCancelled},
	enums.ReturnStatusProcessing: {enums.ReturnStatusCompleted},
}

// CanTransition reports whether a return in from may move to to.
func CanTransition(from, to enums.ReturnStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to enums.ReturnStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.Reject(pkgerrors.CodeStateConflict, pkgerrors.ReasonInvalidStateTransition,
		fmt.Sprintf("return cannot move from %s to %s", from, to)).
		WithDetails(map[string]any{
			"reason": pkgerrors.ReasonInvalidStateTransition,
			"from":   string(from),
			"to":     string(to),
		})
}
