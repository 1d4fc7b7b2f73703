package payouts

import (
	"fmt"

	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
)

// Transition is one legal move in the payout state machine. Every status
// write goes through a named transition; nothing mutates status directly.
type Transition struct {
	Name string
	From []enums.PayoutStatus
	To   enums.PayoutStatus
}

var (
	// TransitionSend dispatches a payout to the garage for confirmation.
	TransitionSend = Transition{
		Name: "send",
		From: []enums.PayoutStatus{enums.PayoutStatusPending, enums.PayoutStatusProcessing},
		To:   enums.PayoutStatusAwaitingConfirmation,
	}

	// TransitionConfirm is the garage acknowledging receipt.
	TransitionConfirm = Transition{
		Name: "confirm",
		From: []enums.PayoutStatus{enums.PayoutStatusAwaitingConfirmation},
		To:   enums.PayoutStatusConfirmed,
	}

	// TransitionAutoConfirm is the sweep confirming after the window lapses.
	TransitionAutoConfirm = Transition{
		Name: "auto_confirm",
		From: []enums.PayoutStatus{enums.PayoutStatusAwaitingConfirmation},
		To:   enums.PayoutStatusConfirmed,
	}

	// TransitionDispute is the garage contesting a sent or confirmed payout.
	TransitionDispute = Transition{
		Name: "dispute",
		From: []enums.PayoutStatus{enums.PayoutStatusAwaitingConfirmation, enums.PayoutStatusConfirmed},
		To:   enums.PayoutStatusDisputed,
	}

	// TransitionResolveResend returns a disputed payout to the garage.
	TransitionResolveResend = Transition{
		Name: "resolve_resend",
		From: []enums.PayoutStatus{enums.PayoutStatusDisputed},
		To:   enums.PayoutStatusAwaitingConfirmation,
	}

	// TransitionResolveConfirm settles a dispute in the marketplace's favor.
	TransitionResolveConfirm = Transition{
		Name: "resolve_confirm",
		From: []enums.PayoutStatus{enums.PayoutStatusDisputed},
		To:   enums.PayoutStatusConfirmed,
	}

	// TransitionResolveCancel voids a disputed payout.
	TransitionResolveCancel = Transition{
		Name: "resolve_cancel",
		From: []enums.PayoutStatus{enums.PayoutStatusDisputed},
		To:   enums.PayoutStatusCancelled,
	}

	// TransitionHold freezes a payout that has not been sent yet.
	TransitionHold = Transition{
		Name: "hold",
		From: []enums.PayoutStatus{enums.PayoutStatusPending, enums.PayoutStatusProcessing},
		To:   enums.PayoutStatusHeld,
	}

	// TransitionRelease lifts an administrative hold.
	TransitionRelease = Transition{
		Name: "release",
		From: []enums.PayoutStatus{enums.PayoutStatusHeld},
		To:   enums.PayoutStatusPending,
	}

	// TransitionComplete finishes a confirmed payout.
	TransitionComplete = Transition{
		Name: "complete",
		From: []enums.PayoutStatus{enums.PayoutStatusConfirmed},
		To:   enums.PayoutStatusCompleted,
	}

	// TransitionForceProcess is the operations override that completes any
	// non-terminal payout outright, skipping confirmation and the warranty
	// and dispute gates.
	TransitionForceProcess = Transition{
		Name: "force_process",
		From: []enums.PayoutStatus{
			enums.PayoutStatusPending,
			enums.PayoutStatusProcessing,
			enums.PayoutStatusAwaitingConfirmation,
			enums.PayoutStatusConfirmed,
			enums.PayoutStatusHeld,
			enums.PayoutStatusDisputed,
		},
		To: enums.PayoutStatusCompleted,
	}

	// TransitionCancel voids a payout that never reached the garage.
	TransitionCancel = Transition{
		Name: "cancel",
		From: []enums.PayoutStatus{enums.PayoutStatusPending, enums.PayoutStatusProcessing, enums.PayoutStatusHeld},
		To:   enums.PayoutStatusCancelled,
	}
)

// Allows reports whether the transition accepts the given source status.
func (t Transition) Allows(from enums.PayoutStatus) bool {
	for _, candidate := range t.From {
		if candidate == from {
			return true
		}
	}
	return false
}

// Apply moves the payout through the transition or returns a state conflict
// naming the current status and the allowed set.
func (t Transition) Apply(payout *models.GaragePayout) error {
	if payout == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "payout is nil")
	}
	if !t.Allows(payout.Status) {
		return invalidTransitionError(payout, t)
	}
	payout.Status = t.To
	return nil
}

func invalidTransitionError(payout *models.GaragePayout, t Transition) error {
	allowed := make([]string, 0, len(t.From))
	for _, from := range t.From {
		allowed = append(allowed, from.String())
	}
	return pkgerrors.New(
		pkgerrors.CodeStateConflict,
		fmt.Sprintf("payout cannot %s from status %q", t.Name, payout.Status),
	).WithDetails(map[string]any{
		"payout_id":        payout.ID.String(),
		"current_status":   payout.Status.String(),
		"allowed_statuses": allowed,
		"transition":       t.Name,
	})
}
