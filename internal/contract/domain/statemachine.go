package domain

// Action is a lifecycle trigger evaluated by the state machine.
type Action string

const (
	ActionSendToReviewer Action = "send_to_reviewer"
	ActionSendToSigner   Action = "send_to_signer"
	ActionViewAsReviewer Action = "view_as_reviewer"
	ActionApprove        Action = "approve"
	ActionViewAsSigner   Action = "view_as_signer"
	ActionSign           Action = "sign"
	ActionCancel         Action = "cancel"
)

// Transition is the pure mapping (current status, action) -> next status.
// Token validity and payload checks are guarded by the callers; this
// table only answers whether the move is legal and where it lands.
// The view actions are idempotent: viewing an already-advanced contract
// keeps its status, never regresses it.
func Transition(current Status, action Action) (Status, bool) {
	switch action {
	case ActionSendToReviewer:
		// Re-sending is allowed while the contract has not been opened
		// by the counterparty.
		if current == StatusDraft || current == StatusSent || current == StatusSentToReviewer {
			return StatusSentToReviewer, true
		}
	case ActionSendToSigner:
		if current == StatusDraft || current == StatusSent || current == StatusSentToReviewer || current == StatusReviewed {
			return StatusSent, true
		}
	case ActionViewAsReviewer:
		switch current {
		case StatusSentToReviewer:
			return StatusReviewed, true
		case StatusReviewed:
			return StatusReviewed, true
		}
	case ActionApprove:
		if current == StatusSentToReviewer || current == StatusReviewed {
			return StatusSent, true
		}
	case ActionViewAsSigner:
		switch current {
		case StatusSent:
			return StatusViewed, true
		case StatusViewed:
			return StatusViewed, true
		}
	case ActionSign:
		if current == StatusSent || current == StatusViewed {
			return StatusSigned, true
		}
	case ActionCancel:
		if !current.IsTerminal() {
			return StatusCancelled, true
		}
	}
	return current, false
}
