package notification

import (
	"context"

	"github.com/crescendohq/crescendo/internal/observability/logger"
	"go.uber.org/zap"
)

// SigningInvite is the message sent to a signer when a contract is
// routed to them, either directly or through reviewer approval.
type SigningInvite struct {
	ContractID string
	Recipient  string
	SignerName string
	Token      string
}

// ReviewInvite is the message sent to a reviewer when a contract is
// routed to them for approval ahead of the signer.
type ReviewInvite struct {
	ContractID   string
	Recipient    string
	ReviewerName string
	Token        string
}

// Dispatcher delivers outbound notifications. Actual email transport
// lives outside this service; deployments plug in their own
// implementation.
type Dispatcher interface {
	DispatchReviewInvite(ctx context.Context, invite ReviewInvite) error
	DispatchSigningInvite(ctx context.Context, invite SigningInvite) error
}

// LogDispatcher records dispatches in the application log. It is the
// default implementation for development and tests; the outbox carries
// the event for the real mailer.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) Dispatcher {
	return &LogDispatcher{log: log.Named("notification.dispatcher")}
}

func (d *LogDispatcher) DispatchReviewInvite(ctx context.Context, invite ReviewInvite) error {
	d.log.Info("review invite dispatched",
		zap.String("contract_id", invite.ContractID),
		zap.String("recipient", invite.Recipient),
		zap.String("token", logger.MaskToken(invite.Token)),
	)
	return nil
}

func (d *LogDispatcher) DispatchSigningInvite(ctx context.Context, invite SigningInvite) error {
	d.log.Info("signing invite dispatched",
		zap.String("contract_id", invite.ContractID),
		zap.String("recipient", invite.Recipient),
		zap.String("token", logger.MaskToken(invite.Token)),
	)
	return nil
}
