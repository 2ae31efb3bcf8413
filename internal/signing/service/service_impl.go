package service

import (
	"context"
	"errors"
	"strings"
	"time"

	auditdomain "github.com/crescendohq/crescendo/internal/audit/domain"
	"github.com/crescendohq/crescendo/internal/auditcontext"
	"github.com/crescendohq/crescendo/internal/clock"
	"github.com/crescendohq/crescendo/internal/config"
	contractdomain "github.com/crescendohq/crescendo/internal/contract/domain"
	"github.com/crescendohq/crescendo/internal/events"
	"github.com/crescendohq/crescendo/internal/notification"
	"github.com/crescendohq/crescendo/internal/observability/metrics"
	signingdomain "github.com/crescendohq/crescendo/internal/signing/domain"
	"github.com/crescendohq/crescendo/internal/token"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	Config     config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	Repo       contractdomain.Repository
	Recorder   auditdomain.Recorder
	Issuer     token.Issuer
	Outbox     *events.Outbox
	Dispatcher notification.Dispatcher
	Clock      clock.Clock
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	minSignatureLength int
	repo               contractdomain.Repository
	recorder           auditdomain.Recorder
	issuer             token.Issuer
	outbox             *events.Outbox
	dispatcher         notification.Dispatcher
	clock              clock.Clock
	metrics            *metrics.SigningMetrics
}

func New(p ServiceParam) *Service {
	minLen := p.Config.Signing.MinSignatureLength
	if minLen <= 0 {
		minLen = 100
	}
	return &Service{
		db:  p.DB,
		log: p.Log.Named("signing.service"),

		minSignatureLength: minLen,
		repo:               p.Repo,
		recorder:           p.Recorder,
		issuer:             p.Issuer,
		outbox:             p.Outbox,
		dispatcher:         p.Dispatcher,
		clock:              p.Clock,
		metrics:            metrics.Signing(),
	}
}

type reviewFlow struct{ *Service }

type signFlow struct{ *Service }

func NewReviewFlow(s *Service) signingdomain.ReviewFlow { return reviewFlow{s} }

func NewSignFlow(s *Service) signingdomain.SignFlow { return signFlow{s} }

func (f reviewFlow) View(ctx context.Context, reviewerToken string) (*signingdomain.ContractProjection, error) {
	return f.ViewReviewer(ctx, reviewerToken)
}

func (f signFlow) View(ctx context.Context, signingToken string) (*signingdomain.ContractProjection, error) {
	return f.ViewSigner(ctx, signingToken)
}

// ViewReviewer serves the reviewer link. Repeated views are idempotent:
// the first one advances the contract to reviewed, later ones observe
// the same projection without moving status backward.
func (s *Service) ViewReviewer(ctx context.Context, reviewerToken string) (*signingdomain.ContractProjection, error) {
	contract, err := s.lookupReviewer(ctx, reviewerToken)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		advanced, err := s.repo.MarkReviewed(ctx, tx, contract.ID, reviewerToken)
		if err != nil {
			return err
		}
		if !advanced {
			return nil
		}
		ctx := s.reviewerContext(ctx, contract)
		return s.recorder.Record(ctx, tx, contract.ID, auditdomain.EventReviewed, auditdomain.ActorTypeReviewer, nil)
	})
	if err != nil {
		return nil, s.mapTokenError(err)
	}

	contract.Status = contractdomain.StatusReviewed
	s.metrics.ReviewViewed()
	return projection(contract), nil
}

// Approve performs the handoff: the reviewer token is retired and the
// signing token minted in one conditional write, then the signing link
// is forwarded to the signer.
func (s *Service) Approve(ctx context.Context, reviewerToken string) (*signingdomain.ApprovalReceipt, error) {
	contract, err := s.lookupReviewer(ctx, reviewerToken)
	if err != nil {
		return nil, err
	}

	grantTok, err := s.issuer.IssueSigningToken()
	if err != nil {
		return nil, err
	}
	grant := contractdomain.TokenGrant{Token: grantTok.Value, ExpiresAt: grantTok.ExpiresAt}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Handoff(ctx, tx, contract.ID, reviewerToken, grant); err != nil {
			return err
		}
		ctx := s.reviewerContext(ctx, contract)
		if err := s.recorder.Record(ctx, tx, contract.ID, auditdomain.EventApproved, auditdomain.ActorTypeReviewer, map[string]any{
			"forwarded_to": contract.SignerEmail,
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventContractApproved,
			Payload: events.ContractPayload{
				ContractID:  contract.ID.String(),
				Status:      string(contractdomain.StatusSent),
				SignerEmail: contract.SignerEmail,
			}.ToMap(),
			DedupeKey: "contract_approved:" + contract.ID.String() + ":" + grant.Token,
		})
	})
	if err != nil {
		return nil, s.mapTokenError(err)
	}

	invite := notification.SigningInvite{
		ContractID: contract.ID.String(),
		Recipient:  contract.SignerEmail,
		SignerName: contract.SignerName,
		Token:      grant.Token,
	}
	if err := s.dispatcher.DispatchSigningInvite(ctx, invite); err != nil {
		s.log.Warn("signing invite dispatch failed",
			zap.String("contract_id", contract.ID.String()),
			zap.Error(err),
		)
	}

	s.metrics.Approved()
	return &signingdomain.ApprovalReceipt{ForwardedTo: contract.SignerEmail}, nil
}

// ViewSigner serves the signer link; first view advances sent to viewed.
func (s *Service) ViewSigner(ctx context.Context, signingToken string) (*signingdomain.ContractProjection, error) {
	contract, err := s.lookupSigner(ctx, signingToken)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		advanced, err := s.repo.MarkViewed(ctx, tx, contract.ID, signingToken)
		if err != nil {
			return err
		}
		if !advanced {
			return nil
		}
		ctx := s.signerContext(ctx, contract)
		return s.recorder.Record(ctx, tx, contract.ID, auditdomain.EventViewed, auditdomain.ActorTypeSigner, nil)
	})
	if err != nil {
		return nil, s.mapTokenError(err)
	}

	contract.Status = contractdomain.StatusViewed
	return projection(contract), nil
}

// Sign records the signature and kills the signing link. Exactly one of
// two concurrent calls can win the conditional update; the loser sees
// the token as gone.
func (s *Service) Sign(ctx context.Context, signingToken string, req signingdomain.SignRequest) (*signingdomain.SignReceipt, error) {
	signerName := strings.TrimSpace(req.SignerName)
	if signerName == "" {
		return nil, signingdomain.ErrInvalidSignerName
	}
	if len(req.SignatureImage) < s.minSignatureLength {
		return nil, signingdomain.ErrInvalidSignature
	}

	contract, err := s.lookupSigner(ctx, signingToken)
	if err != nil {
		s.metrics.SignRejected()
		return nil, err
	}

	signedAt := s.clock.Now()
	record := contractdomain.SignatureRecord{
		SignerName:     signerName,
		SignerTitle:    req.SignerTitle,
		SignatureImage: req.SignatureImage,
		SignedAt:       signedAt,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Sign(ctx, tx, contract.ID, signingToken, record); err != nil {
			return err
		}
		ctx := s.signerContext(ctx, contract)
		if err := s.recorder.Record(ctx, tx, contract.ID, auditdomain.EventSigned, auditdomain.ActorTypeSigner, map[string]any{
			"signer_name": signerName,
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventContractSigned,
			Payload: events.ContractPayload{
				ContractID:  contract.ID.String(),
				Status:      string(contractdomain.StatusSigned),
				SignerEmail: contract.SignerEmail,
				SignedAt:    signedAt.Format(time.RFC3339),
			}.ToMap(),
			DedupeKey: "contract_signed:" + contract.ID.String(),
		})
	})
	if err != nil {
		s.metrics.SignRejected()
		return nil, s.mapTokenError(err)
	}

	s.log.Info("contract signed",
		zap.String("contract_id", contract.ID.String()),
	)
	s.metrics.Signed()
	return &signingdomain.SignReceipt{SignedAt: signedAt}, nil
}

func (s *Service) lookupReviewer(ctx context.Context, reviewerToken string) (*contractdomain.Contract, error) {
	contract, err := s.repo.FindByReviewerToken(ctx, nil, strings.TrimSpace(reviewerToken))
	if err != nil {
		return nil, s.mapTokenError(err)
	}
	if s.expired(contract.ReviewerTokenExpiresAt) {
		return nil, signingdomain.ErrTokenExpired
	}
	return contract, nil
}

func (s *Service) lookupSigner(ctx context.Context, signingToken string) (*contractdomain.Contract, error) {
	contract, err := s.repo.FindBySigningToken(ctx, nil, strings.TrimSpace(signingToken))
	if err != nil {
		return nil, s.mapTokenError(err)
	}
	if contract.Status == contractdomain.StatusSigned || contract.Status == contractdomain.StatusCancelled {
		// Terminal contracts have their tokens nulled on transition, so
		// a match here means a partially applied write; treat the token
		// as gone either way.
		return nil, signingdomain.ErrTokenNotFound
	}
	if s.expired(contract.TokenExpiresAt) {
		return nil, signingdomain.ErrTokenExpired
	}
	return contract, nil
}

// expired implements the lazy expiry check: the stored status is never
// rewritten, the timestamp alone decides.
func (s *Service) expired(expiresAt *time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return !s.clock.Now().Before(*expiresAt)
}

func (s *Service) reviewerContext(ctx context.Context, contract *contractdomain.Contract) context.Context {
	email := ""
	if contract.ReviewerEmail != nil {
		email = *contract.ReviewerEmail
	}
	return auditcontext.WithActor(ctx, string(auditdomain.ActorTypeReviewer), email)
}

func (s *Service) signerContext(ctx context.Context, contract *contractdomain.Contract) context.Context {
	return auditcontext.WithActor(ctx, string(auditdomain.ActorTypeSigner), contract.SignerEmail)
}

func (s *Service) mapTokenError(err error) error {
	switch {
	case errors.Is(err, contractdomain.ErrContractNotFound),
		errors.Is(err, contractdomain.ErrStaleTransition):
		return signingdomain.ErrTokenNotFound
	default:
		return err
	}
}

func projection(contract *contractdomain.Contract) *signingdomain.ContractProjection {
	return &signingdomain.ContractProjection{
		Status:          string(contract.Status),
		Tier:            contract.Tier,
		AnnualPrice:     contract.AnnualPrice,
		Currency:        contract.Currency,
		BillingInterval: string(contract.BillingInterval),
		VATRatePercent:  contract.VATRatePercent,
		StartDate:       contract.StartDate,
		DurationMonths:  contract.DurationMonths,
		SignerName:      contract.SignerName,
		SignerTitle:     contract.SignerTitle,
		ReviewerName:    contract.ReviewerName,
		SignedAt:        contract.SignedAt,
	}
}
