package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/crescendohq/crescendo/internal/audit/domain"
	"github.com/crescendohq/crescendo/internal/clock"
	contractdomain "github.com/crescendohq/crescendo/internal/contract/domain"
	"github.com/crescendohq/crescendo/internal/events"
	"github.com/crescendohq/crescendo/internal/notification"
	"github.com/crescendohq/crescendo/internal/token"
	"github.com/crescendohq/crescendo/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       contractdomain.Repository
	AuditRepo  auditdomain.Repository
	Recorder   auditdomain.Recorder
	Issuer     token.Issuer
	Outbox     *events.Outbox
	Dispatcher notification.Dispatcher
	Clock      clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	repo       contractdomain.Repository
	auditRepo  auditdomain.Repository
	recorder   auditdomain.Recorder
	issuer     token.Issuer
	outbox     *events.Outbox
	dispatcher notification.Dispatcher
	clock      clock.Clock
}

func NewService(p ServiceParam) contractdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("contract.service"),
		genID: p.GenID,

		repo:       p.Repo,
		auditRepo:  p.AuditRepo,
		recorder:   p.Recorder,
		issuer:     p.Issuer,
		outbox:     p.Outbox,
		dispatcher: p.Dispatcher,
		clock:      p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, req contractdomain.CreateContractRequest) (*contractdomain.Contract, error) {
	if err := validateTerms(req); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	contract := &contractdomain.Contract{
		ID:              s.genID.Generate(),
		Tier:            strings.TrimSpace(req.Tier),
		AnnualPrice:     req.AnnualPrice,
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		BillingInterval: req.BillingInterval,
		VATRatePercent:  req.VATRatePercent,
		StartDate:       req.StartDate,
		DurationMonths:  req.DurationMonths,
		SignerName:      strings.TrimSpace(req.SignerName),
		SignerEmail:     strings.TrimSpace(req.SignerEmail),
		SignerTitle:     trimOptional(req.SignerTitle),
		ReviewerName:    trimOptional(req.ReviewerName),
		ReviewerEmail:   trimOptional(req.ReviewerEmail),
		ReviewerTitle:   trimOptional(req.ReviewerTitle),
		Status:          contractdomain.StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, contract); err != nil {
			return err
		}
		return s.recorder.Record(ctx, tx, contract.ID, auditdomain.EventCreated, auditdomain.ActorTypeAdmin, nil)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("contract created",
		zap.String("contract_id", contract.ID.String()),
		zap.String("tier", contract.Tier),
	)
	return contract, nil
}

func (s *Service) Update(ctx context.Context, req contractdomain.UpdateContractRequest) (*contractdomain.Contract, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return nil, err
	}
	if err := validateTerms(req.CreateContractRequest); err != nil {
		return nil, err
	}

	contract, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if contract.Status != contractdomain.StatusDraft {
		return nil, contractdomain.ErrContractNotDraft
	}

	contract.Tier = strings.TrimSpace(req.Tier)
	contract.AnnualPrice = req.AnnualPrice
	contract.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	contract.BillingInterval = req.BillingInterval
	contract.VATRatePercent = req.VATRatePercent
	contract.StartDate = req.StartDate
	contract.DurationMonths = req.DurationMonths
	contract.SignerName = strings.TrimSpace(req.SignerName)
	contract.SignerEmail = strings.TrimSpace(req.SignerEmail)
	contract.SignerTitle = trimOptional(req.SignerTitle)
	contract.ReviewerName = trimOptional(req.ReviewerName)
	contract.ReviewerEmail = trimOptional(req.ReviewerEmail)
	contract.ReviewerTitle = trimOptional(req.ReviewerTitle)
	contract.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateDraft(ctx, nil, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

func (s *Service) List(ctx context.Context, req contractdomain.ListContractsRequest) (contractdomain.ListContractsResponse, error) {
	contracts, total, err := s.repo.List(ctx, nil, req.PageRequest)
	if err != nil {
		return contractdomain.ListContractsResponse{}, err
	}
	return contractdomain.ListContractsResponse{
		PageInfo:  pagination.NewPageInfo(req.PageRequest, total),
		Contracts: contracts,
	}, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (*contractdomain.ContractWithTrail, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return nil, err
	}
	contract, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	trail, err := s.auditRepo.ListByContract(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return &contractdomain.ContractWithTrail{Contract: *contract, Audit: trail}, nil
}

func (s *Service) SendToReviewer(ctx context.Context, rawID string) (*contractdomain.SendResult, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return nil, err
	}
	contract, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !contract.HasReviewer() {
		return nil, contractdomain.ErrMissingReviewer
	}
	if _, ok := contractdomain.Transition(contract.Status, contractdomain.ActionSendToReviewer); !ok {
		return nil, contractdomain.ErrInvalidTransition
	}

	grantTok, err := s.issuer.IssueReviewerToken()
	if err != nil {
		return nil, err
	}
	grant := contractdomain.TokenGrant{Token: grantTok.Value, ExpiresAt: grantTok.ExpiresAt}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.SetReviewerToken(ctx, tx, id, contract.Status, grant); err != nil {
			return err
		}
		return s.recorder.Record(ctx, tx, id, auditdomain.EventSentToReviewer, auditdomain.ActorTypeAdmin, map[string]any{
			"recipient": *contract.ReviewerEmail,
		})
	})
	if err != nil {
		return nil, err
	}

	invite := notification.ReviewInvite{
		ContractID:   id.String(),
		Recipient:    *contract.ReviewerEmail,
		ReviewerName: *contract.ReviewerName,
		Token:        grant.Token,
	}
	if err := s.dispatcher.DispatchReviewInvite(ctx, invite); err != nil {
		s.log.Warn("review invite dispatch failed",
			zap.String("contract_id", id.String()),
			zap.Error(err),
		)
	}

	return &contractdomain.SendResult{
		Status:    contractdomain.StatusSentToReviewer,
		SentTo:    *contract.ReviewerEmail,
		Token:     grant.Token,
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

func (s *Service) SendToSigner(ctx context.Context, rawID string) (*contractdomain.SendResult, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return nil, err
	}
	contract, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if contract.SignerEmail == "" {
		return nil, contractdomain.ErrMissingSigner
	}
	if _, ok := contractdomain.Transition(contract.Status, contractdomain.ActionSendToSigner); !ok {
		return nil, contractdomain.ErrInvalidTransition
	}

	grantTok, err := s.issuer.IssueSigningToken()
	if err != nil {
		return nil, err
	}
	grant := contractdomain.TokenGrant{Token: grantTok.Value, ExpiresAt: grantTok.ExpiresAt}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.SetSigningToken(ctx, tx, id, contract.Status, grant); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, id, auditdomain.EventSentToSigner, auditdomain.ActorTypeAdmin, map[string]any{
			"recipient": contract.SignerEmail,
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventContractSent,
			Payload: events.ContractPayload{
				ContractID:  id.String(),
				Status:      string(contractdomain.StatusSent),
				SignerEmail: contract.SignerEmail,
			}.ToMap(),
			DedupeKey: "contract_sent:" + id.String() + ":" + grant.Token,
		})
	})
	if err != nil {
		return nil, err
	}

	invite := notification.SigningInvite{
		ContractID: id.String(),
		Recipient:  contract.SignerEmail,
		SignerName: contract.SignerName,
		Token:      grant.Token,
	}
	if err := s.dispatcher.DispatchSigningInvite(ctx, invite); err != nil {
		s.log.Warn("signing invite dispatch failed",
			zap.String("contract_id", id.String()),
			zap.Error(err),
		)
	}

	return &contractdomain.SendResult{
		Status:    contractdomain.StatusSent,
		SentTo:    contract.SignerEmail,
		Token:     grant.Token,
		ExpiresAt: grant.ExpiresAt,
	}, nil
}

func (s *Service) Cancel(ctx context.Context, rawID string) (*contractdomain.Contract, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, nil, id); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Cancel(ctx, tx, id); err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, id, auditdomain.EventCancelled, auditdomain.ActorTypeAdmin, nil); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventContractCancelled,
			Payload: events.ContractPayload{
				ContractID: id.String(),
				Status:     string(contractdomain.StatusCancelled),
			}.ToMap(),
			DedupeKey: "contract_cancelled:" + id.String(),
		})
	})
	if err != nil {
		if err == contractdomain.ErrStaleTransition {
			return nil, contractdomain.ErrContractTerminal
		}
		return nil, err
	}

	s.log.Info("contract cancelled", zap.String("contract_id", id.String()))
	return s.repo.GetByID(ctx, nil, id)
}

// Delete removes a contract and its whole audit trail. Admin-only, not
// part of the lifecycle state machine.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.auditRepo.DeleteByContract(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *Service) parseID(raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, contractdomain.ErrInvalidContractID
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, contractdomain.ErrInvalidContractID
	}
	return id, nil
}

func validateTerms(req contractdomain.CreateContractRequest) error {
	if strings.TrimSpace(req.Tier) == "" {
		return contractdomain.ErrInvalidTier
	}
	if req.AnnualPrice <= 0 {
		return contractdomain.ErrInvalidPrice
	}
	if len(strings.TrimSpace(req.Currency)) != 3 {
		return contractdomain.ErrInvalidCurrency
	}
	switch req.BillingInterval {
	case contractdomain.BillingMonthly, contractdomain.BillingQuarterly, contractdomain.BillingAnnual:
	default:
		return contractdomain.ErrInvalidBillingTerm
	}
	if req.VATRatePercent < 0 || req.VATRatePercent > 100 {
		return contractdomain.ErrInvalidVATRate
	}
	if req.DurationMonths <= 0 {
		return contractdomain.ErrInvalidDuration
	}
	if strings.TrimSpace(req.SignerName) == "" || strings.TrimSpace(req.SignerEmail) == "" {
		return contractdomain.ErrMissingSigner
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
