package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/crescendohq/crescendo/internal/audit/domain"
	"github.com/crescendohq/crescendo/internal/auditcontext"
	"github.com/crescendohq/crescendo/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecorderParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
	Clock clock.Clock
}

type Recorder struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
	clock clock.Clock
}

func NewRecorder(p RecorderParam) auditdomain.Recorder {
	return &Recorder{
		db:    p.DB,
		log:   p.Log.Named("audit.recorder"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: p.Clock,
	}
}

// Record appends one audit entry inside the caller's transaction. Actor
// email and request metadata are read from the context when present.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, contractID snowflake.ID, eventType string, actorType auditdomain.ActorType, metadata map[string]any) error {
	entry := &auditdomain.ContractAuditEntry{
		ID:         r.genID.Generate(),
		ContractID: contractID,
		EventType:  eventType,
		ActorType:  string(actorType),
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  r.now(),
	}

	if _, actorEmail := auditcontext.ActorFromContext(ctx); actorEmail != "" {
		entry.ActorEmail = &actorEmail
	}
	if ip := auditcontext.IPAddressFromContext(ctx); ip != "" {
		entry.ActorIP = &ip
	}
	if userAgent := auditcontext.UserAgentFromContext(ctx); userAgent != "" {
		entry.UserAgent = &userAgent
	}
	for key, value := range metadata {
		entry.Metadata[key] = value
	}

	if err := r.repo.Insert(ctx, tx, entry); err != nil {
		return err
	}

	r.log.Debug("audit entry recorded",
		zap.String("contract_id", contractID.String()),
		zap.String("event_type", eventType),
		zap.String("actor_type", string(actorType)),
	)
	return nil
}

func (r *Recorder) now() time.Time {
	if r.clock != nil {
		return r.clock.Now()
	}
	return time.Now().UTC()
}
