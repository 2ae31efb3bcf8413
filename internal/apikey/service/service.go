package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/crescendohq/crescendo/internal/apikey/domain"
	"github.com/crescendohq/crescendo/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  apikeydomain.Repository
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  apikeydomain.Repository
	clock clock.Clock
}

func New(p ServiceParam) apikeydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("apikey.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, name string, secret string) (*apikeydomain.APIKey, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, apikeydomain.ErrInvalidKey
	}
	key := &apikeydomain.APIKey{
		ID:        s.genID.Generate(),
		Name:      strings.TrimSpace(name),
		KeyHash:   apikeydomain.HashAPIKey(secret),
		IsActive:  true,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, nil, key); err != nil {
		return nil, err
	}
	s.log.Info("api key created", zap.String("key_id", key.ID.String()), zap.String("name", key.Name))
	return key, nil
}

func (s *Service) Verify(ctx context.Context, secret string) (*apikeydomain.APIKey, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, apikeydomain.ErrInvalidKey
	}
	hash := apikeydomain.HashAPIKey(secret)
	key, err := s.repo.FindActiveByHash(ctx, nil, hash)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(key.KeyHash), []byte(hash)) != 1 {
		return nil, apikeydomain.ErrInvalidKey
	}
	if key.ExpiresAt != nil && !s.now().Before(*key.ExpiresAt) {
		return nil, apikeydomain.ErrKeyExpired
	}
	return key, nil
}

func (s *Service) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now().UTC()
}
