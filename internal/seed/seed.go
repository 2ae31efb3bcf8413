package seed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	apikeydomain "github.com/crescendohq/crescendo/internal/apikey/domain"
	"github.com/crescendohq/crescendo/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const bootstrapKeyName = "bootstrap-admin"

// EnsureBootstrapAPIKey seeds an admin API key when none exists, so a
// fresh install can reach the admin surface. The secret comes from the
// environment or, failing that, is generated and logged once.
func EnsureBootstrapAPIKey(db *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if !cfg.Bootstrap.EnsureAdminKey {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&apikeydomain.APIKey{}).
			Where("is_active = ?", true).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		secret := strings.TrimSpace(cfg.Bootstrap.AdminKeySecret)
		generated := false
		if secret == "" {
			buf := make([]byte, 24)
			if _, err := rand.Read(buf); err != nil {
				return err
			}
			secret = "crsc_" + hex.EncodeToString(buf)
			generated = true
		}

		key := &apikeydomain.APIKey{
			ID:        node.Generate(),
			Name:      bootstrapKeyName,
			KeyHash:   apikeydomain.HashAPIKey(secret),
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(key).Error; err != nil {
			return err
		}

		if generated {
			// Shown once; the hash alone is stored.
			log.Named("seed").Info("bootstrap admin API key generated",
				zap.String("api_key", secret),
			)
		}
		return nil
	})
}
