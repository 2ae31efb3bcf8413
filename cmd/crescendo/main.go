package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/crescendohq/crescendo/internal/apikey"
	"github.com/crescendohq/crescendo/internal/audit"
	"github.com/crescendohq/crescendo/internal/clock"
	"github.com/crescendohq/crescendo/internal/config"
	"github.com/crescendohq/crescendo/internal/contract"
	"github.com/crescendohq/crescendo/internal/events"
	"github.com/crescendohq/crescendo/internal/migration"
	"github.com/crescendohq/crescendo/internal/notification"
	"github.com/crescendohq/crescendo/internal/observability"
	"github.com/crescendohq/crescendo/internal/seed"
	"github.com/crescendohq/crescendo/internal/server"
	"github.com/crescendohq/crescendo/internal/signing"
	"github.com/crescendohq/crescendo/internal/token"
	"github.com/crescendohq/crescendo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title Crescendo Contract API
// @version 1.0
// @description Contract lifecycle and signing workflow for Crescendo.
// @BasePath /
func main() {
	fx.New(
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		token.Module,
		audit.Module,
		notification.Module,
		fx.Provide(events.NewOutbox),
		contract.Module,
		signing.Module,
		apikey.Module,
		fx.Invoke(runMigrations),
		fx.Invoke(seed.EnsureBootstrapAPIKey),
		server.Module,
	).Run()
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

func runMigrations(conn *gorm.DB, log *zap.Logger) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := migration.RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}
