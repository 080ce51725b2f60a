package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/zyra/internal/clock"
	"github.com/smallbiznis/zyra/internal/config"
	"github.com/smallbiznis/zyra/internal/migration"
	"github.com/smallbiznis/zyra/internal/observability"
	"github.com/smallbiznis/zyra/internal/scheduler"
	"github.com/smallbiznis/zyra/internal/server"
	"github.com/smallbiznis/zyra/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		// HTTP API and the domain modules it serves
		server.Module,
		scheduler.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
