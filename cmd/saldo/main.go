package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/saldoapp/saldo/internal/auth"
	"github.com/saldoapp/saldo/internal/config"
	"github.com/saldoapp/saldo/internal/ledger"
	"github.com/saldoapp/saldo/internal/logger"
	"github.com/saldoapp/saldo/internal/migration"
	"github.com/saldoapp/saldo/internal/observability/metrics"
	"github.com/saldoapp/saldo/internal/server"
	"github.com/saldoapp/saldo/internal/year"
	"github.com/saldoapp/saldo/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		metrics.Module,
		migration.Module,

		// Functional domains
		auth.Module,
		year.Module,
		ledger.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
