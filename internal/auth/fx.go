package auth

import (
	"github.com/saldoapp/saldo/internal/auth/domain"
	"github.com/saldoapp/saldo/internal/auth/repository"
	"github.com/saldoapp/saldo/internal/auth/service"
	"github.com/saldoapp/saldo/internal/auth/session"
	ledgerdomain "github.com/saldoapp/saldo/internal/ledger/domain"
	yearservice "github.com/saldoapp/saldo/internal/year/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(
		repository.ProvideUserRepository,
		repository.ProvideSessionRepository,
		service.NewService,
		session.NewManager,
		// User display lookup backs read-path enrichment in the ledger and
		// the year registry.
		func(svc domain.Service) ledgerdomain.DisplayNameResolver { return svc },
		func(svc domain.Service) yearservice.DisplayNameResolver { return svc },
	),
)
