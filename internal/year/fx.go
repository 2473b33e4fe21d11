package year

import (
	ledgerdomain "github.com/saldoapp/saldo/internal/ledger/domain"
	"github.com/saldoapp/saldo/internal/year/domain"
	"github.com/saldoapp/saldo/internal/year/repository"
	"github.com/saldoapp/saldo/internal/year/service"
	"go.uber.org/fx"
)

var Module = fx.Module("year.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
		// The year registry is the ledger's period gate.
		func(svc domain.Service) ledgerdomain.PeriodRegistry { return svc },
	),
)
