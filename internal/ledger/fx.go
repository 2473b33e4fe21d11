package ledger

import (
	"github.com/saldoapp/saldo/internal/ledger/repository"
	"github.com/saldoapp/saldo/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(
		repository.ProvidePeriodRepository,
		repository.ProvideEntryRepository,
		service.NewService,
	),
)
