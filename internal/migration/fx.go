package migration

import (
	authdomain "github.com/saldoapp/saldo/internal/auth/domain"
	"github.com/saldoapp/saldo/internal/config"
	ledgerdomain "github.com/saldoapp/saldo/internal/ledger/domain"
	yeardomain "github.com/saldoapp/saldo/internal/year/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// sqlite / mysql development databases rely on gorm's schema sync.
		return conn.AutoMigrate(
			&authdomain.User{},
			&authdomain.Session{},
			&yeardomain.Year{},
			&ledgerdomain.BalancePeriod{},
			&ledgerdomain.TransactionEntry{},
		)
	}),
)
