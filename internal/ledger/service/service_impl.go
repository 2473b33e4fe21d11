package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/saldoapp/saldo/internal/ledger/domain"
	"github.com/saldoapp/saldo/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxDescriptionLen = 200

	defaultOpeningDescription    = "Opening balance"
	defaultCorrectionDescription = "Opening balance correction"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Periods  domain.PeriodRepository
	Entries  domain.EntryRepository
	Registry domain.PeriodRegistry
	Resolver domain.DisplayNameResolver
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	periods  domain.PeriodRepository
	entries  domain.EntryRepository
	registry domain.PeriodRegistry
	resolver domain.DisplayNameResolver
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("ledger.service"),
		genID:    p.GenID,
		periods:  p.Periods,
		entries:  p.Entries,
		registry: p.Registry,
		resolver: p.Resolver,
	}
}

// OpenOrRevise creates the period for (year, month) with the given opening
// balance, or rebases an existing one. A revision never erases previously
// applied deltas; the baseline shift itself is logged as a correction entry
// so the log fully explains the cached balance.
func (s *Service) OpenOrRevise(ctx context.Context, req domain.OpenOrReviseRequest) (*domain.BalancePeriod, error) {
	if err := validateYearMonth(req.Year, req.Month); err != nil {
		return nil, err
	}
	description, err := normalizeDescription(req.Description, true)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEnabled(ctx, req.Year, req.Month); err != nil {
		return nil, err
	}

	existing, err := s.periods.FindByYearMonth(ctx, s.db, req.Year, req.Month)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		period, err := s.createPeriod(ctx, req, description)
		if err != nil {
			return nil, err
		}
		return period, nil
	}

	var updated *domain.BalancePeriod
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		period, openingDelta, err := s.periods.SetOpeningBalance(ctx, tx, existing.ID, req.Opening)
		if err != nil {
			return err
		}
		if !openingDelta.IsZero() {
			desc := description
			if desc == "" {
				desc = defaultCorrectionDescription
			}
			if err := s.entries.Insert(ctx, tx, s.entryFromDelta(period, openingDelta, domain.SourceCorrection, desc, req.ActorID)); err != nil {
				return err
			}
		}
		updated = period
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("opening balance revised",
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.String("opening", req.Opening.String()))
	return updated, nil
}

func (s *Service) createPeriod(ctx context.Context, req domain.OpenOrReviseRequest, description string) (*domain.BalancePeriod, error) {
	now := time.Now().UTC()
	period := &domain.BalancePeriod{
		ID:               s.genID.Generate(),
		UserID:           req.ActorID,
		Year:             req.Year,
		Month:            req.Month,
		OpeningBalance:   req.Opening,
		ManualAdjustment: decimal.Zero,
		CurrentBalance:   req.Opening,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.periods.Insert(ctx, tx, period); err != nil {
			return err
		}
		if !req.Opening.IsZero() {
			desc := description
			if desc == "" {
				desc = defaultOpeningDescription
			}
			return s.entries.Insert(ctx, tx, s.entryFromDelta(period, req.Opening, domain.SourceOpening, desc, req.ActorID))
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrPeriodExists
		}
		return nil, err
	}

	s.log.Info("balance period created",
		zap.Int("year", req.Year),
		zap.Int("month", req.Month),
		zap.String("opening", req.Opening.String()))
	return period, nil
}

// ApplyAdjustment applies an ad-hoc signed delta to an existing period. The
// log entry lands in the same transaction as the atomic cache increment.
func (s *Service) ApplyAdjustment(ctx context.Context, req domain.AdjustRequest) (*domain.BalancePeriod, error) {
	if req.Delta.IsZero() {
		return nil, domain.ErrInvalidDelta
	}
	description, err := normalizeDescription(req.Description, false)
	if err != nil {
		return nil, err
	}

	period, err := s.periods.FindByID(ctx, s.db, req.PeriodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domain.ErrPeriodNotFound
	}

	var updated *domain.BalancePeriod
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.entries.Insert(ctx, tx, s.entryFromDelta(period, req.Delta, domain.SourceAdjust, description, req.ActorID)); err != nil {
			return err
		}
		updated, err = s.periods.ApplyDelta(ctx, tx, period.ID, req.Delta, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RecordTransaction appends a described credit or debit for (year, month),
// implicitly creating the period with a zero opening balance when absent.
func (s *Service) RecordTransaction(ctx context.Context, req domain.RecordTransactionRequest) (*domain.BalancePeriod, *domain.TransactionEntry, error) {
	if err := validateYearMonth(req.Year, req.Month); err != nil {
		return nil, nil, err
	}
	if req.Kind != domain.KindCredit && req.Kind != domain.KindDebit {
		return nil, nil, domain.ErrInvalidKind
	}
	if !req.Amount.IsPositive() {
		return nil, nil, domain.ErrInvalidAmount
	}
	description, err := normalizeDescription(req.Description, false)
	if err != nil {
		return nil, nil, err
	}
	if err := s.ensureEnabled(ctx, req.Year, req.Month); err != nil {
		return nil, nil, err
	}

	period, err := s.findOrCreatePeriod(ctx, req.Year, req.Month, req.ActorID)
	if err != nil {
		return nil, nil, err
	}

	delta := req.Amount
	if req.Kind == domain.KindDebit {
		delta = req.Amount.Neg()
	}

	entry := &domain.TransactionEntry{
		ID:          s.genID.Generate(),
		BalanceID:   period.ID,
		Year:        period.Year,
		Month:       period.Month,
		Kind:        req.Kind,
		Amount:      req.Amount,
		Description: description,
		Source:      domain.SourceManual,
		UserID:      req.ActorID,
		CreatedAt:   time.Now().UTC(),
	}

	var updated *domain.BalancePeriod
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Log first: if only one write can land, it must be the entry so the
		// balance stays rebuildable from the log.
		if err := s.entries.Insert(ctx, tx, entry); err != nil {
			return err
		}
		updated, err = s.periods.ApplyDelta(ctx, tx, period.ID, delta, true)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, entry, nil
}

func (s *Service) findOrCreatePeriod(ctx context.Context, year, month int, actorID snowflake.ID) (*domain.BalancePeriod, error) {
	period, err := s.periods.FindByYearMonth(ctx, s.db, year, month)
	if err != nil {
		return nil, err
	}
	if period != nil {
		return period, nil
	}

	now := time.Now().UTC()
	period = &domain.BalancePeriod{
		ID:               s.genID.Generate(),
		UserID:           actorID,
		Year:             year,
		Month:            month,
		OpeningBalance:   decimal.Zero,
		ManualAdjustment: decimal.Zero,
		CurrentBalance:   decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.periods.Insert(ctx, s.db, period); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost the create race; the winner's row is the period.
			return s.requirePeriodByYearMonth(ctx, year, month)
		}
		return nil, err
	}
	return period, nil
}

func (s *Service) requirePeriodByYearMonth(ctx context.Context, year, month int) (*domain.BalancePeriod, error) {
	period, err := s.periods.FindByYearMonth(ctx, s.db, year, month)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domain.ErrPeriodNotFound
	}
	return period, nil
}

func (s *Service) ListPeriods(ctx context.Context, year int) ([]domain.PeriodView, error) {
	periods, err := s.periods.ListByYear(ctx, s.db, year)
	if err != nil {
		return nil, err
	}

	ids := make([]snowflake.ID, 0, len(periods))
	seen := make(map[snowflake.ID]struct{}, len(periods))
	for _, p := range periods {
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		ids = append(ids, p.UserID)
	}

	names := map[snowflake.ID]string{}
	if len(ids) > 0 && s.resolver != nil {
		names, err = s.resolver.ResolveDisplayNames(ctx, ids)
		if err != nil {
			// Display enrichment never blocks the read path.
			s.log.Warn("resolve display names failed", zap.Error(err))
			names = map[snowflake.ID]string{}
		}
	}

	views := make([]domain.PeriodView, 0, len(periods))
	for _, p := range periods {
		views = append(views, domain.PeriodView{
			BalancePeriod: *p,
			CreatedBy:     names[p.UserID],
		})
	}
	return views, nil
}

func (s *Service) ListEntries(ctx context.Context, periodID snowflake.ID, limit int) ([]*domain.TransactionEntry, error) {
	period, err := s.periods.FindByID(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domain.ErrPeriodNotFound
	}
	return s.entries.ListByPeriod(ctx, s.db, periodID, limit)
}

func (s *Service) ListEntriesByActor(ctx context.Context, actorID snowflake.ID, limit int) ([]*domain.TransactionEntry, error) {
	return s.entries.ListByActor(ctx, s.db, actorID, limit)
}

// Reconcile recomputes the cached balance from the opening baseline plus the
// signed sum of the period's log and overwrites the cache when it diverged.
// Safe to run repeatedly; the recovery path after a partial failure.
func (s *Service) Reconcile(ctx context.Context, periodID snowflake.ID) (*domain.BalancePeriod, error) {
	period, err := s.periods.FindByID(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, domain.ErrPeriodNotFound
	}

	sum, err := s.entries.SumSignedByPeriod(ctx, s.db, periodID)
	if err != nil {
		return nil, err
	}

	expected := period.OpeningBalance.Add(sum)
	if expected.Equal(period.CurrentBalance) {
		return period, nil
	}

	s.log.Warn("cached balance diverged from log",
		zap.Int("year", period.Year),
		zap.Int("month", period.Month),
		zap.String("cached", period.CurrentBalance.String()),
		zap.String("expected", expected.String()))

	if err := s.periods.SetCurrentBalance(ctx, s.db, periodID, expected); err != nil {
		return nil, err
	}
	return s.periods.FindByID(ctx, s.db, periodID)
}

func (s *Service) ensureEnabled(ctx context.Context, year, month int) error {
	if s.registry == nil {
		return nil
	}
	enabled, err := s.registry.IsPeriodEnabled(ctx, year, month)
	if err != nil {
		return err
	}
	if !enabled {
		return domain.ErrPeriodDisabled
	}
	return nil
}

func (s *Service) entryFromDelta(period *domain.BalancePeriod, delta decimal.Decimal, source domain.TransactionSource, description string, actorID snowflake.ID) *domain.TransactionEntry {
	kind := domain.KindCredit
	if delta.IsNegative() {
		kind = domain.KindDebit
	}
	return &domain.TransactionEntry{
		ID:          s.genID.Generate(),
		BalanceID:   period.ID,
		Year:        period.Year,
		Month:       period.Month,
		Kind:        kind,
		Amount:      delta.Abs(),
		Description: description,
		Source:      source,
		UserID:      actorID,
		CreatedAt:   time.Now().UTC(),
	}
}

func validateYearMonth(year, month int) error {
	if year < 1900 || year > 2100 {
		return domain.ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return domain.ErrInvalidMonth
	}
	return nil
}

func normalizeDescription(raw string, optional bool) (string, error) {
	description := strings.TrimSpace(raw)
	if description == "" {
		if optional {
			return "", nil
		}
		return "", domain.ErrInvalidDescription
	}
	if len(description) > maxDescriptionLen {
		return "", domain.ErrInvalidDescription
	}
	return description, nil
}
