package service

import (
	"context"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/saldoapp/saldo/internal/year/domain"
	"github.com/saldoapp/saldo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Resolver DisplayNameResolver
}

// DisplayNameResolver mirrors the ledger's read-path enrichment hook so the
// year registry can show who created each year.
type DisplayNameResolver interface {
	ResolveDisplayNames(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error)
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	resolver DisplayNameResolver
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("year.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		resolver: p.Resolver,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Year, error) {
	if req.Year < 1900 || req.Year > 2100 {
		return nil, domain.ErrInvalidYear
	}

	months, err := normalizeMonths(req.Months, req.AllMonths)
	if err != nil {
		return nil, err
	}
	encoded, err := domain.EncodeMonths(months)
	if err != nil {
		return nil, err
	}

	year := &domain.Year{
		ID:            s.genID.Generate(),
		UserID:        req.ActorID,
		Year:          req.Year,
		MonthsEnabled: encoded,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, year); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrYearExists
		}
		return nil, err
	}

	s.log.Info("year created", zap.Int("year", req.Year), zap.Ints("months", months))
	return year, nil
}

func (s *Service) List(ctx context.Context) ([]domain.YearView, error) {
	years, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	ids := make([]snowflake.ID, 0, len(years))
	seen := make(map[snowflake.ID]struct{}, len(years))
	for _, y := range years {
		if _, ok := seen[y.UserID]; ok {
			continue
		}
		seen[y.UserID] = struct{}{}
		ids = append(ids, y.UserID)
	}

	names := map[snowflake.ID]string{}
	if len(ids) > 0 && s.resolver != nil {
		names, err = s.resolver.ResolveDisplayNames(ctx, ids)
		if err != nil {
			s.log.Warn("resolve display names failed", zap.Error(err))
			names = map[snowflake.ID]string{}
		}
	}

	views := make([]domain.YearView, 0, len(years))
	for _, y := range years {
		views = append(views, domain.YearView{
			Year:      *y,
			CreatedBy: names[y.UserID],
		})
	}
	return views, nil
}

func (s *Service) IsPeriodEnabled(ctx context.Context, year, month int) (bool, error) {
	row, err := s.repo.FindByYear(ctx, s.db, year)
	if err != nil {
		return false, err
	}
	if row == nil {
		return false, nil
	}
	for _, m := range row.Months() {
		if m == month {
			return true, nil
		}
	}
	return false, nil
}

func normalizeMonths(months []int, all bool) ([]int, error) {
	if all {
		return []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, nil
	}
	if len(months) == 0 {
		return nil, domain.ErrInvalidMonths
	}

	seen := make(map[int]struct{}, len(months))
	unique := make([]int, 0, len(months))
	for _, m := range months {
		if m < 1 || m > 12 {
			return nil, domain.ErrInvalidMonths
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		unique = append(unique, m)
	}
	sort.Ints(unique)
	return unique, nil
}
