package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	authdomain "github.com/saldoapp/saldo/internal/auth/domain"
	"github.com/saldoapp/saldo/internal/auth/session"
	"github.com/saldoapp/saldo/internal/config"
	ledgerdomain "github.com/saldoapp/saldo/internal/ledger/domain"
	obsmetrics "github.com/saldoapp/saldo/internal/observability/metrics"
	yeardomain "github.com/saldoapp/saldo/internal/year/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine    *gin.Engine
	cfg       config.Config
	log       *zap.Logger
	authsvc   authdomain.Service
	sessions  *session.Manager
	yearSvc   yeardomain.Service
	ledgerSvc ledgerdomain.Service
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	Log       *zap.Logger
	Authsvc   authdomain.Service
	Sessions  *session.Manager
	YearSvc   yeardomain.Service
	LedgerSvc ledgerdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		log:       p.Log.Named("http.server"),
		authsvc:   p.Authsvc,
		sessions:  p.Sessions,
		yearSvc:   p.YearSvc,
		ledgerSvc: p.LedgerSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func registerRoutes(s *Server) {
	s.RegisterAuthRoutes()
	s.RegisterAPIRoutes()
}

func (s *Server) RegisterAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
}

func (s *Server) RegisterAPIRoutes() {
	users := s.engine.Group("/users", s.AuthRequired())
	users.POST("", s.CreateUser)

	years := s.engine.Group("/years", s.AuthRequired())
	years.GET("", s.ListYears)
	years.POST("", s.CreateYear)

	balances := s.engine.Group("/balances", s.AuthRequired())
	balances.GET("", s.ListBalances)
	balances.POST("", s.UpsertBalance)
	balances.POST("/transaction", s.RecordTransaction)
	balances.GET("/transactions", s.ListMyTransactions)
	balances.PATCH("/:id/adjust", s.AdjustBalance)
	balances.GET("/:id/transactions", s.ListPeriodTransactions)
	balances.POST("/:id/reconcile", s.ReconcileBalance)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
