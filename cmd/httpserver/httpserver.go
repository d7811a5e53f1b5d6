// Package httpserver manages server creation and api routing.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/idempotency"
	"github.com/go-petr/pet-ledger/internal/ledgerdelivery"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/ledgerstore"
	"github.com/go-petr/pet-ledger/internal/lockmgr"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/tokenpkg"
)

const readHeaderTimeout = 10 * time.Second

// Deps are the collaborators the server is built from. The caller owns them and
// closes them after the server has shut down.
type Deps struct {
	Store     ledgerstore.Store
	Accounts  ledgerservice.AccountDirectory
	Banks     ledgerservice.BankDirectory
	Publisher ledgerservice.Publisher

	// Redis enables Idempotency-Key support when set.
	Redis redis.UniversalClient
}

// Server holds handlers router and configuration.
type Server struct {
	Engine     *gin.Engine
	Config     configpkg.Config
	TokenMaker tokenpkg.Maker
	Service    *ledgerservice.Service

	srv *http.Server
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(deps Deps, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	if deps.Store == nil || deps.Accounts == nil || deps.Banks == nil {
		return nil, errors.New("store and directories are required")
	}

	tokenMaker, err := tokenpkg.NewMaker(config.TokenType, config.TokenSymmetric)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	opts := []ledgerservice.Option{ledgerservice.WithPageSize(config.HistoryPageSize)}
	if deps.Publisher != nil {
		opts = append(opts, ledgerservice.WithPublisher(deps.Publisher))
	}

	locks := lockmgr.New(config.LockWaitTimeout)
	service := ledgerservice.New(deps.Store, locks, deps.Accounts, deps.Banks, opts...)
	handler := ledgerdelivery.NewHandler(service, config.ConflictRetries)

	if err := ledgerdelivery.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("cannot register validators: %w", err)
	}

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	authRoutes := engine.Group("/", middleware.AuthMiddleware(tokenMaker))

	if deps.Redis != nil {
		store := idempotency.NewRedisStore(deps.Redis)
		authRoutes.Use(idempotency.Middleware(store, config.IdempotencyTTL))
	}

	authRoutes.POST("/accounts", handler.Open)
	authRoutes.GET("/accounts/:id", handler.Get)
	authRoutes.GET("/accounts/:id/history", handler.History)
	authRoutes.POST("/accounts/:id/deposit", handler.Deposit)
	authRoutes.POST("/accounts/:id/withdraw", handler.Withdraw)
	authRoutes.POST("/accounts/:id/freeze", handler.Freeze)
	authRoutes.POST("/accounts/:id/unfreeze", handler.Unfreeze)
	authRoutes.POST("/accounts/:id/close", handler.Close)

	authRoutes.POST("/transfers", handler.Transfer)

	adminRoutes := authRoutes.Group("/admin", middleware.RequireRole(tokenpkg.RoleAdmin))

	adminRoutes.POST("/accounts/:id/suspend", handler.Suspend)
	adminRoutes.GET("/accounts/:id/reconcile", handler.Reconcile)
	adminRoutes.GET("/accounts/:id/status-changes", handler.StatusChanges)

	server := &Server{
		Engine:     engine,
		Config:     config,
		TokenMaker: tokenMaker,
		Service:    service,
		srv: &http.Server{
			Addr:              config.ServerAddress,
			Handler:           engine,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}

	return server, nil
}

// Start serves requests until Shutdown is called.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
