package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"promobank/internal/balance"
	"promobank/internal/config"
	"promobank/internal/identity"
	"promobank/internal/notifier"
	"promobank/internal/promocode"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	events *notifier.Service
}

func New(db *sqlx.DB, cfg *config.Config, events *notifier.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	balanceRepo := balance.NewRepository(db)
	balanceSvc := balance.NewService(balanceRepo, events)
	balanceHandler := balance.NewHandler(balanceSvc)

	promoRepo := promocode.NewRepository(db)
	promoSvc := promocode.NewService(db, promoRepo, balanceRepo, events)
	promoHandler := promocode.NewHandler(promoSvc)

	authed := router.Group("/")
	authed.Use(identity.Middleware())
	{
		authed.GET("/balance", balanceHandler.GetBalance)
		authed.GET("/balance/transactions", balanceHandler.ListTransactions)
		authed.POST("/balance/credit", balanceHandler.Credit)
		authed.POST("/balance/debit", balanceHandler.Debit)
		authed.POST("/promocodes/activate", promoHandler.Activate)
		authed.GET("/promocodes/my/usages", promoHandler.MyUsages)
		authed.GET("/promocodes/:code", promoHandler.GetByCode)
	}

	admin := router.Group("/admin")
	admin.Use(identity.Middleware(), identity.RequireRole(identity.RoleAdmin))
	{
		admin.POST("/promocodes", promoHandler.Create)
		admin.GET("/promocodes", promoHandler.List)
		admin.PATCH("/promocodes/:id/deactivate", promoHandler.Deactivate)
		admin.GET("/promocodes/:id/usages", promoHandler.Usages)
		admin.POST("/balances", balanceHandler.CreateBalance)
		admin.GET("/queue-status", QueueStatus(events))
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		events: events,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-User-ID, X-User-Role, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
