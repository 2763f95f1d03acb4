package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/ledgerline/invoicer/internal/config"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
	paymentdomain "github.com/ledgerline/invoicer/internal/payment/domain"
	"github.com/ledgerline/invoicer/internal/providers/pdf"
	"github.com/ledgerline/invoicer/internal/ratelimit"
	"github.com/ledgerline/invoicer/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	db          *gorm.DB
	genID       *snowflake.Node
	identitySvc identitydomain.Service
	invoiceSvc  invoicedomain.Service
	paymentSvc  paymentdomain.Service
	pdfProvider pdf.Provider
	limiter     *ratelimit.RequestLimiter
	metrics     *telemetry.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	DB          *gorm.DB
	GenID       *snowflake.Node
	IdentitySvc identitydomain.Service
	InvoiceSvc  invoicedomain.Service
	PaymentSvc  paymentdomain.Service
	PDFProvider pdf.Provider
	Limiter     *ratelimit.RequestLimiter
	Metrics     *telemetry.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log.Named("http.server"),
		db:          p.DB,
		genID:       p.GenID,
		identitySvc: p.IdentitySvc,
		invoiceSvc:  p.InvoiceSvc,
		paymentSvc:  p.PaymentSvc,
		pdfProvider: p.PDFProvider,
		limiter:     p.Limiter,
		metrics:     p.Metrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")
	auth.Use(s.RequestLogger(), s.RateLimit())

	auth.POST("/register", s.Register)
	auth.POST("/login", s.Login)

	authed := auth.Group("")
	authed.Use(s.AuthRequired())
	authed.POST("/logout", s.Logout)
	authed.GET("/me", s.Me)
	authed.POST("/change-password", s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.RequestLogger(), s.AuthRequired(), s.RateLimit())

	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id", s.UpdateInvoice)
	api.PATCH("/invoices/:id/status", s.UpdateInvoiceStatus)
	api.DELETE("/invoices/:id", s.DeleteInvoice)
	api.GET("/invoices/:id/download", s.DownloadInvoice)

	api.POST("/payments/card", s.ApplyCardPayment)
	api.POST("/payments/qr", s.ApplyQRPayment)
	api.GET("/payments/:invoiceId/status", s.GetPaymentStatus)

	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomer)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
