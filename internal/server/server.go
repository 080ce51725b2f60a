package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/zyra/internal/aitext"
	aitextdomain "github.com/smallbiznis/zyra/internal/aitext/domain"
	"github.com/smallbiznis/zyra/internal/auth"
	authdomain "github.com/smallbiznis/zyra/internal/auth/domain"
	"github.com/smallbiznis/zyra/internal/auth/session"
	"github.com/smallbiznis/zyra/internal/billing"
	billingdomain "github.com/smallbiznis/zyra/internal/billing/domain"
	"github.com/smallbiznis/zyra/internal/config"
	"github.com/smallbiznis/zyra/internal/notification"
	notificationdomain "github.com/smallbiznis/zyra/internal/notification/domain"
	"github.com/smallbiznis/zyra/internal/observability"
	obslogger "github.com/smallbiznis/zyra/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/zyra/internal/observability/metrics"
	obstracing "github.com/smallbiznis/zyra/internal/observability/tracing"
	"github.com/smallbiznis/zyra/internal/product"
	productdomain "github.com/smallbiznis/zyra/internal/product/domain"
	"github.com/smallbiznis/zyra/internal/ratelimit"
	"github.com/smallbiznis/zyra/internal/usagestats"
	usagedomain "github.com/smallbiznis/zyra/internal/usagestats/domain"
	"github.com/smallbiznis/zyra/internal/usagestats/liveevents"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	usagestats.Module,
	product.Module,
	aitext.Module,
	billing.Module,
	notification.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
		QuietRoutes:     []string{"/health", "/api/dashboard"},
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	authsvc         authdomain.Service
	sessions        *session.Manager
	usagesvc        usagedomain.Service
	productSvc      productdomain.Service
	aiSvc           aitextdomain.Service
	billingSvc      billingdomain.Service
	notificationSvc notificationdomain.Service
	liveEvents      *liveevents.Hub
	limiter         *ratelimit.Limiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Authsvc         authdomain.Service
	Sessions        *session.Manager
	Usagesvc        usagedomain.Service
	ProductSvc      productdomain.Service
	AISvc           aitextdomain.Service
	BillingSvc      billingdomain.Service
	NotificationSvc notificationdomain.Service
	LiveEvents      *liveevents.Hub     `optional:"true"`
	Limiter         *ratelimit.Limiter  `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		authsvc:         p.Authsvc,
		sessions:        p.Sessions,
		usagesvc:        p.Usagesvc,
		productSvc:      p.ProductSvc,
		aiSvc:           p.AISvc,
		billingSvc:      p.BillingSvc,
		notificationSvc: p.NotificationSvc,
		liveEvents:      p.LiveEvents,
		limiter:         p.Limiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerDashboardRoutes()
	svc.registerProductRoutes()
	svc.registerAIRoutes()
	svc.registerBillingRoutes()
	svc.registerNotificationRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	api := s.engine.Group("/api")

	api.POST("/register", s.Register)
	api.POST("/login", s.Login)
	api.POST("/logout", s.Logout)
	api.GET("/me", s.AuthRequired(), s.Me)
	api.PATCH("/profile", s.AuthRequired(), s.UpdateProfile)
}

func (s *Server) registerDashboardRoutes() {
	dashboard := s.engine.Group("/api/dashboard", s.AuthRequired())

	dashboard.GET("", s.GetDashboard)
	dashboard.GET("/events", s.StreamDashboardEvents)
	dashboard.POST("/initialize", s.InitializeDashboard)
	dashboard.POST("/track-tool-access", s.TrackToolAccess)
	dashboard.POST("/log-activity", s.LogActivity)
	dashboard.POST("/update-usage", s.UpdateUsage)
	dashboard.POST("/refresh-metrics", s.RefreshMetrics)
}

func (s *Server) registerProductRoutes() {
	products := s.engine.Group("/api/products", s.AuthRequired())

	products.GET("", s.ListProducts)
	products.POST("", s.CreateProduct)
	products.POST("/optimize-all", s.OptimizeAllProducts)
	products.GET("/:id", s.GetProductByID)
	products.PATCH("/:id", s.UpdateProduct)
	products.DELETE("/:id", s.DeleteProduct)
}

func (s *Server) registerAIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired(), s.AIRateLimit())

	api.POST("/generate-description", s.GenerateDescription)
	api.POST("/optimize-seo", s.OptimizeSEO)
}

func (s *Server) registerBillingRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	// -------- Subscription --------
	api.GET("/subscription", s.GetSubscription)
	api.POST("/subscription", s.CreateSubscription)
	api.PATCH("/subscription", s.ChangeSubscriptionPlan)
	api.POST("/subscription/cancel", s.CancelSubscription)
	api.GET("/subscription/plans", s.ListPlans)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.GET("/invoices/:id/pdf", s.DownloadInvoicePDF)

	// -------- Payment methods --------
	api.GET("/payment-methods", s.ListPaymentMethods)
	api.POST("/payment-methods", s.AddPaymentMethod)
	api.PATCH("/payment-methods/:id/default", s.SetDefaultPaymentMethod)
	api.DELETE("/payment-methods/:id", s.RemovePaymentMethod)
}

func (s *Server) registerNotificationRoutes() {
	notifications := s.engine.Group("/api/notifications", s.AuthRequired())

	notifications.GET("", s.ListNotifications)
	notifications.POST("", s.CreateNotification)
	notifications.POST("/read-all", s.MarkAllNotificationsRead)
	notifications.PATCH("/:id", s.UpdateNotification)
	notifications.DELETE("/:id", s.DeleteNotification)
}
