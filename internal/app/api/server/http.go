package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/bizpay/docs"
	"github.com/fatflowers/bizpay/internal/app/api/handlers"
	mw "github.com/fatflowers/bizpay/internal/app/api/middleware"
	"github.com/fatflowers/bizpay/internal/app/service/click"
	"github.com/fatflowers/bizpay/internal/app/service/ledger"
	"github.com/fatflowers/bizpay/internal/app/service/payment"
	"github.com/fatflowers/bizpay/pkg/authtoken"
	cfgpkg "github.com/fatflowers/bizpay/pkg/config"
	"github.com/fatflowers/bizpay/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger & access log are attached per group in registerRoutes.
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(r *gin.Engine, log *zap.SugaredLogger, db *gorm.DB, clickSvc *click.Service, paySvc *payment.Service, l *ledger.Ledger, cfg *cfgpkg.Config) {
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			Subsystem:   "bizpay",
			MetricsList: metrics.BusinessMetrics,
			Logger:      log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub, handlers.DBPing(db))
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())

	// Click calls these directly; requests are authenticated by sign_string.
	handlers.RegisterClickRoutes(apiV1.Group("/click"), clickSvc)

	payments := apiV1.Group("/payments")
	payments.Use(mw.AuthMiddleware(cfg))
	handlers.RegisterPaymentRoutes(payments, paySvc)

	admin := apiV1.Group("/admin")
	admin.Use(mw.AuthMiddleware(cfg), mw.RequireRole(authtoken.RoleAdmin))
	handlers.RegisterAdminPaymentRoutes(admin, l)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
