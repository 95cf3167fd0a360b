package main

import (
	"context"
	"net/http"
	"slices"
	"time"

	config "github.com/NordCoder/Libra/internal/config/api-server"
	"github.com/NordCoder/Libra/internal/obs"
	pg "github.com/NordCoder/Libra/internal/repository/postgres"
	"github.com/NordCoder/Libra/internal/services/api-server/auth"
	"github.com/NordCoder/Libra/internal/services/api-server/barcodes"
	"github.com/NordCoder/Libra/internal/services/api-server/books"
	"github.com/NordCoder/Libra/internal/services/api-server/loans"
	"github.com/NordCoder/Libra/internal/services/api-server/notifications"
	"github.com/NordCoder/Libra/internal/services/api-server/preferences"
	"github.com/NordCoder/Libra/internal/services/api-server/reservations"
	"github.com/NordCoder/Libra/internal/services/api-server/uploads"
	"github.com/NordCoder/Libra/internal/services/api-server/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, nd *notifierDeps) (*http.Server, error) {
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := uploads.NewStore(cfg.Uploads, logger)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), obs.GinAccessLog(logger), cors.New(corsConfig(cfg.Server.CORSOrigins)))

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "db": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(obs.MetricsHandler()))
	r.Static(store.URLPrefix(), store.Dir())

	bookRepo := pg.NewBookRepo(db)
	userRepo := pg.NewUserRepo(db)

	api := r.Group("/api")
	protected := api.Group("")
	if cfg.Auth.Enable {
		issuer := auth.NewJWTIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
		auth.NewController(auth.NewUsecase(userRepo, issuer), logger).Register(api.Group("/auth"))
		protected.Use(auth.Middleware(issuer))
	}

	var status notifications.SchedulerStatus
	if nd.scheduler != nil {
		status = nd.scheduler
	}

	books.NewController(bookRepo, store, logger).Register(protected.Group("/books"))
	users.NewController(userRepo, store, logger).Register(protected.Group("/users"))
	loans.NewController(pg.NewLoanRepo(db), logger).Register(protected.Group("/loans"))
	reservations.NewController(pg.NewReservationRepo(db), logger).Register(protected.Group("/reservations"))
	preferences.NewController(pg.NewPreferenceRepo(db), store, logger).Register(protected.Group("/preferences"))
	notifications.NewController(pg.NewNotificationRepo(db), nd.usecase, status, logger).Register(protected.Group("/notifications"))
	barcodes.NewController(bookRepo, barcodes.NewGenerator(cfg.Barcodes.CacheTTL), logger).Register(protected.Group("/barcodes"))

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           otelhttp.NewHandler(r, "libra-api"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

func serveHTTP(srv *http.Server, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}
