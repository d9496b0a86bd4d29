package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medreview/medreview/internal/config"
	"github.com/medreview/medreview/internal/domain/favorite"
	"github.com/medreview/medreview/internal/domain/identity"
	"github.com/medreview/medreview/internal/domain/medicine"
	"github.com/medreview/medreview/internal/domain/review"
	"github.com/medreview/medreview/internal/domain/search"
	"github.com/medreview/medreview/internal/platform/auth"
	"github.com/medreview/medreview/internal/platform/blobstore"
	"github.com/medreview/medreview/internal/platform/db"
	"github.com/medreview/medreview/internal/platform/llm"
	"github.com/medreview/medreview/internal/platform/metrics"
	"github.com/medreview/medreview/internal/platform/middleware"
	"github.com/medreview/medreview/internal/platform/openapi"
	"github.com/medreview/medreview/internal/platform/openfda"
)

const (
	apiVersion       = "0.1.0"
	imageSearchRoute = "/api/v1/users/:id/search"
)

// services holds every domain service the HTTP and MCP surfaces expose.
type services struct {
	identity  *identity.Service
	medicines *medicine.Service
	reviews   *review.Service
	favorites *favorite.Service
	search    *search.Service
	refresher *medicine.Refresher
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Schema:   cfg.DBSchema,
	})
}

// buildServices wires repositories, outbound clients and services.
func buildServices(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*services, error) {
	gen, err := llm.New(ctx, llm.Config{
		Provider:      cfg.ReasoningProvider,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		CohereAPIKey:  cfg.CohereAPIKey,
		CohereModel:   cfg.CohereModel,
		CohereBaseURL: cfg.CohereBaseURL,
		Timeout:       cfg.LLMTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("reasoning provider: %w", err)
	}

	labels := openfda.NewClient(openfda.Config{
		BaseURL:           cfg.OpenFDABaseURL,
		APIKey:            cfg.OpenFDAAPIKey,
		Timeout:           cfg.OpenFDATimeout,
		RequestsPerSecond: cfg.OpenFDARPS,
	}, logger)

	identitySvc := identity.NewService(
		identity.NewUserRepoPG(pool),
		identity.NewProfileRepoPG(pool),
		identity.NewMedicalDataRepoPG(pool),
		pool,
	)
	medicineRepo := medicine.NewRepoPG(pool)
	medicineSvc := medicine.NewService(medicineRepo)

	reviewSvc := review.NewService(review.NewRepoPG(pool), identitySvc, medicineSvc, logger)
	if cfg.SentimentEnabled {
		reviewSvc.SetSentimentScorer(review.NewModelSentimentScorer(gen))
		logger.Info().Msg("review sentiment scoring enabled")
	}

	favoriteSvc := favorite.NewService(favorite.NewRepoPG(pool), identitySvc, medicineSvc)

	reasoner := search.NewModelReasoner(gen, cfg.LLMTimeout, logger)
	searchSvc := search.NewService(identitySvc, medicineSvc, reviewSvc, labels, reasoner, logger)
	if cfg.ImageArchiveBucket != "" {
		store, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:    cfg.ImageArchiveBucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("image archive: %w", err)
		}
		searchSvc.SetImageArchive(store)
		logger.Info().Str("bucket", cfg.ImageArchiveBucket).Msg("search image archive enabled")
	}

	svcs := &services{
		identity:  identitySvc,
		medicines: medicineSvc,
		reviews:   reviewSvc,
		favorites: favoriteSvc,
		search:    searchSvc,
	}
	if cfg.LabelRefreshEnabled {
		svcs.refresher = medicine.NewRefresher(medicineRepo, labels, medicine.RefresherConfig{
			At:     cfg.LabelRefreshAt,
			MaxAge: cfg.LabelRefreshMaxAge,
			Batch:  cfg.LabelRefreshBatch,
		}, logger)
	}
	return svcs, nil
}

// newServer builds the echo instance with the middleware chain and routes.
func newServer(cfg *config.Config, logger zerolog.Logger, svcs *services, pinger db.Pinger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", auth.DevUserHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.UploadLimit, imageSearchRoute))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/metrics"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if pinger != nil {
		e.GET("/health/db", db.HealthHandler(pinger))
	}
	e.GET("/metrics", metrics.Handler())

	authMW, err := authMiddleware(cfg, logger)
	if err != nil {
		return nil, err
	}
	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rl.BurstSize = cfg.RateLimitBurst
	}
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rl), authMW)

	identity.NewHandler(svcs.identity).RegisterRoutes(apiV1)
	medicine.NewHandler(svcs.medicines).RegisterRoutes(apiV1)
	review.NewHandler(svcs.reviews).RegisterRoutes(apiV1)
	favorite.NewHandler(svcs.favorites).RegisterRoutes(apiV1)
	search.NewHandler(svcs.search).RegisterRoutes(apiV1)

	e.GET("/openapi.json", openapi.NewGenerator(e.Routes, "medreview API", apiVersion, "/api/v1").Handler())

	return e, nil
}

func authMiddleware(cfg *config.Config, logger zerolog.Logger) (echo.MiddlewareFunc, error) {
	key, err := signingKey(cfg.AuthSigningKey)
	if err != nil {
		return nil, err
	}
	if cfg.IsDev() && key == nil && cfg.AuthIssuer == "" {
		logger.Warn().Msg("development auth enabled: requests are not authenticated")
		return auth.DevAuthMiddleware(), nil
	}
	return auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		JWKSURL:    cfg.AuthJWKSURL,
		SigningKey: key,
	}), nil
}

// signingKey decodes the hex-encoded HS256 key. An empty value selects JWKS
// validation.
func signingKey(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_SIGNING_KEY hex value: %w", err)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(key))
	}
	return key, nil
}
