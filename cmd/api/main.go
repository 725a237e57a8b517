package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arkiv/internal/auth"
	"arkiv/internal/config"
	"arkiv/internal/database"
	"arkiv/internal/database/migration"
	handlers "arkiv/internal/http/handler"
	"arkiv/internal/http/middleware"
	"arkiv/internal/ingest"
	"arkiv/internal/otel"
	"arkiv/internal/repository/postgres"
	"arkiv/internal/service"
	"arkiv/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Lazily-initialized database handle; the first user opens it exactly once.
	connector := database.NewConnector(cfg.Database)
	defer connector.Close()

	db, err := connector.Get()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// S3-compatible object storage client for document payloads.
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	authenticator, err := auth.New(cfg.Auth)
	if err != nil {
		log.Fatalf("failed to initialize authenticator: %v", err)
	}

	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo)

	ingestMetrics, err := ingest.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register ingestion metrics: %v", err)
	}
	coordinator := ingest.NewCoordinator(docSvc, ingestMetrics)

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// The upload pipeline consumes the body as a stream; the limit is the
		// aggregate ingestion cap, enforced again byte-by-byte while parsing.
		StreamRequestBody: true,
		BodyLimit:         int(cfg.Ingestion.MaxRequestSize()),
		// Multipart parsing belongs to the ingestion pipeline, which relies on
		// the original part order. fasthttp's pre-parse re-marshals the form
		// with all value fields ahead of all files, so it must stay off.
		DisablePreParseMultipartForm: true,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	ingestion := func() config.IngestionConfig { return cfg.Ingestion }
	handlers.RegisterRoutes(app, db, docSvc, coordinator, ingestion, authenticator)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
