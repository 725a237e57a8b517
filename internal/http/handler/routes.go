package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"arkiv/internal/config"
	"arkiv/internal/http/middleware"
	"arkiv/internal/ingest"
	"arkiv/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, co *ingest.Coordinator, ingestion config.IngestionProvider, verifier middleware.TokenVerifier) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Health: readiness checks DB connectivity, liveness checks nothing.
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Every document route requires a valid session.
	docs := app.Group("/documents", middleware.Auth(verifier))
	docs.Get("/", ListDocuments(docSvc))
	docs.Post("/", UploadDocuments(co, ingestion))
	docs.Get("/:hash", GetDocument(docSvc))
	docs.Get("/:hash/content", DownloadDocument(docSvc))
	docs.Patch("/:hash", UpdateDocument(docSvc))
	docs.Delete("/:hash", DeleteDocument(docSvc))
}
