package handler

import (
	"bytes"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"arkiv/internal/config"
	"arkiv/internal/http/middleware"
	"arkiv/internal/ingest"
)

// UploadDocuments streams the multipart request body through the ingestion
// pipeline. Per-file outcomes come back as HTTP 200 with an aggregate result;
// only request-level precondition failures and internal faults map to error
// statuses.
func UploadDocuments(co *ingest.Coordinator, ingestion config.IngestionProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := ingest.RequestInfo{
			Method:        c.Method(),
			ContentType:   c.Get(fiber.HeaderContentType),
			ContentLength: int64(c.Request().Header.ContentLength()),
			Origin:        c.Get(fiber.HeaderOrigin),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
		}
		actor := middleware.ActorFromCtx(c)

		res, err := co.Ingest(c.UserContext(), requestBody(c), req, ingestion(), actor)
		if err != nil {
			var perr *ingest.PreconditionError
			if errors.As(err, &perr) {
				return c.Status(perr.Status).JSON(fiber.Map{
					"success": false,
					"error":   fiber.Map{"code": perr.Code, "message": perr.Message},
				})
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// requestBody returns the body as a stream. With StreamRequestBody enabled
// the bytes arrive incrementally; otherwise (app.Test) the buffered body is
// wrapped.
func requestBody(c *fiber.Ctx) io.Reader {
	if rs := c.Context().RequestBodyStream(); rs != nil {
		return rs
	}
	return bytes.NewReader(c.Body())
}
