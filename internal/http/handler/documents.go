package handler

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"arkiv/internal/http/middleware"
	"arkiv/internal/model"
	"arkiv/internal/repository"
	"arkiv/internal/service"
)

// ListDocuments returns documents visible to the actor, paginated with
// limit/offset. include_expired=true adds documents past their expiry date.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}
		includeExpired := c.Query("include_expired") == "true"

		res, err := docSvc.List(c.UserContext(), limit, offset, middleware.ActorFromCtx(c), includeExpired)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetDocument returns document metadata by content hash.
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hash := c.Params("hash")
		if !validHash(hash) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_HASH", "invalid hash format")
		}

		doc, err := docSvc.Get(c.UserContext(), hash, middleware.ActorFromCtx(c))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(doc)
	}
}

// DownloadDocument streams the original payload bytes by content hash.
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hash := c.Params("hash")
		if !validHash(hash) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_HASH", "invalid hash format")
		}

		rc, doc, err := docSvc.Open(c.UserContext(), hash, middleware.ActorFromCtx(c))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		// The storage key carries the original extension; the stored row
		// carries the display filename.
		ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(doc.StorageKey)))
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
		return c.SendStream(rc, int(doc.Size))
	}
}

// documentPatchRequest is the admin edit body. Absent fields stay unchanged.
type documentPatchRequest struct {
	Filename  *string `json:"filename"`
	Access    *string `json:"access"`
	CreatedAt *string `json:"created_at"`
	ExpiresAt *string `json:"expires_at"`
}

// UpdateDocument applies an admin metadata patch by content hash.
func UpdateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hash := c.Params("hash")
		if !validHash(hash) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_HASH", "invalid hash format")
		}

		var body documentPatchRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		patch := repository.DocumentPatch{Filename: body.Filename}
		if body.Access != nil {
			access := model.AccessLevel(*body.Access)
			patch.Access = &access
		}
		if body.CreatedAt != nil {
			t, err := time.Parse("2006-01-02", *body.CreatedAt)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "created_at must be YYYY-MM-DD")
			}
			patch.CreatedAt = &t
		}
		if body.ExpiresAt != nil {
			t, err := time.Parse("2006-01-02", *body.ExpiresAt)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "expires_at must be YYYY-MM-DD")
			}
			patch.ExpiresAt = &t
		}

		doc, err := docSvc.Update(c.UserContext(), hash, patch, middleware.ActorFromCtx(c))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrForbidden):
				return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "operation not allowed")
			case errors.Is(err, service.ErrInvalidAccess):
				return writeError(c, fiber.StatusBadRequest, "INVALID_ACCESS", "access must be public or private")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document by content hash.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hash := c.Params("hash")
		if !validHash(hash) {
			return writeError(c, fiber.StatusBadRequest, "INVALID_HASH", "invalid hash format")
		}

		if err := docSvc.Delete(c.UserContext(), hash, middleware.ActorFromCtx(c)); err != nil {
			switch {
			case errors.Is(err, service.ErrForbidden):
				return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "operation not allowed")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// validHash accepts a lowercase hex SHA-256 digest.
func validHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	for _, r := range hash {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
