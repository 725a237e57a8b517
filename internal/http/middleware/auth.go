package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"arkiv/internal/model"
)

const (
	// SessionCookie is the cookie the web client stores its session token in.
	SessionCookie = "arkiv_session"
	// ActorLocalKey is the key the authenticated actor is stored under in
	// Fiber's context locals.
	ActorLocalKey = "actor"
)

// TokenVerifier is what the auth middleware needs from the authenticator.
type TokenVerifier interface {
	Verify(token string) (model.Actor, error)
}

// Auth reads the session token from the session cookie or a Bearer
// Authorization header, verifies it and stores the resulting actor in
// context locals. Requests without a valid token get 401.
func Auth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing session token")
		}

		actor, err := verifier.Verify(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired session")
		}

		c.Locals(ActorLocalKey, actor)
		return c.Next()
	}
}

// ActorFromCtx returns the actor stored by Auth. The zero actor (no tier)
// comes back when the middleware did not run.
func ActorFromCtx(c *fiber.Ctx) model.Actor {
	actor, _ := c.Locals(ActorLocalKey).(model.Actor)
	return actor
}
