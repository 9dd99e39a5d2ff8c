// Package guard protects the machine-to-machine API surface with the
// shared secret carried in the Authorization header.
package guard

import (
	"crypto/subtle"
	"net/http"

	"github.com/chriswk/auth-app/pkg/errx"
	"github.com/gofiber/fiber/v2"
)

var ErrRegistry = errx.NewRegistry("GUARD")

var CodeUnauthorized = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Missing or invalid authorization")

// SharedSecret returns a middleware admitting only requests whose
// Authorization header equals the configured secret. The comparison is
// constant time.
func SharedSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return ErrRegistry.New(CodeUnauthorized)
		}
		if subtle.ConstantTimeCompare([]byte(header), []byte(secret)) != 1 {
			return ErrRegistry.New(CodeUnauthorized)
		}
		return c.Next()
	}
}
