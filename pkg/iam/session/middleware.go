package session

import (
	"github.com/chriswk/auth-app/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Middleware validates the session cookie and injects the AuthContext.
type Middleware struct {
	codec      *Codec
	cookieName string
}

// NewMiddleware creates a session middleware reading the named cookie.
func NewMiddleware(codec *Codec, cookieName string) *Middleware {
	return &Middleware{
		codec:      codec,
		cookieName: cookieName,
	}
}

// Authenticate rejects requests without a valid session cookie and stores
// the identity in fiber locals for downstream handlers.
func (m *Middleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(m.cookieName)
		if token == "" {
			return ErrInvalidToken()
		}

		claims, err := m.codec.Validate(token)
		if err != nil {
			return err
		}

		c.Locals(string(kernel.AuthContextKey), claims.AuthContext())
		return c.Next()
	}
}

// AuthContextFrom extracts the identity set by Authenticate.
func AuthContextFrom(c *fiber.Ctx) (*kernel.AuthContext, bool) {
	ac, ok := c.Locals(string(kernel.AuthContextKey)).(*kernel.AuthContext)
	if !ok || !ac.IsValid() {
		return nil, false
	}
	return ac, true
}
