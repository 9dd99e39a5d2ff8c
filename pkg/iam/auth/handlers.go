package auth

import (
	"time"

	"github.com/chriswk/auth-app/pkg/config"
	"github.com/chriswk/auth-app/pkg/iam/session"
	"github.com/chriswk/auth-app/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// AuthHandlers exposes the login flow over HTTP. Routes are registered on
// the router by the composition root; failures are recovered into coded
// responses by the global error handler.
type AuthHandlers struct {
	service           *AuthService
	cookie            config.CookieConfig
	postLoginRedirect string
}

// NewAuthHandlers creates the HTTP surface for the login flow.
func NewAuthHandlers(service *AuthService, cookie config.CookieConfig, postLoginRedirect string) *AuthHandlers {
	return &AuthHandlers{
		service:           service,
		cookie:            cookie,
		postLoginRedirect: postLoginRedirect,
	}
}

// RegisterRoutes registers /auth/login, /auth/callback, /auth/logout and
// the authenticated /auth/me.
func (h *AuthHandlers) RegisterRoutes(app *fiber.App, mw *session.Middleware) {
	app.Get("/auth/login", h.Login)
	app.Get("/auth/callback", h.Callback)
	app.Get("/auth/logout", h.Logout)
	app.Get("/auth/me", mw.Authenticate(), h.Me)
}

// Login initiates the flow: 302 to the provider authorization URL.
func (h *AuthHandlers) Login(c *fiber.Ctx) error {
	url, err := h.service.BeginLogin(c.Context())
	if err != nil {
		return err
	}
	return c.Redirect(url, fiber.StatusFound)
}

// Callback completes the flow. On success it sets the session cookie and
// redirects to the landing page; on any failure no cookie is set and the
// coded error surfaces (401 for a rejected flow, 403 for a domain miss).
func (h *AuthHandlers) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return ErrAccessNotAllowed().WithDetail("reason", "missing code or state")
	}

	token, email, err := h.service.CompleteLogin(c.Context(), code, state)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Domain:   h.cookie.Domain,
		Path:     "/",
		MaxAge:   int(h.cookie.Lifetime.Seconds()),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})

	logx.WithField("email", email.String()).Info("Login completed")
	return c.Redirect(h.postLoginRedirect, fiber.StatusFound)
}

// Logout clears the client-visible session indicator and redirects home.
// The token itself stays valid until expiry; there is no revocation list.
func (h *AuthHandlers) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Domain:   h.cookie.Domain,
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return c.Redirect("/", fiber.StatusFound)
}

// Me returns the identity claims of the current session.
func (h *AuthHandlers) Me(c *fiber.Ctx) error {
	ac, ok := session.AuthContextFrom(c)
	if !ok {
		return session.ErrInvalidToken()
	}
	return c.JSON(ac)
}
