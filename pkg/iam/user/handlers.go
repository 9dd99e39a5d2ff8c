package user

import (
	"context"

	"github.com/chriswk/auth-app/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// ProvisioningService is the slice of the user service the HTTP surface
// needs.
type ProvisioningService interface {
	FindSignIn(ctx context.Context, email kernel.Email) ([]AccessWithSignInURL, error)
	CreateUser(ctx context.Context, email kernel.Email, clientID kernel.ClientID, role Role, notifyUser bool) error
	ListUsers(ctx context.Context) ([]UserListItem, error)
}

type signInRequest struct {
	Email string `json:"email"`
}

type createUserRequest struct {
	Email    string `json:"email"`
	ClientID string `json:"client_id"`
	Role     string `json:"role"`
	Notify   bool   `json:"notify"`
}

// Handlers exposes sign-in discovery and the administrative user API.
type Handlers struct {
	service ProvisioningService
}

func NewHandlers(service ProvisioningService) *Handlers {
	return &Handlers{service: service}
}

// RegisterPublicRoutes mounts the unauthenticated sign-in discovery.
func (h *Handlers) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/sign-in", h.SignIn)
}

// RegisterAdminRoutes mounts the user API under the given (already
// guarded) router group.
func (h *Handlers) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/users", h.List)
	router.Post("/users", h.Create)
}

// SignIn resolves where an email can log in. One accessible instance means
// an immediate redirect to its sign-in link, several mean the caller gets
// the list to choose from, none means the email is unknown here.
func (h *Handlers) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeInvalidRequest, err)
	}
	email := kernel.NewEmail(req.Email)
	if email.IsEmpty() {
		return ErrRegistry.NewWithMessage(CodeInvalidRequest, "email is required")
	}

	accesses, err := h.service.FindSignIn(c.Context(), email)
	if err != nil {
		return err
	}
	switch len(accesses) {
	case 0:
		return ErrRegistry.New(CodeNoSignIn).WithDetail("email", email.String())
	case 1:
		return c.Redirect(accesses[0].SignInURL, fiber.StatusFound)
	default:
		return c.JSON(accesses)
	}
}

func (h *Handlers) List(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeInvalidRequest, err)
	}
	email := kernel.NewEmail(req.Email)
	if email.IsEmpty() {
		return ErrRegistry.NewWithMessage(CodeInvalidRequest, "email is required")
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		return err
	}

	if err := h.service.CreateUser(c.Context(), email, kernel.NewClientID(req.ClientID), role, req.Notify); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusCreated)
}
