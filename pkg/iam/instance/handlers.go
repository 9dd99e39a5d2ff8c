package instance

import (
	"context"

	"github.com/chriswk/auth-app/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// LifecycleService is the slice of the instance service the HTTP surface
// needs.
type LifecycleService interface {
	Create(ctx context.Context, req CreateRequest) (*Instance, error)
	List(ctx context.Context) ([]Instance, error)
	Status(ctx context.Context, clientID kernel.ClientID) (*InstanceStatus, error)
	Assign(ctx context.Context, clientID kernel.ClientID, displayName, emailDomain string) (*InstanceStatus, error)
	ExtendTrial(ctx context.Context, clientID kernel.ClientID) (*InstanceStatus, error)
	SetState(ctx context.Context, clientID kernel.ClientID, raw string) error
}

// CreateRequest is the administrative create payload.
type CreateRequest struct {
	ClientID      string `json:"client_id"`
	DisplayName   string `json:"display_name"`
	EmailDomain   string `json:"email_domain"`
	Plan          string `json:"plan"`
	Region        string `json:"region"`
	Seats         int    `json:"seats"`
	BillingCenter string `json:"billing_center"`
}

type assignRequest struct {
	DisplayName string `json:"display_name"`
	EmailDomain string `json:"email_domain"`
}

type stateRequest struct {
	State string `json:"instance_state"`
}

// Handlers is the machine-to-machine instance API. Every route sits behind
// the shared-secret guard installed by the composition root.
type Handlers struct {
	service LifecycleService
}

func NewHandlers(service LifecycleService) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the instance API under the given (already guarded)
// router group.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	router.Post("/instances", h.Create)
	router.Get("/instances", h.List)
	router.Get("/instances/:clientId/status", h.Status)
	router.Post("/instances/:clientId/assign", h.Assign)
	router.Post("/instances/:clientId/extend", h.Extend)
	router.Put("/instances/:clientId/state", h.SetState)
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeInvalidRequest, err)
	}
	created, err := h.service.Create(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handlers) List(c *fiber.Ctx) error {
	instances, err := h.service.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(instances)
}

func (h *Handlers) Status(c *fiber.Ctx) error {
	status, err := h.service.Status(c.Context(), kernel.NewClientID(c.Params("clientId")))
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *Handlers) Assign(c *fiber.Ctx) error {
	var req assignRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeInvalidRequest, err)
	}
	status, err := h.service.Assign(c.Context(), kernel.NewClientID(c.Params("clientId")), req.DisplayName, req.EmailDomain)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *Handlers) Extend(c *fiber.Ctx) error {
	status, err := h.service.ExtendTrial(c.Context(), kernel.NewClientID(c.Params("clientId")))
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *Handlers) SetState(c *fiber.Ctx) error {
	var req stateRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeInvalidRequest, err)
	}
	if err := h.service.SetState(c.Context(), kernel.NewClientID(c.Params("clientId")), req.State); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
