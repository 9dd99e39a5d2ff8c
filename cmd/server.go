package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chriswk/auth-app/pkg/config"
	"github.com/chriswk/auth-app/pkg/errx"
	"github.com/chriswk/auth-app/pkg/iam/guard"
	"github.com/chriswk/auth-app/pkg/logx"
	"github.com/chriswk/auth-app/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}

	logx.Infof("Starting auth-app (%s mode)", cfg.RunMode)

	container := NewContainer(cfg)
	defer container.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.StartBackgroundServices(ctx)

	app := fiber.New(fiber.Config{
		AppName:               "auth-app",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: uuid.NewString,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  getCORSOrigins(),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Get("/healthz", healthCheckHandler(container))
	app.Get("/internal-backstage/version", versionHandler)

	container.AuthHandlers.RegisterRoutes(app, container.SessionMiddleware)
	container.UserHandlers.RegisterPublicRoutes(app)

	// Machine-to-machine surface, admitted by the shared secret only.
	api := app.Group("/api", guard.SharedSecret(cfg.SharedSecret))
	container.InstanceHandlers.RegisterRoutes(api)
	container.UserHandlers.RegisterAdminRoutes(api.Group("/admin"))

	app.Use(notFoundHandler)

	startServer(app, cfg.Port)
}

func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := container.DB.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"db":     err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "healthy"})
	}
}

func versionHandler(c *fiber.Ctx) error {
	return c.JSON(version.Get())
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"request_id": c.GetRespHeader("X-Request-ID"),
	})
}

// globalErrorHandler converts coded errors to their HTTP responses. A
// failure that is neither a fiber error nor a coded error surfaces as an
// opaque 500; internals never leak to the client.
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.GetRespHeader("X-Request-ID"),
	}).Errorf("Request error: %v", err)

	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
			"code":  "HTTP_ERROR",
		})
	}

	if e, ok := errx.As(err); ok {
		response := fiber.Map{
			"error": e.Message,
			"code":  e.Code,
			"type":  e.Type.String(),
		}
		if len(e.Details) > 0 {
			response["details"] = e.Details
		}
		return c.Status(e.HTTPStatus).JSON(response)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal Server Error",
		"code":  "INTERNAL",
	})
}

func getCORSOrigins() string {
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		return origins
	}
	return "*"
}

func startServer(app *fiber.App, port int) {
	go func() {
		logx.Infof("Server listening on port %d", port)
		if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logx.Infof("Received signal %v, shutting down", sig)

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}
}
