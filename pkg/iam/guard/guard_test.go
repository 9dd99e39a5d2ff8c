package guard_test

import (
	"net/http/httptest"
	"testing"

	"github.com/chriswk/auth-app/pkg/errx"
	"github.com/chriswk/auth-app/pkg/iam/guard"
	"github.com/gofiber/fiber/v2"
)

func guardedApp(secret string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := errx.As(err); ok {
				return c.Status(e.HTTPStatus).JSON(e)
			}
			return c.SendStatus(fiber.StatusInternalServerError)
		},
	})
	app.Get("/guarded", guard.SharedSecret(secret), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestSharedSecret(t *testing.T) {
	app := guardedApp("s3cret")

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid secret", "s3cret", fiber.StatusOK},
		{"wrong secret", "wrong", fiber.StatusUnauthorized},
		{"missing header", "", fiber.StatusUnauthorized},
		{"prefix of secret", "s3c", fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/guarded", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if resp.StatusCode != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, resp.StatusCode)
		}
	}
}
