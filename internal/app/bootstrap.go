package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"

	"butternut/internal/config"
	"butternut/internal/delivery/http/middleware"
	"butternut/internal/delivery/http/routes"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// Bootstrap builds the container and the fully routed Fiber app. The
// returned cleanup releases the container's connections.
func Bootstrap(ctx context.Context, cfg config.Config) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	f := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})

	f.Use(middleware.NewErrorMiddleware(c.Logger).Middleware())
	f.Use(middleware.NewAccessLogMiddleware(c.Logger).Middleware())

	registry := routes.NewRegistry(routes.Deps{
		AppName:   cfg.App.Name,
		JWT:       c.JWT,
		Auth:      c.Auth,
		Roster:    c.Roster,
		Uploads:   c.Uploads,
		Profile:   c.Profile,
		Campaigns: c.Campaigns,
		Billing:   c.Billing,
	})
	registry.Register(f)

	app := &App{Fiber: f, Container: c}
	return app, c.Close, nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
