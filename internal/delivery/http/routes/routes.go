package routes

import (
	"github.com/gofiber/fiber/v3"

	"butternut/internal/delivery/http/handler"
	"butternut/internal/delivery/http/middleware"
	"butternut/internal/pkg/jwt"
	"butternut/internal/usecase"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	AppName string
	JWT     jwt.Service

	Auth      usecase.AuthUsecase
	Roster    usecase.RosterUsecase
	Uploads   usecase.UploadUsecase
	Profile   usecase.ProfileUsecase
	Campaigns usecase.CampaignUsecase
	Billing   usecase.BillingUsecase
}

type Registry struct {
	health    *handler.HealthHandler
	auth      *handler.AuthHandler
	roster    *handler.RosterHandler
	uploads   *handler.UploadHandler
	profile   *handler.ProfileHandler
	campaigns *handler.CampaignHandler
	billing   *handler.BillingHandler

	authMw *middleware.AuthMiddleware
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		health:    handler.NewHealthHandler(deps.AppName),
		auth:      handler.NewAuthHandler(deps.Auth),
		roster:    handler.NewRosterHandler(deps.Roster, deps.Uploads),
		uploads:   handler.NewUploadHandler(deps.Uploads),
		profile:   handler.NewProfileHandler(deps.Profile),
		campaigns: handler.NewCampaignHandler(deps.Campaigns),
		billing:   handler.NewBillingHandler(deps.Billing),
		authMw:    middleware.NewAuthMiddleware(deps.JWT),
	}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.health.RegisterRoutes(app)

	api := app.Group("/api")
	r.registerV1(api.Group("/v1"))
}

func (r *Registry) registerV1(v1 fiber.Router) {
	r.auth.RegisterRoutes(v1.Group("/auth"))

	protected := v1.Group("", r.authMw.Middleware())
	r.profile.RegisterRoutes(protected.Group("/profile"))
	r.roster.RegisterRoutes(protected.Group("/customers"))
	r.uploads.RegisterRoutes(protected.Group("/uploads"))
	r.campaigns.RegisterRoutes(protected.Group("/campaigns"))
	r.billing.RegisterRoutes(protected.Group("/billing"))
}
