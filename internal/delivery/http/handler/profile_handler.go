package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"butternut/internal/delivery/http/middleware"
	"butternut/internal/domain/client"
	"butternut/internal/pkg/response"
	"butternut/internal/usecase"
)

type ProfileHandler struct {
	profile usecase.ProfileUsecase
}

type businessContextRequest struct {
	BusinessContext string `json:"business_context"`
}

type accountResponse struct {
	Username           string          `json:"username"`
	Profile            *client.Profile `json:"profile"`
	BusinessContext    string          `json:"business_context"`
	SubscriptionStart  *time.Time      `json:"subscription_start"`
	SubscriptionActive bool            `json:"subscription_active"`
	RosterSize         int             `json:"roster_size"`
	CreatedAt          time.Time       `json:"created_at"`
}

func NewProfileHandler(profile usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{profile: profile}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/", h.Account)
	r.Put("/", h.UpdateProfile)
	r.Put("/business-context", h.UpdateBusinessContext)
}

func (h *ProfileHandler) Account(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	acc, err := h.profile.Account(c.Context(), clientID)
	if err != nil {
		return mapProfileError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, accountResponse{
		Username:           acc.Username,
		Profile:            acc.Profile,
		BusinessContext:    acc.BusinessContext,
		SubscriptionStart:  acc.SubscriptionStart,
		SubscriptionActive: acc.SubscriptionActive(time.Now()),
		RosterSize:         len(acc.Roster),
		CreatedAt:          acc.CreatedAt,
	})
}

func (h *ProfileHandler) UpdateProfile(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var p client.Profile
	if err := c.Bind().Body(&p); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.profile.UpdateProfile(c.Context(), clientID, p); err != nil {
		return mapProfileError(err)
	}

	return response.Success(c, fiber.StatusOK, "Profile updated", nil)
}

func (h *ProfileHandler) UpdateBusinessContext(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req businessContextRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.profile.UpdateBusinessContext(c.Context(), clientID, req.BusinessContext); err != nil {
		return mapProfileError(err)
	}

	return response.Success(c, fiber.StatusOK, "Business context updated", nil)
}

func mapProfileError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrNotFound), errors.Is(err, client.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Account not found", nil, err)
	case errors.Is(err, client.ErrUnavailable):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Service unavailable", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
