package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"butternut/internal/delivery/http/middleware"
	"butternut/internal/domain/client"
	"butternut/internal/pkg/response"
	"butternut/internal/usecase"
)

type CampaignHandler struct {
	campaigns usecase.CampaignUsecase
}

type sendCampaignRequest struct {
	Subject string `json:"subject"`
	Prompt  string `json:"prompt"`
}

func NewCampaignHandler(campaigns usecase.CampaignUsecase) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

func (h *CampaignHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/send", h.Send)
}

func (h *CampaignHandler) Send(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req sendCampaignRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if req.Subject == "" || req.Prompt == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "Subject and prompt are required", nil, nil)
	}

	report, err := h.campaigns.Send(c.Context(), clientID, req.Subject, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNotSubscribed):
			return middleware.NewAppError(fiber.StatusPaymentRequired, "An active subscription is required", nil, err)
		case errors.Is(err, usecase.ErrSubscriptionExpired):
			return middleware.NewAppError(fiber.StatusPaymentRequired, "Subscription expired", nil, err)
		case errors.Is(err, usecase.ErrEmptyRoster):
			return middleware.NewAppError(fiber.StatusBadRequest, "No customers to send to", nil, err)
		case errors.Is(err, client.ErrNotFound):
			return middleware.NewAppError(fiber.StatusNotFound, "Account not found", nil, err)
		case errors.Is(err, client.ErrUnavailable):
			return middleware.NewAppError(fiber.StatusServiceUnavailable, "Service unavailable", nil, err)
		default:
			return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
		}
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, report)
}
