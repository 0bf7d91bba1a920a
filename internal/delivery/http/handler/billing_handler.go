package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"butternut/internal/delivery/http/middleware"
	"butternut/internal/domain/client"
	"butternut/internal/pkg/response"
	"butternut/internal/usecase"
)

type BillingHandler struct {
	billing usecase.BillingUsecase
}

func NewBillingHandler(billing usecase.BillingUsecase) *BillingHandler {
	return &BillingHandler{billing: billing}
}

func (h *BillingHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/checkout-session", h.CreateCheckoutSession)
	r.Get("/success", h.Success)
}

func (h *BillingHandler) CreateCheckoutSession(c fiber.Ctx) error {
	if _, ok := middleware.ClientIDFromCtx(c); !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	session, err := h.billing.CreateCheckoutSession(c.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrPaymentProvider) {
			return middleware.NewAppError(fiber.StatusBadGateway, "Payment provider unavailable", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	return response.Success(c, fiber.StatusCreated, response.MessageOK, map[string]any{
		"session_id":   session.ID,
		"checkout_url": session.URL,
	})
}

// Success is the checkout return endpoint. It marks the subscription as
// started now; validity is derived from that timestamp on every send.
func (h *BillingHandler) Success(c fiber.Ctx) error {
	clientID, ok := middleware.ClientIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	if err := h.billing.ActivateSubscription(c.Context(), clientID); err != nil {
		switch {
		case errors.Is(err, client.ErrNotFound):
			return middleware.NewAppError(fiber.StatusNotFound, "Account not found", nil, err)
		case errors.Is(err, client.ErrUnavailable):
			return middleware.NewAppError(fiber.StatusServiceUnavailable, "Service unavailable", nil, err)
		default:
			return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
		}
	}

	return response.Success(c, fiber.StatusOK, "Subscription activated", nil)
}
