package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"butternut/internal/delivery/http/middleware"
	"butternut/internal/pkg/response"
	"butternut/internal/usecase"
	ucauth "butternut/internal/usecase/auth"
)

// genericLoginFailure is returned for both unknown usernames and wrong
// passwords so the endpoint cannot be used to enumerate accounts.
const genericLoginFailure = "Invalid username or password"

type AuthHandler struct {
	uc usecase.AuthUsecase
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type resetRequestRequest struct {
	Username string `json:"username"`
}

type resetCompleteRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func NewAuthHandler(uc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

func (h *AuthHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/password-reset/request", h.RequestPasswordReset)
	r.Post("/password-reset/complete", h.CompleteReset)
}

func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req credentialsRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	cl, access, refresh, err := h.uc.Register(c.Context(), req.Username, req.Password)
	if err != nil {
		return mapAuthError(err)
	}

	data := map[string]any{
		"username":      cl.Username,
		"access_token":  access,
		"refresh_token": refresh,
	}
	return response.Success(c, fiber.StatusCreated, "registered", data)
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req credentialsRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	cl, access, refresh, err := h.uc.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return mapAuthError(err)
	}

	data := map[string]any{
		"username":      cl.Username,
		"access_token":  access,
		"refresh_token": refresh,
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	tok, ok := middleware.BearerTokenFromHeader(c.Get("Authorization"))
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	access, refresh, err := h.uc.Refresh(c.Context(), tok)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrRefreshTokenExpired):
			return middleware.NewAppError(fiber.StatusUnauthorized, "Refresh token expired", nil, err)
		case errors.Is(err, usecase.ErrInvalidRefreshToken), errors.Is(err, usecase.ErrUnauthorized):
			return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
		default:
			return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
		}
	}

	data := map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

// RequestPasswordReset responds 202 whether or not the username exists.
func (h *AuthHandler) RequestPasswordReset(c fiber.Ctx) error {
	var req resetRequestRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.uc.RequestPasswordReset(c.Context(), req.Username); err != nil {
		return mapAuthError(err)
	}

	return response.Success(c, fiber.StatusAccepted, "If the account exists, a reset email has been sent", nil)
}

func (h *AuthHandler) CompleteReset(c fiber.Ctx) error {
	var req resetCompleteRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.uc.CompleteReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return mapAuthError(err)
	}

	return response.Success(c, fiber.StatusOK, "Password updated", nil)
}

func mapAuthError(err error) error {
	switch {
	case errors.Is(err, ucauth.ErrUsernameTaken):
		return middleware.NewAppError(fiber.StatusConflict, "Username already registered", nil, err)
	case errors.Is(err, ucauth.ErrUnknownUser), errors.Is(err, ucauth.ErrInvalidCredentials):
		return middleware.NewAppError(fiber.StatusUnauthorized, genericLoginFailure, nil, err)
	case errors.Is(err, ucauth.ErrInvalidResetToken):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid or expired reset token", nil, err)
	case errors.Is(err, ucauth.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, ucauth.ErrStoreUnavailable):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, "Service unavailable", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
