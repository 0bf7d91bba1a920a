package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"butternut/internal/domain/client"
	"butternut/internal/pkg/jwt"
	ucauth "butternut/internal/usecase/auth"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrEmailDelivery       = errors.New("email delivery failed")
	ErrInternal            = errors.New("internal error")
)

type AuthUsecase interface {
	Register(ctx context.Context, username, password string) (client.Client, string, string, error)
	Login(ctx context.Context, username, password string) (client.Client, string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	RequestPasswordReset(ctx context.Context, username string) error
	CompleteReset(ctx context.Context, token, newPassword string) error
}

// Auth wraps the credential service with session-token issuance and
// reset-token delivery.
type Auth struct {
	authSvc *ucauth.Service
	clients client.Repository
	jwt     jwt.Service
	email   EmailSender
	logger  zerolog.Logger
}

func NewAuthUsecase(authSvc *ucauth.Service, clients client.Repository, jwtSvc jwt.Service, email EmailSender, logger zerolog.Logger) *Auth {
	return &Auth{authSvc: authSvc, clients: clients, jwt: jwtSvc, email: email, logger: logger}
}

func (u *Auth) Register(ctx context.Context, username, password string) (client.Client, string, string, error) {
	c, err := u.authSvc.Register(ctx, username, password)
	if err != nil {
		return client.Client{}, "", "", err
	}
	return u.withTokens(c)
}

func (u *Auth) Login(ctx context.Context, username, password string) (client.Client, string, string, error) {
	c, err := u.authSvc.Login(ctx, username, password)
	if err != nil {
		return client.Client{}, "", "", err
	}
	return u.withTokens(c)
}

func (u *Auth) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", ErrUnauthorized
	}

	claims, err := u.jwt.ValidateToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrRefreshTokenExpired
		}
		return "", "", ErrInvalidRefreshToken
	}
	if !u.jwt.IsRefreshToken(claims) {
		return "", "", ErrInvalidRefreshToken
	}

	c, err := u.clients.GetByID(ctx, claims.ClientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return "", "", ErrInvalidRefreshToken
		}
		return "", "", ErrInternal
	}

	access, err := u.jwt.GenerateAccessToken(c.ID, c.Username)
	if err != nil {
		return "", "", ErrInternal
	}
	refresh, err := u.jwt.GenerateRefreshToken(c.ID)
	if err != nil {
		return "", "", ErrInternal
	}
	return access, refresh, nil
}

// RequestPasswordReset issues and delivers a reset token. An unknown
// username is deliberately indistinguishable from success so the endpoint
// cannot be used to enumerate accounts.
func (u *Auth) RequestPasswordReset(ctx context.Context, username string) error {
	token, err := u.authSvc.RequestPasswordReset(ctx, username)
	if err != nil {
		if errors.Is(err, ucauth.ErrUnknownUser) {
			u.logger.Debug().Msg("password reset requested for unknown username")
			return nil
		}
		return err
	}

	subject := "Reset your Butternut password"
	body := fmt.Sprintf("A password reset was requested for your account.\n\nYour reset token: %s\n\nIf you did not request this, ignore this message.", token)
	if err := u.email.Send(ctx, client.NormalizeEmail(username), subject, body); err != nil {
		u.logger.Error().Err(err).Msg("failed to deliver password reset email")
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	return nil
}

func (u *Auth) CompleteReset(ctx context.Context, token, newPassword string) error {
	return u.authSvc.CompleteReset(ctx, token, newPassword)
}

func (u *Auth) withTokens(c client.Client) (client.Client, string, string, error) {
	access, err := u.jwt.GenerateAccessToken(c.ID, c.Username)
	if err != nil {
		return client.Client{}, "", "", ErrInternal
	}
	refresh, err := u.jwt.GenerateRefreshToken(c.ID)
	if err != nil {
		return client.Client{}, "", "", ErrInternal
	}
	return c, access, refresh, nil
}
