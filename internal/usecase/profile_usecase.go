package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"butternut/internal/domain/client"
)

var ErrNotFound = errors.New("not found")

type ProfileUsecase interface {
	Account(ctx context.Context, clientID uuid.UUID) (client.Client, error)
	UpdateProfile(ctx context.Context, clientID uuid.UUID, p client.Profile) error
	UpdateBusinessContext(ctx context.Context, clientID uuid.UUID, businessContext string) error
}

// Profile manages the account page fields and the business context used for
// campaign personalization.
type Profile struct {
	clients client.Repository
	cache   Cache
	logger  zerolog.Logger
}

func NewProfileUsecase(clients client.Repository, cache Cache, logger zerolog.Logger) *Profile {
	return &Profile{clients: clients, cache: cache, logger: logger}
}

// Account returns the client without its credential material.
func (u *Profile) Account(ctx context.Context, clientID uuid.UUID) (client.Client, error) {
	c, err := u.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return client.Client{}, ErrNotFound
		}
		return client.Client{}, err
	}

	c.PasswordHash = nil
	c.PasswordSalt = nil
	c.ResetToken = ""
	c.ResetTokenExpiresAt = nil
	return c, nil
}

func (u *Profile) UpdateProfile(ctx context.Context, clientID uuid.UUID, p client.Profile) error {
	return u.clients.UpdateProfile(ctx, clientID, p)
}

func (u *Profile) UpdateBusinessContext(ctx context.Context, clientID uuid.UUID, businessContext string) error {
	if err := u.clients.UpdateBusinessContext(ctx, clientID, businessContext); err != nil {
		return err
	}

	if u.cache != nil {
		if err := u.cache.Delete(ctx, businessContextKey(clientID)); err != nil {
			u.logger.Debug().Err(err).Msg("business context cache invalidation failed")
		}
	}
	return nil
}
