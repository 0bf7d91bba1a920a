package client

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("client not found")
	ErrDuplicateUsername = errors.New("username already registered")
	ErrVersionConflict   = errors.New("roster version conflict")
	ErrUnavailable       = errors.New("client store unavailable")
)

type Repository interface {
	Create(ctx context.Context, c Client) error
	GetByID(ctx context.Context, id uuid.UUID) (Client, error)
	GetByUsername(ctx context.Context, username string) (Client, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// SetResetToken replaces any previously outstanding reset token; at most
	// one is active per account.
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	GetByResetToken(ctx context.Context, token string) (Client, error)
	// ConsumeResetToken installs the new credential and invalidates the token
	// in one conditional write. It fails with ErrNotFound when the token is no
	// longer the account's active one, which makes replays fail.
	ConsumeResetToken(ctx context.Context, token string, hash, salt []byte) error

	UpdateProfile(ctx context.Context, id uuid.UUID, p Profile) error
	UpdateBusinessContext(ctx context.Context, id uuid.UUID, businessContext string) error
	SetSubscriptionStart(ctx context.Context, id uuid.UUID, start time.Time) error

	GetRoster(ctx context.Context, id uuid.UUID) ([]CustomerRecord, int64, error)
	// ReplaceRoster swaps the whole roster document iff the stored version
	// still equals expectedVersion, failing with ErrVersionConflict otherwise.
	ReplaceRoster(ctx context.Context, id uuid.UUID, roster []CustomerRecord, expectedVersion int64) error
}
