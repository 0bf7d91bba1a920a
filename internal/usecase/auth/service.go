package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"butternut/internal/domain/client"
	"butternut/internal/pkg/password"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUnknownUser        = errors.New("unknown user")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInternal           = errors.New("internal error")
)

const (
	minPasswordLen = 8
	resetTokenLen  = 32
)

// Service owns the credential lifecycle: registration, login verification
// and password reset. Plaintext passwords only ever live on the stack here;
// they are neither persisted nor logged.
type Service struct {
	clients  client.Repository
	hasher   *password.Hasher
	validate *validator.Validate
	resetTTL time.Duration

	now func() time.Time
}

func NewService(clients client.Repository, hasher *password.Hasher, resetTTL time.Duration) *Service {
	return &Service{
		clients:  clients,
		hasher:   hasher,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// Register creates an account keyed by the (email) username with a freshly
// salted hash of the password.
func (s *Service) Register(ctx context.Context, username, plaintext string) (client.Client, error) {
	username = client.NormalizeEmail(username)
	if err := s.validate.Var(username, "required,email"); err != nil {
		return client.Client{}, ErrInvalidInput
	}
	if len(plaintext) < minPasswordLen {
		return client.Client{}, ErrInvalidInput
	}

	exists, err := s.clients.ExistsByUsername(ctx, username)
	if err != nil {
		return client.Client{}, storeErr(err)
	}
	if exists {
		return client.Client{}, ErrUsernameTaken
	}

	hash, salt, err := s.hasher.Hash(plaintext)
	if err != nil {
		return client.Client{}, ErrInternal
	}

	c := client.Client{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
	}
	if err := s.clients.Create(ctx, c); err != nil {
		// The unique index is the authority; a concurrent registration can
		// slip past the exists check above.
		if errors.Is(err, client.ErrDuplicateUsername) {
			return client.Client{}, ErrUsernameTaken
		}
		return client.Client{}, storeErr(err)
	}

	return sanitize(c), nil
}

// Login verifies the password against the stored hash/salt pair and returns
// the account. ErrUnknownUser and ErrInvalidCredentials are distinguished
// here so callers can rate-limit differently, but the HTTP boundary must
// collapse them into one generic failure.
func (s *Service) Login(ctx context.Context, username, plaintext string) (client.Client, error) {
	username = client.NormalizeEmail(username)
	if username == "" || plaintext == "" {
		return client.Client{}, ErrInvalidCredentials
	}

	c, err := s.clients.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return client.Client{}, ErrUnknownUser
		}
		return client.Client{}, storeErr(err)
	}

	if !s.hasher.Verify(plaintext, c.PasswordHash, c.PasswordSalt) {
		return client.Client{}, ErrInvalidCredentials
	}

	return sanitize(c), nil
}

// RequestPasswordReset issues a fresh random URL-safe token with an explicit
// expiry and persists it as the account's single active reset token,
// overwriting any previous one. Delivery is the caller's job.
func (s *Service) RequestPasswordReset(ctx context.Context, username string) (string, error) {
	username = client.NormalizeEmail(username)

	c, err := s.clients.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return "", ErrUnknownUser
		}
		return "", storeErr(err)
	}

	buf := make([]byte, resetTokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", ErrInternal
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	expiresAt := s.now().UTC().Add(s.resetTTL)
	if err := s.clients.SetResetToken(ctx, c.ID, token, expiresAt); err != nil {
		return "", storeErr(err)
	}

	return token, nil
}

// CompleteReset re-hashes the new password with a fresh salt and consumes
// the token in one conditional write, so replaying a used token fails with
// ErrInvalidResetToken just like an unknown or expired one.
func (s *Service) CompleteReset(ctx context.Context, token, plaintext string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	if len(plaintext) < minPasswordLen {
		return ErrInvalidInput
	}

	c, err := s.clients.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return storeErr(err)
	}
	if c.ResetTokenExpiresAt == nil || s.now().UTC().After(*c.ResetTokenExpiresAt) {
		return ErrInvalidResetToken
	}

	hash, salt, err := s.hasher.Hash(plaintext)
	if err != nil {
		return ErrInternal
	}

	if err := s.clients.ConsumeResetToken(ctx, token, hash, salt); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return storeErr(err)
	}

	return nil
}

func storeErr(err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		return ErrStoreUnavailable
	}
	return ErrInternal
}

func sanitize(c client.Client) client.Client {
	c.PasswordHash = nil
	c.PasswordSalt = nil
	c.ResetToken = ""
	c.ResetTokenExpiresAt = nil
	return c
}
