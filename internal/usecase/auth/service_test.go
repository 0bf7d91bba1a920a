package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"butternut/internal/domain/client"
	"butternut/internal/pkg/password"
)

type fakeClientRepo struct {
	byUsername map[string]*client.Client
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{byUsername: map[string]*client.Client{}}
}

func (f *fakeClientRepo) Create(_ context.Context, c client.Client) error {
	if _, ok := f.byUsername[c.Username]; ok {
		return client.ErrDuplicateUsername
	}
	f.byUsername[c.Username] = &c
	return nil
}

func (f *fakeClientRepo) GetByID(_ context.Context, id uuid.UUID) (client.Client, error) {
	for _, c := range f.byUsername {
		if c.ID == id {
			return *c, nil
		}
	}
	return client.Client{}, client.ErrNotFound
}

func (f *fakeClientRepo) GetByUsername(_ context.Context, username string) (client.Client, error) {
	if c, ok := f.byUsername[username]; ok {
		return *c, nil
	}
	return client.Client{}, client.ErrNotFound
}

func (f *fakeClientRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := f.byUsername[username]
	return ok, nil
}

func (f *fakeClientRepo) SetResetToken(_ context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	for _, c := range f.byUsername {
		if c.ID == id {
			c.ResetToken = token
			exp := expiresAt
			c.ResetTokenExpiresAt = &exp
			return nil
		}
	}
	return client.ErrNotFound
}

func (f *fakeClientRepo) GetByResetToken(_ context.Context, token string) (client.Client, error) {
	for _, c := range f.byUsername {
		if c.ResetToken != "" && c.ResetToken == token {
			return *c, nil
		}
	}
	return client.Client{}, client.ErrNotFound
}

func (f *fakeClientRepo) ConsumeResetToken(_ context.Context, token string, hash, salt []byte) error {
	for _, c := range f.byUsername {
		if c.ResetToken != "" && c.ResetToken == token {
			c.PasswordHash = hash
			c.PasswordSalt = salt
			c.ResetToken = ""
			c.ResetTokenExpiresAt = nil
			return nil
		}
	}
	return client.ErrNotFound
}

func (f *fakeClientRepo) UpdateProfile(context.Context, uuid.UUID, client.Profile) error { return nil }
func (f *fakeClientRepo) UpdateBusinessContext(context.Context, uuid.UUID, string) error { return nil }
func (f *fakeClientRepo) SetSubscriptionStart(context.Context, uuid.UUID, time.Time) error {
	return nil
}
func (f *fakeClientRepo) GetRoster(context.Context, uuid.UUID) ([]client.CustomerRecord, int64, error) {
	return nil, 0, nil
}
func (f *fakeClientRepo) ReplaceRoster(context.Context, uuid.UUID, []client.CustomerRecord, int64) error {
	return nil
}

func newTestService(repo client.Repository) *Service {
	return NewService(repo, password.NewHasher(password.Params{Time: 1, MemKiB: 8, Threads: 1}), 30*time.Minute)
}

func TestRegisterThenLogin(t *testing.T) {
	repo := newFakeClientRepo()
	svc := newTestService(repo)

	created, err := svc.Register(context.Background(), "User@Example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if created.Username != "user@example.com" {
		t.Fatalf("expected normalized username, got %q", created.Username)
	}
	if created.PasswordHash != nil || created.PasswordSalt != nil {
		t.Fatalf("credential material leaked out of Register")
	}

	got, err := svc.Login(context.Background(), "user@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Username != "user@example.com" {
		t.Fatalf("unexpected username %q", got.Username)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeClientRepo()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), "user@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.Login(context.Background(), "user@example.com", "not-the-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestService(newFakeClientRepo())

	if _, err := svc.Login(context.Background(), "nobody@example.com", "whatever-pass"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
}

func TestRegisterDuplicateKeepsFirstCredential(t *testing.T) {
	repo := newFakeClientRepo()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), "user@example.com", "first-password"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	stored := repo.byUsername["user@example.com"]
	origHash := append([]byte(nil), stored.PasswordHash...)

	if _, err := svc.Register(context.Background(), "user@example.com", "second-password"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if string(stored.PasswordHash) != string(origHash) {
		t.Fatalf("stored credential changed by failed registration")
	}
	if _, err := svc.Login(context.Background(), "user@example.com", "first-password"); err != nil {
		t.Fatalf("first credential no longer valid: %v", err)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc := newTestService(newFakeClientRepo())

	if _, err := svc.Register(context.Background(), "not-an-email", "hunter2hunter2"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad email, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "user@example.com", "short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	repo := newFakeClientRepo()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), "user@example.com", "old-password-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	token, err := svc.RequestPasswordReset(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	if err := svc.CompleteReset(context.Background(), token, "new-password-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, err := svc.Login(context.Background(), "user@example.com", "new-password-1"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if _, err := svc.Login(context.Background(), "user@example.com", "old-password-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still valid after reset")
	}
}

func TestCompleteResetReplayFails(t *testing.T) {
	repo := newFakeClientRepo()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), "user@example.com", "old-password-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	token, err := svc.RequestPasswordReset(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if err := svc.CompleteReset(context.Background(), token, "new-password-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.CompleteReset(context.Background(), token, "other-password-2"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken on replay, got %v", err)
	}
}

func TestCompleteResetExpiredToken(t *testing.T) {
	repo := newFakeClientRepo()
	svc := newTestService(repo)

	base := time.Now()
	svc.now = func() time.Time { return base }

	if _, err := svc.Register(context.Background(), "user@example.com", "old-password-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	token, err := svc.RequestPasswordReset(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	svc.now = func() time.Time { return base.Add(31 * time.Minute) }
	if err := svc.CompleteReset(context.Background(), token, "new-password-1"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken after expiry, got %v", err)
	}
}

func TestRequestPasswordResetOverwritesPrevious(t *testing.T) {
	repo := newFakeClientRepo()
	svc := newTestService(repo)

	if _, err := svc.Register(context.Background(), "user@example.com", "old-password-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	first, err := svc.RequestPasswordReset(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := svc.RequestPasswordReset(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh token per request")
	}

	if err := svc.CompleteReset(context.Background(), first, "new-password-1"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected overwritten token to be invalid, got %v", err)
	}
	if err := svc.CompleteReset(context.Background(), second, "new-password-1"); err != nil {
		t.Fatalf("unexpected err for active token: %v", err)
	}
}
