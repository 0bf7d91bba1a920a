package usecase

import (
	"context"
	"time"

	"butternut/internal/domain/client"
)

// Ports to the external SaaS collaborators. The usecases only know these
// contracts; concrete adapters live under internal/infrastructure and are
// injected at construction time.

// EmailSender delivers a single transactional email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Completer produces one personalized email body from the client's business
// context, a customer's attributes and the campaign prompt.
type Completer interface {
	Complete(ctx context.Context, businessContext string, customer client.CustomerRecord, prompt string) (string, error)
}

// CheckoutProvider creates a hosted payment session for the subscription
// product.
type CheckoutProvider interface {
	CreateSession(ctx context.Context) (CheckoutSession, error)
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Cache is a best-effort JSON cache; a miss and an unavailable cache look
// the same to callers.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
