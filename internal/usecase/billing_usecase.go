package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"butternut/internal/domain/client"
)

var ErrPaymentProvider = errors.New("payment provider failed")

type BillingUsecase interface {
	CreateCheckoutSession(ctx context.Context) (CheckoutSession, error)
	ActivateSubscription(ctx context.Context, clientID uuid.UUID) error
}

// Billing creates checkout sessions and records the subscription start once
// payment succeeds. Subscription validity itself is always derived from the
// start timestamp, never stored as a flag.
type Billing struct {
	clients  client.Repository
	checkout CheckoutProvider

	now func() time.Time
}

func NewBillingUsecase(clients client.Repository, checkout CheckoutProvider) *Billing {
	return &Billing{clients: clients, checkout: checkout, now: time.Now}
}

func (u *Billing) CreateCheckoutSession(ctx context.Context) (CheckoutSession, error) {
	session, err := u.checkout.CreateSession(ctx)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: %w", ErrPaymentProvider, err)
	}
	return session, nil
}

func (u *Billing) ActivateSubscription(ctx context.Context, clientID uuid.UUID) error {
	return u.clients.SetSubscriptionStart(ctx, clientID, u.now().UTC())
}
