package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"butternut/internal/config"
	"butternut/internal/usecase"
)

// subscriptionPriceCents is the one-off price of the subscription product.
const subscriptionPriceCents = 100

// StripeCheckout creates hosted checkout sessions for the subscription
// product. The API client is constructed here and injected, never a package
// global.
type StripeCheckout struct {
	api        *client.API
	successURL string
	cancelURL  string
}

func NewStripeCheckout(cfg config.BillingConfig) *StripeCheckout {
	api := &client.API{}
	api.Init(cfg.APIKey, nil)
	return &StripeCheckout{api: api, successURL: cfg.SuccessURL, cancelURL: cfg.CancelURL}
}

func (s *StripeCheckout) CreateSession(ctx context.Context) (usecase.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("subscription"),
					},
					UnitAmount: stripe.Int64(subscriptionPriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return usecase.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}

	return usecase.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}
