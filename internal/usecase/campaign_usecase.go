package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"butternut/internal/domain/client"
)

var (
	ErrNotSubscribed       = errors.New("no active subscription")
	ErrSubscriptionExpired = errors.New("subscription expired")
	ErrEmptyRoster         = errors.New("roster is empty")
	ErrCompletionProvider  = errors.New("completion provider failed")
)

// RecipientFailure records one customer the campaign could not reach.
// Failures never abort the rest of the campaign.
type RecipientFailure struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type SendReport struct {
	Requested int                `json:"requested"`
	Sent      int                `json:"sent"`
	Failed    []RecipientFailure `json:"failed,omitempty"`
}

type CampaignUsecase interface {
	Send(ctx context.Context, clientID uuid.UUID, subject, prompt string) (SendReport, error)
}

// Campaign generates one personalized email per roster customer and hands
// each to the email collaborator. Sending is gated on an active
// subscription, derived from the subscription start timestamp rather than
// any persisted flag.
type Campaign struct {
	clients   client.Repository
	completer Completer
	email     EmailSender
	cache     Cache
	cacheTTL  time.Duration
	logger    zerolog.Logger

	now func() time.Time
}

func NewCampaignUsecase(clients client.Repository, completer Completer, email EmailSender, cache Cache, cacheTTL time.Duration, logger zerolog.Logger) *Campaign {
	return &Campaign{
		clients:   clients,
		completer: completer,
		email:     email,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (u *Campaign) Send(ctx context.Context, clientID uuid.UUID, subject, prompt string) (SendReport, error) {
	c, err := u.clients.GetByID(ctx, clientID)
	if err != nil {
		return SendReport{}, err
	}

	if c.SubscriptionStart == nil {
		return SendReport{}, ErrNotSubscribed
	}
	if !c.SubscriptionActive(u.now()) {
		return SendReport{}, ErrSubscriptionExpired
	}
	if len(c.Roster) == 0 {
		return SendReport{}, ErrEmptyRoster
	}

	businessContext := u.businessContext(ctx, c)

	report := SendReport{Requested: len(c.Roster)}
	for _, customer := range c.Roster {
		body, err := u.completer.Complete(ctx, businessContext, customer, prompt)
		if err != nil {
			u.logger.Warn().Err(err).Str("recipient", customer.Email).Msg("email generation failed")
			report.Failed = append(report.Failed, RecipientFailure{
				Email:  customer.Email,
				Reason: fmt.Errorf("%w: %w", ErrCompletionProvider, err).Error(),
			})
			continue
		}

		if err := u.email.Send(ctx, customer.Email, subject, body); err != nil {
			u.logger.Warn().Err(err).Str("recipient", customer.Email).Msg("email delivery failed")
			report.Failed = append(report.Failed, RecipientFailure{
				Email:  customer.Email,
				Reason: fmt.Errorf("%w: %w", ErrEmailDelivery, err).Error(),
			})
			continue
		}
		report.Sent++
	}

	u.logger.Info().
		Str("client", c.Username).
		Int("requested", report.Requested).
		Int("sent", report.Sent).
		Int("failed", len(report.Failed)).
		Msg("campaign finished")

	return report, nil
}

// businessContext serves the client's business context, preferring the
// cache. Cache trouble degrades to the value already loaded with the
// account.
func (u *Campaign) businessContext(ctx context.Context, c client.Client) string {
	if u.cache == nil {
		return c.BusinessContext
	}

	key := businessContextKey(c.ID)
	var cached string
	if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached
	}

	if err := u.cache.SetJSON(ctx, key, c.BusinessContext, u.cacheTTL); err != nil {
		u.logger.Debug().Err(err).Msg("business context cache write failed")
	}
	return c.BusinessContext
}

func businessContextKey(id uuid.UUID) string {
	return "business-context:" + id.String()
}
