package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"butternut/internal/domain/client"
)

type campaignRepo struct {
	rosterRepo
	client client.Client
}

func (r *campaignRepo) GetByID(context.Context, uuid.UUID) (client.Client, error) {
	return r.client, nil
}

type fakeCompleter struct {
	failFor map[string]bool
}

func (f fakeCompleter) Complete(_ context.Context, businessContext string, customer client.CustomerRecord, prompt string) (string, error) {
	if f.failFor[customer.Email] {
		return "", errors.New("model unavailable")
	}
	return "Dear " + customer.Email + ": " + businessContext + " / " + prompt, nil
}

type fakeSender struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	if f.failFor[to] {
		return errors.New("bounced")
	}
	f.sent = append(f.sent, to)
	return nil
}

func subscribedClient(roster ...client.CustomerRecord) client.Client {
	start := time.Now().Add(-24 * time.Hour)
	return client.Client{
		ID:                uuid.New(),
		Username:          "owner@example.com",
		SubscriptionStart: &start,
		BusinessContext:   "We sell squash.",
		Roster:            roster,
	}
}

func newCampaign(repo client.Repository, completer Completer, sender EmailSender) *Campaign {
	return NewCampaignUsecase(repo, completer, sender, nil, time.Minute, zerolog.Nop())
}

func TestCampaignSend(t *testing.T) {
	repo := &campaignRepo{client: subscribedClient(
		custRec("a@x.com", "NY"),
		custRec("b@x.com", "SF"),
	)}
	sender := &fakeSender{}
	uc := newCampaign(repo, fakeCompleter{}, sender)

	report, err := uc.Send(context.Background(), repo.client.ID, "Hello", "introduce us")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if report.Requested != 2 || report.Sent != 2 || len(report.Failed) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(sender.sent))
	}
}

func TestCampaignSendNotSubscribed(t *testing.T) {
	c := subscribedClient(custRec("a@x.com", "NY"))
	c.SubscriptionStart = nil
	repo := &campaignRepo{client: c}
	uc := newCampaign(repo, fakeCompleter{}, &fakeSender{})

	if _, err := uc.Send(context.Background(), c.ID, "Hello", "p"); !errors.Is(err, ErrNotSubscribed) {
		t.Fatalf("expected ErrNotSubscribed, got %v", err)
	}
}

func TestCampaignSendExpiredSubscription(t *testing.T) {
	c := subscribedClient(custRec("a@x.com", "NY"))
	old := time.Now().Add(-31 * 24 * time.Hour)
	c.SubscriptionStart = &old
	repo := &campaignRepo{client: c}
	uc := newCampaign(repo, fakeCompleter{}, &fakeSender{})

	if _, err := uc.Send(context.Background(), c.ID, "Hello", "p"); !errors.Is(err, ErrSubscriptionExpired) {
		t.Fatalf("expected ErrSubscriptionExpired, got %v", err)
	}
}

func TestCampaignSendPartialFailure(t *testing.T) {
	repo := &campaignRepo{client: subscribedClient(
		custRec("a@x.com", "NY"),
		custRec("b@x.com", "SF"),
		custRec("c@x.com", "LA"),
	)}
	sender := &fakeSender{failFor: map[string]bool{"b@x.com": true}}
	completer := fakeCompleter{failFor: map[string]bool{"c@x.com": true}}
	uc := newCampaign(repo, completer, sender)

	report, err := uc.Send(context.Background(), repo.client.ID, "Hello", "p")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if report.Sent != 1 {
		t.Fatalf("expected 1 sent, got %d", report.Sent)
	}
	if len(report.Failed) != 2 {
		t.Fatalf("expected 2 failures, got %+v", report.Failed)
	}
	for _, f := range report.Failed {
		if f.Email == "b@x.com" && !strings.Contains(f.Reason, ErrEmailDelivery.Error()) {
			t.Fatalf("expected delivery failure reason, got %q", f.Reason)
		}
		if f.Email == "c@x.com" && !strings.Contains(f.Reason, ErrCompletionProvider.Error()) {
			t.Fatalf("expected completion failure reason, got %q", f.Reason)
		}
	}
}

func TestCampaignSendEmptyRoster(t *testing.T) {
	repo := &campaignRepo{client: subscribedClient()}
	uc := newCampaign(repo, fakeCompleter{}, &fakeSender{})

	if _, err := uc.Send(context.Background(), repo.client.ID, "Hello", "p"); !errors.Is(err, ErrEmptyRoster) {
		t.Fatalf("expected ErrEmptyRoster, got %v", err)
	}
}
