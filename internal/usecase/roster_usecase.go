package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"butternut/internal/domain/client"
)

// ErrRosterBusy is returned when concurrent uploads kept invalidating the
// roster version for every attempt.
var ErrRosterBusy = errors.New("roster modified concurrently, retry")

// replaceAttempts bounds the reconcile/replace retry loop under concurrent
// writers.
const replaceAttempts = 3

// BatchOutcome summarizes one reconciliation pass for the caller.
type BatchOutcome struct {
	Inserted   int
	Updated    int
	Rejected   []client.RejectedRecord
	RosterSize int
}

type RosterUsecase interface {
	List(ctx context.Context, clientID uuid.UUID) ([]client.CustomerRecord, error)
	ApplyBatch(ctx context.Context, clientID uuid.UUID, batch []client.CustomerRecord) (BatchOutcome, error)
	Remove(ctx context.Context, clientID uuid.UUID, emails []string) (int, error)
}

// Roster applies uploaded batches to a client's customer roster. Writes go
// through a version-checked replace of the whole roster document, so two
// concurrent reconciliations cannot silently lose each other's records; the
// loser observes the new version and reconciles again.
type Roster struct {
	clients client.Repository
}

func NewRosterUsecase(clients client.Repository) *Roster {
	return &Roster{clients: clients}
}

func (u *Roster) List(ctx context.Context, clientID uuid.UUID) ([]client.CustomerRecord, error) {
	roster, _, err := u.clients.GetRoster(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return roster, nil
}

func (u *Roster) ApplyBatch(ctx context.Context, clientID uuid.UUID, batch []client.CustomerRecord) (BatchOutcome, error) {
	for attempt := 0; attempt < replaceAttempts; attempt++ {
		roster, version, err := u.clients.GetRoster(ctx, clientID)
		if err != nil {
			return BatchOutcome{}, err
		}

		res := client.Reconcile(roster, batch)
		outcome := BatchOutcome{
			Inserted:   len(res.ToInsert),
			Updated:    len(res.ToUpdate),
			Rejected:   res.Rejected,
			RosterSize: len(roster) + len(res.ToInsert),
		}
		if res.Empty() {
			outcome.RosterSize = len(roster)
			return outcome, nil
		}

		merged := client.ApplyReconciliation(roster, res)
		err = u.clients.ReplaceRoster(ctx, clientID, merged, version)
		if errors.Is(err, client.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return BatchOutcome{}, err
		}
		return outcome, nil
	}

	return BatchOutcome{}, ErrRosterBusy
}

func (u *Roster) Remove(ctx context.Context, clientID uuid.UUID, emails []string) (int, error) {
	for attempt := 0; attempt < replaceAttempts; attempt++ {
		roster, version, err := u.clients.GetRoster(ctx, clientID)
		if err != nil {
			return 0, err
		}

		kept, removed := client.RemoveByEmail(roster, emails)
		if removed == 0 {
			return 0, nil
		}

		err = u.clients.ReplaceRoster(ctx, clientID, kept, version)
		if errors.Is(err, client.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return removed, nil
	}

	return 0, ErrRosterBusy
}
