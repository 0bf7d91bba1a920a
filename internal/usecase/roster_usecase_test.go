package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"butternut/internal/domain/client"
)

// rosterRepo keeps a single roster document and fails a configurable number
// of replaces with a version conflict, simulating a concurrent writer.
type rosterRepo struct {
	roster    []client.CustomerRecord
	version   int64
	conflicts int
	replaces  int
}

func (r *rosterRepo) GetRoster(context.Context, uuid.UUID) ([]client.CustomerRecord, int64, error) {
	return append([]client.CustomerRecord(nil), r.roster...), r.version, nil
}

func (r *rosterRepo) ReplaceRoster(_ context.Context, _ uuid.UUID, roster []client.CustomerRecord, expectedVersion int64) error {
	r.replaces++
	if r.conflicts > 0 {
		r.conflicts--
		r.version++
		return client.ErrVersionConflict
	}
	if expectedVersion != r.version {
		return client.ErrVersionConflict
	}
	r.roster = roster
	r.version++
	return nil
}

func (r *rosterRepo) Create(context.Context, client.Client) error { return nil }
func (r *rosterRepo) GetByID(context.Context, uuid.UUID) (client.Client, error) {
	return client.Client{}, client.ErrNotFound
}
func (r *rosterRepo) GetByUsername(context.Context, string) (client.Client, error) {
	return client.Client{}, client.ErrNotFound
}
func (r *rosterRepo) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }
func (r *rosterRepo) SetResetToken(context.Context, uuid.UUID, string, time.Time) error {
	return nil
}
func (r *rosterRepo) GetByResetToken(context.Context, string) (client.Client, error) {
	return client.Client{}, client.ErrNotFound
}
func (r *rosterRepo) ConsumeResetToken(context.Context, string, []byte, []byte) error { return nil }
func (r *rosterRepo) UpdateProfile(context.Context, uuid.UUID, client.Profile) error  { return nil }
func (r *rosterRepo) UpdateBusinessContext(context.Context, uuid.UUID, string) error  { return nil }
func (r *rosterRepo) SetSubscriptionStart(context.Context, uuid.UUID, time.Time) error {
	return nil
}

func custRec(email, city string) client.CustomerRecord {
	return client.CustomerRecord{Email: email, Attributes: map[string]string{"city": city}}
}

func TestApplyBatch(t *testing.T) {
	repo := &rosterRepo{roster: []client.CustomerRecord{custRec("a@x.com", "NY")}}
	uc := NewRosterUsecase(repo)

	outcome, err := uc.ApplyBatch(context.Background(), uuid.New(), []client.CustomerRecord{
		custRec("a@x.com", "LA"),
		custRec("b@x.com", "SF"),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if outcome.Inserted != 1 || outcome.Updated != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(repo.roster) != 2 {
		t.Fatalf("expected roster of 2, got %d", len(repo.roster))
	}
	if repo.roster[0].Attributes["city"] != "LA" {
		t.Fatalf("expected in-place update, got %+v", repo.roster[0])
	}
}

func TestApplyBatchUnchangedWritesNothing(t *testing.T) {
	repo := &rosterRepo{roster: []client.CustomerRecord{custRec("a@x.com", "NY")}}
	uc := NewRosterUsecase(repo)

	outcome, err := uc.ApplyBatch(context.Background(), uuid.New(), []client.CustomerRecord{custRec("a@x.com", "NY")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if outcome.Inserted != 0 || outcome.Updated != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if repo.replaces != 0 {
		t.Fatalf("expected no replace for an unchanged batch, got %d", repo.replaces)
	}
}

func TestApplyBatchRetriesOnVersionConflict(t *testing.T) {
	repo := &rosterRepo{conflicts: 2}
	uc := NewRosterUsecase(repo)

	outcome, err := uc.ApplyBatch(context.Background(), uuid.New(), []client.CustomerRecord{custRec("a@x.com", "NY")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if outcome.Inserted != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if repo.replaces != 3 {
		t.Fatalf("expected 3 replace attempts, got %d", repo.replaces)
	}
}

func TestApplyBatchGivesUpAfterBoundedAttempts(t *testing.T) {
	repo := &rosterRepo{conflicts: 10}
	uc := NewRosterUsecase(repo)

	_, err := uc.ApplyBatch(context.Background(), uuid.New(), []client.CustomerRecord{custRec("a@x.com", "NY")})
	if !errors.Is(err, ErrRosterBusy) {
		t.Fatalf("expected ErrRosterBusy, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	repo := &rosterRepo{roster: []client.CustomerRecord{
		custRec("a@x.com", "NY"),
		custRec("b@x.com", "SF"),
	}}
	uc := NewRosterUsecase(repo)

	removed, err := uc.Remove(context.Background(), uuid.New(), []string{"a@x.com"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if len(repo.roster) != 1 || repo.roster[0].Email != "b@x.com" {
		t.Fatalf("unexpected roster: %+v", repo.roster)
	}
}
