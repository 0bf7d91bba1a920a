package usecase

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"butternut/internal/domain/client"
	"butternut/internal/domain/upload"
	"butternut/internal/ingest"
)

var ErrUploadNotFound = errors.New("upload not found")

// IngestResult pairs the stored upload record with the reconciliation
// outcome of applying its rows.
type IngestResult struct {
	Upload  upload.Upload
	Outcome BatchOutcome
}

type UploadUsecase interface {
	Ingest(ctx context.Context, clientID uuid.UUID, fileName string, file io.Reader) (IngestResult, error)
	List(ctx context.Context, clientID uuid.UUID) ([]upload.Upload, error)
	Rows(ctx context.Context, id, clientID uuid.UUID) ([]client.CustomerRecord, error)
	Reapply(ctx context.Context, id, clientID uuid.UUID) (BatchOutcome, error)
	Delete(ctx context.Context, id, clientID uuid.UUID) error
}

// Upload persists each uploaded customer file and feeds its rows through
// roster reconciliation, immediately on ingest or again later on demand.
type Upload struct {
	uploads upload.Repository
	roster  RosterUsecase

	now func() time.Time
}

func NewUploadUsecase(uploads upload.Repository, roster RosterUsecase) *Upload {
	return &Upload{uploads: uploads, roster: roster, now: time.Now}
}

func (u *Upload) Ingest(ctx context.Context, clientID uuid.UUID, fileName string, file io.Reader) (IngestResult, error) {
	batch, err := ingest.ParseCustomerCSV(file)
	if err != nil {
		return IngestResult{}, err
	}

	rec := upload.Upload{
		ID:         uuid.New(),
		ClientID:   clientID,
		FileName:   fileName,
		RowCount:   len(batch),
		UploadedAt: u.now().UTC(),
	}
	if err := u.uploads.Create(ctx, rec, batch); err != nil {
		return IngestResult{}, err
	}

	outcome, err := u.roster.ApplyBatch(ctx, clientID, batch)
	if err != nil {
		return IngestResult{}, err
	}

	return IngestResult{Upload: rec, Outcome: outcome}, nil
}

func (u *Upload) List(ctx context.Context, clientID uuid.UUID) ([]upload.Upload, error) {
	return u.uploads.ListByClient(ctx, clientID)
}

func (u *Upload) Rows(ctx context.Context, id, clientID uuid.UUID) ([]client.CustomerRecord, error) {
	rows, err := u.uploads.GetRows(ctx, id, clientID)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return rows, nil
}

// Reapply runs a previously stored upload through reconciliation again,
// which is a no-op unless the roster changed since.
func (u *Upload) Reapply(ctx context.Context, id, clientID uuid.UUID) (BatchOutcome, error) {
	rows, err := u.uploads.GetRows(ctx, id, clientID)
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			return BatchOutcome{}, ErrUploadNotFound
		}
		return BatchOutcome{}, err
	}
	return u.roster.ApplyBatch(ctx, clientID, rows)
}

func (u *Upload) Delete(ctx context.Context, id, clientID uuid.UUID) error {
	if err := u.uploads.Delete(ctx, id, clientID); err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			return ErrUploadNotFound
		}
		return err
	}
	return nil
}
