package upload

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"butternut/internal/domain/client"
)

var ErrNotFound = errors.New("upload not found")

type Repository interface {
	Create(ctx context.Context, u Upload, rows []client.CustomerRecord) error
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]Upload, error)
	GetRows(ctx context.Context, id, clientID uuid.UUID) ([]client.CustomerRecord, error)
	Delete(ctx context.Context, id, clientID uuid.UUID) error
}
