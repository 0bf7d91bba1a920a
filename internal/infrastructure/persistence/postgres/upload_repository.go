package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"butternut/internal/domain/client"
	"butternut/internal/domain/upload"
)

type UploadRepository struct {
	pool *pgxpool.Pool
}

func NewUploadRepository(pool *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{pool: pool}
}

func (r *UploadRepository) Create(ctx context.Context, u upload.Upload, rows []client.CustomerRecord) error {
	if rows == nil {
		rows = []client.CustomerRecord{}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO uploads (id, client_id, file_name, row_count, rows, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.ClientID, u.FileName, u.RowCount, raw, u.UploadedAt,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

func (r *UploadRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]upload.Upload, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, client_id, file_name, row_count, uploaded_at
		 FROM uploads WHERE client_id = $1 ORDER BY uploaded_at DESC`,
		clientID,
	)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	var out []upload.Upload
	for rows.Next() {
		var u upload.Upload
		if err := rows.Scan(&u.ID, &u.ClientID, &u.FileName, &u.RowCount, &u.UploadedAt); err != nil {
			return nil, storeError(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return out, nil
}

func (r *UploadRepository) GetRows(ctx context.Context, id, clientID uuid.UUID) ([]client.CustomerRecord, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT rows FROM uploads WHERE id = $1 AND client_id = $2`,
		id, clientID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, upload.ErrNotFound
		}
		return nil, storeError(err)
	}

	var records []client.CustomerRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *UploadRepository) Delete(ctx context.Context, id, clientID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM uploads WHERE id = $1 AND client_id = $2`,
		id, clientID,
	)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return upload.ErrNotFound
	}
	return nil
}
