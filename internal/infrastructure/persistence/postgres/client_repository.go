package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"butternut/internal/domain/client"
)

const pgUniqueViolation = "23505"

const clientColumns = `id, username, password_hash, password_salt, subscription_start,
	business_context, profile, roster, roster_version,
	reset_token, reset_token_expires_at, created_at, updated_at`

// ClientRepository persists accounts as single rows; profile and roster are
// JSONB documents so roster writes are one atomic replace.
type ClientRepository struct {
	pool *pgxpool.Pool
}

func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

func (r *ClientRepository) Create(ctx context.Context, c client.Client) error {
	profile, err := marshalProfile(c.Profile)
	if err != nil {
		return err
	}
	roster, err := marshalRoster(c.Roster)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO clients (id, username, password_hash, password_salt, business_context, profile, roster)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Username, c.PasswordHash, c.PasswordSalt, c.BusinessContext, profile, roster,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return client.ErrDuplicateUsername
		}
		return storeError(err)
	}
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (client.Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

func (r *ClientRepository) GetByUsername(ctx context.Context, username string) (client.Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE username = $1`, username)
	return scanClient(row)
}

func (r *ClientRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, storeError(err)
	}
	return exists, nil
}

func (r *ClientRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clients SET reset_token = $2, reset_token_expires_at = $3, updated_at = now() WHERE id = $1`,
		id, token, expiresAt,
	)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return client.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) GetByResetToken(ctx context.Context, token string) (client.Client, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE reset_token = $1`, token)
	return scanClient(row)
}

func (r *ClientRepository) ConsumeResetToken(ctx context.Context, token string, hash, salt []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clients
		 SET password_hash = $2, password_salt = $3,
		     reset_token = NULL, reset_token_expires_at = NULL, updated_at = now()
		 WHERE reset_token = $1`,
		token, hash, salt,
	)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return client.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) UpdateProfile(ctx context.Context, id uuid.UUID, p client.Profile) error {
	profile, err := json.Marshal(p)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE clients SET profile = $2, updated_at = now() WHERE id = $1`,
		id, profile,
	)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return client.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) UpdateBusinessContext(ctx context.Context, id uuid.UUID, businessContext string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clients SET business_context = $2, updated_at = now() WHERE id = $1`,
		id, businessContext,
	)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return client.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) SetSubscriptionStart(ctx context.Context, id uuid.UUID, start time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE clients SET subscription_start = $2, updated_at = now() WHERE id = $1`,
		id, start,
	)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return client.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) GetRoster(ctx context.Context, id uuid.UUID) ([]client.CustomerRecord, int64, error) {
	var raw []byte
	var version int64
	err := r.pool.QueryRow(ctx, `SELECT roster, roster_version FROM clients WHERE id = $1`, id).Scan(&raw, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, client.ErrNotFound
		}
		return nil, 0, storeError(err)
	}

	roster, err := unmarshalRoster(raw)
	if err != nil {
		return nil, 0, err
	}
	return roster, version, nil
}

func (r *ClientRepository) ReplaceRoster(ctx context.Context, id uuid.UUID, roster []client.CustomerRecord, expectedVersion int64) error {
	raw, err := marshalRoster(roster)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE clients
		 SET roster = $2, roster_version = roster_version + 1, updated_at = now()
		 WHERE id = $1 AND roster_version = $3`,
		id, raw, expectedVersion,
	)
	if err != nil {
		return storeError(err)
	}
	if tag.RowsAffected() == 0 {
		return client.ErrVersionConflict
	}
	return nil
}

type clientRow interface {
	Scan(dest ...any) error
}

func scanClient(row clientRow) (client.Client, error) {
	var c client.Client
	var profileRaw, rosterRaw []byte
	var resetToken *string

	err := row.Scan(
		&c.ID, &c.Username, &c.PasswordHash, &c.PasswordSalt, &c.SubscriptionStart,
		&c.BusinessContext, &profileRaw, &rosterRaw, &c.RosterVersion,
		&resetToken, &c.ResetTokenExpiresAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return client.Client{}, client.ErrNotFound
		}
		return client.Client{}, storeError(err)
	}

	if resetToken != nil {
		c.ResetToken = *resetToken
	}
	if len(profileRaw) > 0 {
		var p client.Profile
		if err := json.Unmarshal(profileRaw, &p); err != nil {
			return client.Client{}, err
		}
		c.Profile = &p
	}
	c.Roster, err = unmarshalRoster(rosterRaw)
	if err != nil {
		return client.Client{}, err
	}

	return c, nil
}

func marshalProfile(p *client.Profile) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func marshalRoster(roster []client.CustomerRecord) ([]byte, error) {
	if roster == nil {
		roster = []client.CustomerRecord{}
	}
	return json.Marshal(roster)
}

func unmarshalRoster(raw []byte) ([]client.CustomerRecord, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var roster []client.CustomerRecord
	if err := json.Unmarshal(raw, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// storeError folds connection-level failures into ErrUnavailable so callers
// can tell an unreachable store apart from a domain failure.
func storeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return fmt.Errorf("%w: %w", client.ErrUnavailable, err)
}
