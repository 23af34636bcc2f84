package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"slurmspawn/internal/apperrors"
	"slurmspawn/internal/store"
)

// Save inserts the identity, or updates the existing row for the same
// (owner, logical_name) pair. The unique index makes the upsert the only
// way two submissions for one session can ever collide.
func (s *Store) Save(ctx context.Context, ident *store.Identity) error {
	query := `
		INSERT INTO identities (id, owner, logical_name, job_id, port, node_name, node_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (owner, logical_name) DO UPDATE SET
			job_id = EXCLUDED.job_id,
			port = EXCLUDED.port,
			node_name = EXCLUDED.node_name,
			node_address = EXCLUDED.node_address,
			updated_at = EXCLUDED.updated_at
	`

	if ident.ID == uuid.Nil {
		ident.ID = uuid.New()
	}
	now := time.Now().UTC()
	if ident.CreatedAt.IsZero() {
		ident.CreatedAt = now
	}
	ident.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, query,
		ident.ID,
		ident.Owner,
		ident.LogicalName,
		ident.JobID,
		ident.Port,
		ident.NodeName,
		ident.NodeAddress,
		ident.CreatedAt,
		ident.UpdatedAt,
	)
	return err
}

// Get returns the identity for (owner, logicalName).
func (s *Store) Get(ctx context.Context, owner, logicalName string) (*store.Identity, error) {
	query := `
		SELECT id, owner, logical_name, job_id, port, node_name, node_address, created_at, updated_at
		FROM identities WHERE owner = $1 AND logical_name = $2
	`

	var ident store.Identity
	err := s.db.QueryRowContext(ctx, query, owner, logicalName).Scan(
		&ident.ID,
		&ident.Owner,
		&ident.LogicalName,
		&ident.JobID,
		&ident.Port,
		&ident.NodeName,
		&ident.NodeAddress,
		&ident.CreatedAt,
		&ident.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound(owner, logicalName)
	}
	if err != nil {
		return nil, err
	}

	return &ident, nil
}

// Delete removes the identity for (owner, logicalName). Missing rows are
// fine: clearing state must be idempotent.
func (s *Store) Delete(ctx context.Context, owner, logicalName string) error {
	query := `DELETE FROM identities WHERE owner = $1 AND logical_name = $2`

	_, err := s.db.ExecContext(ctx, query, owner, logicalName)
	return err
}
