package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"slurmspawn/internal/apperrors"
	"slurmspawn/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	return &Store{db: db}, mock
}

func TestSave_InsertsIdentity(t *testing.T) {
	store_, mock := newMockStore(t)
	defer store_.db.Close()

	ident := &store.Identity{
		ID:          uuid.New(),
		Owner:       "alice",
		LogicalName: "spawner-jupyterhub-singleuser",
		JobID:       "209",
		Port:        8891,
		NodeName:    "node03",
		NodeAddress: "10.0.0.5",
	}

	mock.ExpectExec(`INSERT INTO identities`).
		WithArgs(ident.ID, "alice", "spawner-jupyterhub-singleuser", "209", 8891,
			"node03", "10.0.0.5", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store_.Save(context.Background(), ident); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if ident.CreatedAt.IsZero() || ident.UpdatedAt.IsZero() {
		t.Error("Save should stamp CreatedAt/UpdatedAt")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGet_ReturnsIdentity(t *testing.T) {
	store_, mock := newMockStore(t)
	defer store_.db.Close()

	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT id, owner, logical_name, job_id, port, node_name, node_address, created_at, updated_at`).
		WithArgs("alice", "notebook").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "owner", "logical_name", "job_id", "port",
			"node_name", "node_address", "created_at", "updated_at",
		}).AddRow(id, "alice", "notebook", "209", 8891, "node03", "10.0.0.5", now, now))

	ident, err := store_.Get(context.Background(), "alice", "notebook")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if ident.ID != id {
		t.Errorf("got ID %v, want %v", ident.ID, id)
	}
	if ident.JobID != "209" {
		t.Errorf("got JobID %q, want 209", ident.JobID)
	}
	if ident.Port != 8891 {
		t.Errorf("got Port %d, want 8891", ident.Port)
	}
	if ident.NodeAddress != "10.0.0.5" {
		t.Errorf("got NodeAddress %q, want 10.0.0.5", ident.NodeAddress)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	store_, mock := newMockStore(t)
	defer store_.db.Close()

	mock.ExpectQuery(`SELECT id, owner, logical_name`).
		WithArgs("alice", "gone").
		WillReturnError(sql.ErrNoRows)

	_, err := store_.Get(context.Background(), "alice", "gone")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_IsIdempotent(t *testing.T) {
	store_, mock := newMockStore(t)
	defer store_.db.Close()

	mock.ExpectExec(`DELETE FROM identities`).
		WithArgs("alice", "notebook").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store_.Delete(context.Background(), "alice", "notebook"); err != nil {
		t.Errorf("Delete of missing row should succeed, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
