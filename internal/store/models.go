// Package store contains the persistence layer for session identities.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the minimal persisted record of one managed job: enough to
// re-find or cancel it after a daemon restart. At most one identity
// exists per (owner, logical name) pair; discovery plus the unique index
// enforce that a second submission never races an existing job.
type Identity struct {
	ID          uuid.UUID
	Owner       string
	LogicalName string
	JobID       string
	Port        int
	// NodeName and NodeAddress are cached placement, refreshed whenever
	// the scheduler is re-queried. The authoritative answer is always the
	// live one.
	NodeName    string
	NodeAddress string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
