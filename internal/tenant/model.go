// internal/tenant/model.go
//
// Tenant row: one customer-owned hostname bound to the platform.
//
// Context
// -------
// A tenant is created when a user submits a domain.  AliasState tracks the
// reconciliation lifecycle against the hosting provider; the state machine
// is driven exclusively by alias.Reconcile outcomes.  The operational state
// is captured by two nullable timestamps:
//
//   - SuspendedAt – tenant is temporarily disabled (e.g., billing).
//   - DeletedAt   – tenant is soft-removed.  Never hard-deleted while
//     content exists for it.
//
// Hostname is stored canonical (lowercase, no scheme, no "www.") and is
// globally unique; ByHost normalizes before lookup so the uniqueness is
// case- and scheme-insensitive at the boundary too.

package tenant

import (
	"time"

	"github.com/yanizio/pressroom/internal/hostname"
)

// AliasState is the provider-reconciliation state of a tenant's hostname.
type AliasState string

const (
	StateUnconfirmed  AliasState = "unconfirmed"
	StateAliasCreated AliasState = "alias_created"
	StateAliasExists  AliasState = "alias_exists"
	StateVerified     AliasState = "verified"
	StateError        AliasState = "error"
)

// Record mirrors one row in the persistent `tenant` table.
type Record struct {
	ID          uint64        `db:"id"`
	Hostname    string        `db:"hostname"`
	Kind        hostname.Kind `db:"kind"`
	AliasState  AliasState    `db:"alias_state"`
	ThemeKey    string        `db:"theme_key"`
	OwnerID     uint64        `db:"owner_id"`
	SuspendedAt *time.Time    `db:"suspended_at"`
	DeletedAt   *time.Time    `db:"deleted_at"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}
