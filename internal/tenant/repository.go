package tenant

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/pressroom/internal/fault"
	"github.com/yanizio/pressroom/internal/hostname"
)

// Repository wraps the global control-plane pool for tenant rows.
type Repository struct {
	db *sqlx.DB
}

// NewRepository binds a Repository to the global pool.
func NewRepository(db *sqlx.DB) *Repository { return &Repository{db: db} }

const columns = `id, hostname, kind, alias_state, theme_key, owner_id,
               suspended_at, deleted_at, created_at, updated_at`

// ByHost fetches a single tenant row that is not suspended or deleted.  The
// raw host is normalized first, so lookups are case-, scheme-, and
// www-insensitive.  The caller supplies a context so the lookup respects
// request deadlines.
func (r *Repository) ByHost(ctx context.Context, raw string) (*Record, error) {
	host := hostname.Normalize(raw)

	const q = `
	    SELECT ` + columns + `
	    FROM   tenant
	    WHERE  hostname = ?
	      AND  suspended_at IS NULL
	      AND  deleted_at   IS NULL
	    LIMIT  1`
	var rec Record
	if err := r.db.GetContext(ctx, &rec, q, host); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.NotFound("tenant " + host)
		}
		return nil, err
	}
	return &rec, nil
}

// ByID fetches a tenant by primary key, suspended and deleted rows included
// so admin tooling can inspect them.
func (r *Repository) ByID(ctx context.Context, id uint64) (*Record, error) {
	const q = `SELECT ` + columns + ` FROM tenant WHERE id = ? LIMIT 1`
	var rec Record
	if err := r.db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fault.NotFound("tenant")
		}
		return nil, err
	}
	return &rec, nil
}

// Create inserts a tenant in the unconfirmed state.  The hostname must be
// validated by the caller before it gets here.
func (r *Repository) Create(ctx context.Context, host string, kind hostname.Kind, themeKey string, ownerID uint64) (uint64, error) {
	const q = `
	    INSERT INTO tenant (hostname, kind, alias_state, theme_key, owner_id)
	    VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, host, kind, StateUnconfirmed, themeKey, ownerID)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, fault.Conflict("hostname " + host + " already registered")
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SetAliasState records a reconciliation outcome.
func (r *Repository) SetAliasState(ctx context.Context, id uint64, state AliasState) error {
	const q = `UPDATE tenant SET alias_state = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, state, id)
	return err
}

// isDuplicateKey recognises MySQL/MariaDB error 1062 without importing
// driver-specific types.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1062") || strings.Contains(msg, "Duplicate entry")
}

// AllActive returns every tenant that is neither suspended nor deleted.
// Used by the bulk alias-sync repair path, not by the request path.
func (r *Repository) AllActive(ctx context.Context) ([]Record, error) {
	const q = `
	    SELECT ` + columns + `
	    FROM   tenant
	    WHERE  suspended_at IS NULL
	      AND  deleted_at   IS NULL`
	var rows []Record
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}
