// internal/content/store.go
//
// sqlx-backed stores for the two content tables.
//
// Both tables expose the same two operations the core needs: an existence
// check scoped by (tenant_id, slug), and an insert that surfaces the table's
// own unique-key violation as fault.Conflict.  The table name is the only
// difference, so one Store type covers both; constructors pin the name so
// no caller ever passes table names around.

package content

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/pressroom/internal/fault"
)

// Store reads and writes one content table.  Safe for concurrent use; all
// state lives in the *sqlx.DB pool.
type Store struct {
	db    *sqlx.DB
	table string
}

// NewAutomationStore returns the store for automation-generated posts.
func NewAutomationStore(db *sqlx.DB) *Store { return &Store{db: db, table: "automation_post"} }

// NewBlogStore returns the store for manually authored posts.
func NewBlogStore(db *sqlx.DB) *Store { return &Store{db: db, table: "blog_post"} }

// Table reports which table this store is bound to (used in logs).
func (s *Store) Table() string { return s.table }

// Exists reports whether the tenant already has a post with the given slug
// in this table.
func (s *Store) Exists(ctx context.Context, tenantID uint64, slug string) (bool, error) {
	const q = `SELECT 1 FROM %s WHERE tenant_id = ? AND slug = ? LIMIT 1`
	var one int
	err := s.db.GetContext(ctx, &one, sprintfTable(q, s.table), tenantID, slug)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Insert persists a post and returns its id.  A duplicate (tenant_id, slug)
// key is reported as fault.Conflict so the caller can distinguish a lost
// slug race from an infrastructure failure.
func (s *Store) Insert(ctx context.Context, p *Post) (uint64, error) {
	const q = `
	    INSERT INTO %s
	           (tenant_id, slug, title, body, theme_key, canonical_url, status)
	    VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, sprintfTable(q, s.table),
		p.TenantID, p.Slug, p.Title, p.Body, p.ThemeKey, p.CanonicalURL, p.Status)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, fault.Conflict("duplicate slug " + p.Slug)
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Archive flips a post to archived.  The only permitted mutation after
// creation.
func (s *Store) Archive(ctx context.Context, tenantID, id uint64) error {
	const q = `UPDATE %s SET status = ? WHERE tenant_id = ? AND id = ?`
	_, err := s.db.ExecContext(ctx, sprintfTable(q, s.table), StatusArchived, tenantID, id)
	return err
}

// BySlug fetches a single post in this table for rendering.
func (s *Store) BySlug(ctx context.Context, tenantID uint64, slug string) (*Post, error) {
	const q = `
	    SELECT id, tenant_id, slug, title, body, theme_key, canonical_url,
	           status, created_at
	    FROM   %s
	    WHERE  tenant_id = ? AND slug = ?
	    LIMIT  1`
	var p Post
	if err := s.db.GetContext(ctx, &p, sprintfTable(q, s.table), tenantID, slug); err != nil {
		if isNoRows(err) {
			return nil, fault.NotFound("post " + slug)
		}
		return nil, err
	}
	return &p, nil
}

// sprintfTable splices the fixed table name into a query template.  The name
// comes from the two constructors above, never from caller input.
func sprintfTable(q, table string) string {
	return strings.Replace(q, "%s", table, 1)
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// isDuplicateKey recognises MySQL/MariaDB error 1062 without importing
// driver-specific types (same trick as tenant's unknown-table probe).
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1062") || strings.Contains(msg, "Duplicate entry")
}
