// internal/content/model.go
//
// Content item (post) row shared by both content tables.
//
// Context
// -------
// The product persists automation-generated and manually authored posts in
// two physically separate tables, automation_post and blog_post.  Both share
// the tenant's URL namespace, so the row shape is identical and slug
// uniqueness has to hold across the union of the two (enforced by the slug
// allocator; see internal/slug).  Each table also carries its own
// (tenant_id, slug) unique key as the final backstop.
//
// Notes
// -----
// • Rows are immutable after creation except for Status.
// • Oxford commas, two spaces after periods.

package content

import "time"

// Status is the soft lifecycle state of a post.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Post mirrors one row in automation_post or blog_post.
type Post struct {
	ID           uint64    `db:"id"`
	TenantID     uint64    `db:"tenant_id"`
	Slug         string    `db:"slug"`
	Title        string    `db:"title"`
	Body         string    `db:"body"`
	ThemeKey     string    `db:"theme_key"`
	CanonicalURL string    `db:"canonical_url"`
	Status       Status    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
}
