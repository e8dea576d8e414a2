// internal/publish/pipeline.go
//
// Automated publishing pipeline.
//
// Context
// -------
// Publish is the one write path for automation content.  Order matters:
// the tenant lookup runs first so a dead tenant ID fails cheap, before any
// slug work or content cleanup.  Slug allocation itself never fails; the
// only error after the lookup is the insert, and the caller's retry of the
// whole Publish call gets a fresh slug, so no slug-level retry happens
// here.
//
// Notes
// -----
// • Canonical URLs are always https on the tenant's stored hostname.
// • Oxford commas, two spaces after periods.

package publish

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/pressroom/internal/content"
	"github.com/yanizio/pressroom/internal/metrics"
	"github.com/yanizio/pressroom/internal/slug"
	"github.com/yanizio/pressroom/internal/tenant"
)

// TenantSource is the tenant lookup the pipeline needs.
type TenantSource interface {
	ByID(ctx context.Context, id uint64) (*tenant.Record, error)
}

// PostStore is the content sink.
type PostStore interface {
	Insert(ctx context.Context, p *content.Post) (uint64, error)
}

// Pipeline publishes automation posts for a tenant.
type Pipeline struct {
	tenants TenantSource
	posts   PostStore
	slugs   *slug.Allocator
	now     func() time.Time
}

// New wires the pipeline.
func New(tenants TenantSource, posts PostStore, slugs *slug.Allocator) *Pipeline {
	return &Pipeline{tenants: tenants, posts: posts, slugs: slugs, now: time.Now}
}

// Publish stores one post for tenantID and returns the stored record.
func (p *Pipeline) Publish(ctx context.Context, tenantID uint64, title, body string) (*content.Post, error) {
	ten, err := p.tenants.ByID(ctx, tenantID)
	if err != nil {
		metrics.PublishErrorsTotal.Inc()
		return nil, err
	}

	displayTitle := TitleCase(CleanTitle(title))
	cleanBody := StripLeadingTitle(body, title)

	s := p.slugs.Allocate(ctx, tenantID, displayTitle)

	post := &content.Post{
		TenantID:     tenantID,
		Slug:         s,
		Title:        displayTitle,
		Body:         cleanBody,
		ThemeKey:     ten.ThemeKey,
		CanonicalURL: "https://" + ten.Hostname + "/" + s,
		Status:       content.StatusPublished,
		CreatedAt:    p.now(),
	}
	id, err := p.posts.Insert(ctx, post)
	if err != nil {
		metrics.PublishErrorsTotal.Inc()
		return nil, err
	}
	post.ID = id

	metrics.PublishTotal.Inc()
	zap.L().Info("post published",
		zap.Uint64("tenant_id", tenantID),
		zap.String("slug", s),
		zap.String("url", post.CanonicalURL))
	return post, nil
}
