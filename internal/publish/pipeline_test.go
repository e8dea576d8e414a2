// internal/publish/pipeline_test.go
//
// Pipeline ordering and cleanup tests with in-memory fakes.
//
// Run: go test ./internal/publish -v

package publish

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/yanizio/pressroom/internal/content"
	"github.com/yanizio/pressroom/internal/fault"
	"github.com/yanizio/pressroom/internal/slug"
	"github.com/yanizio/pressroom/internal/tenant"
)

type fakeTenants struct {
	rec    *tenant.Record
	called bool
}

func (f *fakeTenants) ByID(_ context.Context, id uint64) (*tenant.Record, error) {
	f.called = true
	if f.rec == nil || f.rec.ID != id {
		return nil, fault.NotFound("tenant")
	}
	return f.rec, nil
}

type fakePosts struct {
	inserted []*content.Post
	err      error
}

func (f *fakePosts) Insert(_ context.Context, p *content.Post) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.inserted = append(f.inserted, p)
	return uint64(len(f.inserted)), nil
}

type emptyChecker string

func (c emptyChecker) Exists(context.Context, uint64, string) (bool, error) { return false, nil }
func (c emptyChecker) Table() string                                        { return string(c) }

func newPipeline(t *testing.T, tenants *fakeTenants, posts *fakePosts) *Pipeline {
	t.Helper()
	alloc := slug.NewAllocator(emptyChecker("automation_post"), emptyChecker("blog_post"))
	return New(tenants, posts, alloc)
}

func TestPublish_StoresCleanedPost(t *testing.T) {
	tenants := &fakeTenants{rec: &tenant.Record{
		ID: 7, Hostname: "example.com", ThemeKey: "minimal"}}
	posts := &fakePosts{}
	p := newPipeline(t, tenants, posts)

	body := "Title: the future of seo\n# The Future of SEO\nActual first paragraph."
	post, err := p.Publish(context.Background(), 7, "Title: **the future of seo**", body)
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	if post.Title != "The Future of Seo" {
		t.Fatalf("title = %q", post.Title)
	}
	if strings.Contains(post.Body, "Title:") || strings.Contains(post.Body, "#") {
		t.Fatalf("title echo survived cleanup: %q", post.Body)
	}
	if !strings.HasPrefix(post.Body, "Actual first paragraph.") {
		t.Fatalf("body = %q", post.Body)
	}
	if !strings.HasPrefix(post.Slug, "the-future-of-seo-") {
		t.Fatalf("slug = %q", post.Slug)
	}
	if !strings.HasPrefix(post.CanonicalURL, "https://example.com/") ||
		!strings.HasSuffix(post.CanonicalURL, post.Slug) {
		t.Fatalf("canonical = %q", post.CanonicalURL)
	}
	if post.ThemeKey != "minimal" || post.Status != content.StatusPublished {
		t.Fatalf("theme/status = %q/%q", post.ThemeKey, post.Status)
	}
	if len(posts.inserted) != 1 {
		t.Fatalf("inserted %d posts", len(posts.inserted))
	}
}

func TestPublish_UnknownTenantFailsBeforeInsert(t *testing.T) {
	tenants := &fakeTenants{}
	posts := &fakePosts{}
	p := newPipeline(t, tenants, posts)

	_, err := p.Publish(context.Background(), 99, "Hello", "body")
	if !fault.IsNotFound(err) {
		t.Fatalf("want not-found, got %v", err)
	}
	if len(posts.inserted) != 0 {
		t.Fatal("post stored for unknown tenant")
	}
}

func TestPublish_InsertErrorSurfaces(t *testing.T) {
	tenants := &fakeTenants{rec: &tenant.Record{ID: 1, Hostname: "a.com"}}
	posts := &fakePosts{err: fault.Conflict("duplicate slug")}
	p := newPipeline(t, tenants, posts)

	_, err := p.Publish(context.Background(), 1, "Hello World", "body")
	if !fault.IsKind(err, fault.KindConflict) {
		t.Fatalf("want conflict passthrough, got %v", err)
	}
}

func TestPublish_RetryGetsFreshSlug(t *testing.T) {
	tenants := &fakeTenants{rec: &tenant.Record{ID: 1, Hostname: "a.com"}}
	posts := &fakePosts{}
	p := newPipeline(t, tenants, posts)

	first, err := p.Publish(context.Background(), 1, "Same Title", "body")
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := p.Publish(context.Background(), 1, "Same Title", "body")
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if first.Slug == second.Slug {
		t.Fatalf("retried publish reused slug %q", first.Slug)
	}
}

func TestTitleCase(t *testing.T) {
	cases := []struct{ in, want string }{
		{"the future of seo", "The Future of Seo"},
		{"FAQ and answers", "FAQ and Answers"},
		{"a guide to go", "A Guide to Go"},
		{"", ""},
	}
	for _, c := range cases {
		if got := TitleCase(c.in); got != c.want {
			t.Fatalf("TitleCase(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStripLeadingTitle_HTMLHeading(t *testing.T) {
	body := `<h1><strong>My Post</strong></h1><p>Intro.</p>`
	got := StripLeadingTitle(body, "My Post")
	if got != "<p>Intro.</p>" {
		t.Fatalf("got %q", got)
	}

	// Later occurrences are content, not echo.
	body = "<p>About My Post</p><h2>My Post</h2>"
	if got := StripLeadingTitle(body, "My Post"); got != body {
		t.Fatalf("non-leading heading removed: %q", got)
	}
}
