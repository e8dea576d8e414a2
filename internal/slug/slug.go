// internal/slug/slug.go
//
// Tenant-scoped slug allocation across both content tables.
//
// Context
// -------
// Automation-generated and manually authored posts live in two separate
// tables that share one URL namespace per tenant.  No single-table unique
// constraint can express "unique across the union," so this allocator is
// the one place that invariant is checked.  The first candidate is already
// collision-resistant by construction: two publishes in the same
// millisecond still differ by the random token.
//
// Rules (Allocate)
// ----------------
// 1. Base slug via gosimple/slug (lower-kebab, non-word runs collapse to
//    one "-", edges trimmed); empty titles fall back to "post".
// 2. Append "-{base36 ms timestamp}-{4-char token}".
// 3. Check both tables in parallel; taken → new suffix, up to 10 attempts.
// 4. Exhausted → "{base}-{8 hex chars from crypto/rand}" accepted without a
//    re-check.  Residual collision probability is an accepted risk, not
//    hidden: the stores' own unique keys are the backstop.
// 5. A store error during the check does not block publication; uniqueness
//    is best-effort under store unavailability.
//
// Notes
// -----
// • The allocator holds no lock and never reads across tenants.
// • Oxford commas, two spaces after periods.

package slug

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand/v2"
	"strconv"
	"strings"
	"time"

	gslug "github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/pressroom/internal/metrics"
)

const maxAttempts = 10

// Checker is the read side of a content table, satisfied by *content.Store.
type Checker interface {
	Exists(ctx context.Context, tenantID uint64, slug string) (bool, error)
	Table() string
}

// Allocator mints collision-free slugs for one pair of content tables.
type Allocator struct {
	automation Checker
	blog       Checker
	now        func() time.Time // injectable for tests
}

// NewAllocator wires the two table checkers.
func NewAllocator(automation, blog Checker) *Allocator {
	return &Allocator{automation: automation, blog: blog, now: time.Now}
}

// Allocate derives a URL-safe slug for title, unique for tenantID across
// both tables.  It always returns a slug; it never blocks indefinitely.
func (a *Allocator) Allocate(ctx context.Context, tenantID uint64, title string) string {
	base := Base(title)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := base + "-" + strconv.FormatInt(a.now().UnixMilli(), 36) + "-" + token(4)

		taken, err := a.taken(ctx, tenantID, candidate)
		if err != nil {
			// Best-effort: a failed check is logged, not fatal.
			zap.L().Warn("slug existence check failed, proceeding unchecked",
				zap.Uint64("tenant_id", tenantID),
				zap.String("slug", candidate),
				zap.Error(err))
			return candidate
		}
		if !taken {
			return candidate
		}
		metrics.SlugRetryTotal.Inc()
	}

	// Pathological: ten randomized candidates all collided.  Fall back to
	// high-entropy hex and accept without re-checking.
	metrics.SlugFallbackTotal.Inc()
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return base + "-" + hex.EncodeToString(buf)
}

// taken runs both existence checks concurrently; they are independent reads.
func (a *Allocator) taken(ctx context.Context, tenantID uint64, candidate string) (bool, error) {
	var inAutomation, inBlog bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		inAutomation, err = a.automation.Exists(gctx, tenantID, candidate)
		return err
	})
	g.Go(func() (err error) {
		inBlog, err = a.blog.Exists(gctx, tenantID, candidate)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}
	return inAutomation || inBlog, nil
}

// Base converts a title to lower-kebab ASCII.  Empty results become "post",
// and slugs are capped at 100 bytes with any cut dash trimmed.
func Base(title string) string {
	s := gslug.Make(title)
	if s == "" {
		return "post"
	}
	if len(s) > 100 {
		s = strings.TrimRight(s[:100], "-")
	}
	return s
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// token returns n random base-36 characters.
func token(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(base36[mrand.IntN(len(base36))])
	}
	return b.String()
}
