// internal/slug/slug_test.go
//
// Unit-tests for the slug allocator.
//
// Context
// -------
// fakeTable is a map-backed Checker so the allocator can be exercised
// without a database.  The tests cover the properties that matter:
//
//   • two allocations for the same title differ (no counter reuse)
//   • a taken candidate is never returned while checks succeed
//   • a failing store does not block allocation
//   • base derivation matches the lower-kebab pattern
//
// Run: go test ./internal/slug -v

package slug

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
)

// fakeTable satisfies Checker with injectable rows and errors.
type fakeTable struct {
	name string
	rows map[string]bool // slug → taken
	err  error
}

func (f *fakeTable) Exists(_ context.Context, _ uint64, s string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.rows[s], nil
}

func (f *fakeTable) Table() string { return f.name }

func newAllocator(auto, blog *fakeTable) *Allocator {
	a := NewAllocator(auto, blog)
	a.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return a
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestAllocate_PatternAndUniqueness(t *testing.T) {
	auto := &fakeTable{name: "automation_post", rows: map[string]bool{}}
	blog := &fakeTable{name: "blog_post", rows: map[string]bool{}}
	a := newAllocator(auto, blog)

	first := a.Allocate(context.Background(), 1, "Top 10 SEO Tips!!")
	second := a.Allocate(context.Background(), 1, "Top 10 SEO Tips!!")

	for _, s := range []string{first, second} {
		if !strings.HasPrefix(s, "top-10-seo-tips-") {
			t.Fatalf("slug %q missing base prefix", s)
		}
		if !slugPattern.MatchString(s) {
			t.Fatalf("slug %q not URL-safe kebab", s)
		}
	}
	if first == second {
		t.Fatalf("identical inputs produced identical slugs: %q", first)
	}
}

func TestAllocate_SkipsTakenInEitherTable(t *testing.T) {
	auto := &fakeTable{name: "automation_post", rows: map[string]bool{}}

	// The blog table reports the first candidate taken, so the allocator
	// must regenerate and return the second.
	collided := false
	blog := checkerFunc(func(ctx context.Context, tid uint64, s string) (bool, error) {
		if !collided {
			collided = true
			return true, nil
		}
		return false, nil
	})

	a := NewAllocator(auto, blog)
	a.now = func() time.Time { return time.UnixMilli(1700000000000) }

	got := a.Allocate(context.Background(), 1, "hello world")
	if !strings.HasPrefix(got, "hello-world-") {
		t.Fatalf("slug %q, want hello-world- prefix", got)
	}
	if !collided {
		t.Fatal("collision path never exercised")
	}
}

// checkerFunc adapts a func to Checker for collision-injection tests.
type checkerFunc func(context.Context, uint64, string) (bool, error)

func (f checkerFunc) Exists(ctx context.Context, tid uint64, s string) (bool, error) {
	return f(ctx, tid, s)
}
func (checkerFunc) Table() string { return "blog_post" }

func TestAllocate_StoreErrorDoesNotBlock(t *testing.T) {
	auto := &fakeTable{name: "automation_post", err: errors.New("connection refused")}
	blog := &fakeTable{name: "blog_post", rows: map[string]bool{}}
	a := newAllocator(auto, blog)

	got := a.Allocate(context.Background(), 1, "resilient title")
	if !strings.HasPrefix(got, "resilient-title-") {
		t.Fatalf("slug %q, want resilient-title- prefix", got)
	}
}

func TestBase(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Top 10 SEO Tips!!", "top-10-seo-tips"},
		{"  Hello,   World  ", "hello-world"},
		{"!!!", "post"},
		{"", "post"},
	}
	for _, c := range cases {
		if got := Base(c.in); got != c.want {
			t.Fatalf("Base(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
