// internal/alias/reconcile_test.go
//
// Unit-tests for alias reconciliation against an httptest provider.
//
// Context
// -------
// fakeProvider records every request and serves canned site and domain
// collections, so the decision tree can be asserted without touching the
// real API:
//
//   • apex already attached           → ModeExists, zero mutating calls
//   • apex absent                     → site PATCH with appended alias
//   • subdomain absent                → domain PATCH 404 → POST create
//   • provider 401                    → Upstream error with auth remedy
//   • operator subdomain update       → same PATCH-then-POST fallback
//   • bulk sync                       → one merged PATCH, 5xx retried,
//                                       4xx validation failures not
//
// Run: go test ./internal/alias -v

package alias

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/pressroom/internal/fault"
)

type call struct {
	method string
	path   string
}

// fakeProvider is a minimal provider API double.
type fakeProvider struct {
	t       *testing.T
	site    site
	domains []domainRecord
	calls   []call
}

func (f *fakeProvider) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls = append(f.calls, call{r.Method, r.URL.Path})
		switch {
		case r.Method == "GET" && r.URL.Path == "/sites/site-1":
			json.NewEncoder(w).Encode(f.site)
		case r.Method == "PATCH" && r.URL.Path == "/sites/site-1":
			var body struct {
				DomainAliases []string `json:"domain_aliases"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.site.DomainAliases = body.DomainAliases
			json.NewEncoder(w).Encode(f.site)
		case r.Method == "GET" && r.URL.Path == "/sites/site-1/domains":
			json.NewEncoder(w).Encode(f.domains)
		case r.Method == "PATCH" && len(r.URL.Path) > len("/sites/site-1/domains/"):
			name := r.URL.Path[len("/sites/site-1/domains/"):]
			for _, d := range f.domains {
				if d.Name == name {
					json.NewEncoder(w).Encode(d)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "domain not found"})
		case r.Method == "POST" && r.URL.Path == "/sites/site-1/domains":
			var d domainRecord
			json.NewDecoder(r.Body).Decode(&d)
			f.domains = append(f.domains, d)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(d)
		default:
			f.t.Fatalf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	})
}

func newTestClient(t *testing.T, f *fakeProvider) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", srv.Client()), srv
}

func TestReconcile_ApexAlreadyAttached_Idempotent(t *testing.T) {
	f := &fakeProvider{t: t, site: site{
		ID:            "site-1",
		CustomDomain:  "example.com",
		DomainAliases: []string{"other.net"},
	}}
	c, _ := newTestClient(t, f)

	for i := 0; i < 2; i++ {
		res, err := c.Reconcile(context.Background(), "site-1", "https://www.Example.com/")
		if err != nil {
			t.Fatalf("Reconcile error: %v", err)
		}
		if res.Mode != ModeExists {
			t.Fatalf("mode = %s, want %s", res.Mode, ModeExists)
		}
	}
	for _, cl := range f.calls {
		if cl.method != "GET" {
			t.Fatalf("mutating call issued for attached apex: %+v", cl)
		}
	}
	if len(f.site.DomainAliases) != 1 {
		t.Fatalf("alias list mutated: %v", f.site.DomainAliases)
	}
}

func TestReconcile_ApexAbsent_AppendsAlias(t *testing.T) {
	f := &fakeProvider{t: t, site: site{ID: "site-1", DomainAliases: []string{"old.net"}}}
	c, _ := newTestClient(t, f)

	res, err := c.Reconcile(context.Background(), "site-1", "newsite.com")
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if res.Mode != ModeCreate {
		t.Fatalf("mode = %s, want %s", res.Mode, ModeCreate)
	}
	if len(res.Aliases) != 2 || res.Aliases[1] != "newsite.com" {
		t.Fatalf("aliases after patch: %v", res.Aliases)
	}
}

func TestReconcile_SubdomainAbsent_PatchFallsBackToPost(t *testing.T) {
	f := &fakeProvider{t: t, site: site{ID: "site-1"}}
	c, _ := newTestClient(t, f)

	res, err := c.Reconcile(context.Background(), "site-1", "blog.example.com")
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if res.Mode != ModeCreate {
		t.Fatalf("mode = %s, want %s", res.Mode, ModeCreate)
	}

	want := []call{
		{"GET", "/sites/site-1/domains"},
		{"PATCH", "/sites/site-1/domains/blog.example.com"},
		{"POST", "/sites/site-1/domains"},
	}
	if len(f.calls) != len(want) {
		t.Fatalf("calls = %+v", f.calls)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, f.calls[i], want[i])
		}
	}
}

func TestReconcile_SubdomainPresent_PatchUpdates(t *testing.T) {
	f := &fakeProvider{t: t,
		site:    site{ID: "site-1"},
		domains: []domainRecord{{Name: "blog.example.com"}}}
	c, _ := newTestClient(t, f)

	res, err := c.Reconcile(context.Background(), "site-1", "blog.example.com")
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if res.Mode != ModeUpdate {
		t.Fatalf("mode = %s, want %s", res.Mode, ModeUpdate)
	}
}

func TestUpdateSubdomain_PatchFallsBackToPost(t *testing.T) {
	f := &fakeProvider{t: t, site: site{ID: "site-1"}}
	c, _ := newTestClient(t, f)

	raw, err := c.UpdateSubdomain(context.Background(), "site-1", "blog.example.com",
		map[string]any{"https_enabled": true})
	if err != nil {
		t.Fatalf("UpdateSubdomain error: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("raw body not JSON: %s", raw)
	}

	want := []call{
		{"PATCH", "/sites/site-1/domains/blog.example.com"},
		{"POST", "/sites/site-1/domains"},
	}
	if len(f.calls) != len(want) {
		t.Fatalf("calls = %+v", f.calls)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, f.calls[i], want[i])
		}
	}
	if len(f.domains) != 1 || f.domains[0].Name != "blog.example.com" {
		t.Fatalf("created domains = %+v", f.domains)
	}
}

func TestUpdateSubdomain_ExistingResourcePatchesInPlace(t *testing.T) {
	f := &fakeProvider{t: t,
		site:    site{ID: "site-1"},
		domains: []domainRecord{{Name: "blog.example.com"}}}
	c, _ := newTestClient(t, f)

	if _, err := c.UpdateSubdomain(context.Background(), "site-1", "blog.example.com", nil); err != nil {
		t.Fatalf("UpdateSubdomain error: %v", err)
	}
	if len(f.calls) != 1 || f.calls[0].method != "PATCH" {
		t.Fatalf("calls = %+v, want single PATCH", f.calls)
	}
}

func TestUpdateSubdomain_RejectsApex(t *testing.T) {
	f := &fakeProvider{t: t}
	c, _ := newTestClient(t, f)

	_, err := c.UpdateSubdomain(context.Background(), "site-1", "example.com", nil)
	if !fault.IsKind(err, fault.KindValidation) {
		t.Fatalf("want validation error for apex, got %v", err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("provider called for apex host: %+v", f.calls)
	}
}

func TestSyncAliases_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var patches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/sites/site-1":
			json.NewEncoder(w).Encode(site{ID: "site-1", DomainAliases: []string{"old.net"}})
		case r.Method == "PATCH" && r.URL.Path == "/sites/site-1":
			patches++
			if patches < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"message": "upstream hiccup"})
				return
			}
			json.NewEncoder(w).Encode(site{ID: "site-1",
				DomainAliases: []string{"old.net", "one.com", "two.com"}})
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "test-token", srv.Client())

	added, err := c.SyncAliases(context.Background(), "site-1",
		[]string{"one.com", "two.com", "old.net", "not a domain"})
	if err != nil {
		t.Fatalf("SyncAliases error: %v", err)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2 (duplicate and malformed hosts skipped)", added)
	}
	if patches != 3 {
		t.Fatalf("PATCH attempts = %d, want 3 (two 500s retried)", patches)
	}
}

func TestSyncAliases_DoesNotRetryValidationErrors(t *testing.T) {
	var patches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/sites/site-1":
			json.NewEncoder(w).Encode(site{ID: "site-1"})
		case r.Method == "PATCH" && r.URL.Path == "/sites/site-1":
			patches++
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"message": "alias rejected"})
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "test-token", srv.Client())

	_, err := c.SyncAliases(context.Background(), "site-1", []string{"one.com"})
	if !fault.IsKind(err, fault.KindUpstream) {
		t.Fatalf("want upstream error, got %v", err)
	}
	if patches != 1 {
		t.Fatalf("PATCH attempts = %d, want 1 (422 must not be retried)", patches)
	}
}

func TestSyncAliases_NothingToAddSkipsPatch(t *testing.T) {
	f := &fakeProvider{t: t, site: site{
		ID:            "site-1",
		CustomDomain:  "example.com",
		DomainAliases: []string{"one.com"},
	}}
	c, _ := newTestClient(t, f)

	added, err := c.SyncAliases(context.Background(), "site-1",
		[]string{"https://WWW.One.com/", "example.com"})
	if err != nil {
		t.Fatalf("SyncAliases error: %v", err)
	}
	if added != 0 {
		t.Fatalf("added = %d, want 0", added)
	}
	for _, cl := range f.calls {
		if cl.method != "GET" {
			t.Fatalf("mutating call with nothing to add: %+v", cl)
		}
	}
}

func TestReconcile_InvalidHostNeverReachesProvider(t *testing.T) {
	f := &fakeProvider{t: t}
	c, _ := newTestClient(t, f)

	_, err := c.Reconcile(context.Background(), "site-1", "not a domain")
	if !fault.IsKind(err, fault.KindValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("provider called with unvalidated host: %+v", f.calls)
	}
}

func TestReconcile_UpstreamAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "Access token invalid"})
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "bad-token", srv.Client())

	_, err := c.Reconcile(context.Background(), "site-1", "example.com")
	var fe *fault.Error
	if !errors.As(err, &fe) || fe.Status != 401 || fe.Remedy != fault.RemedyAuth {
		t.Fatalf("want 401 auth upstream error, got %v", err)
	}
	if fe.Msg != "Access token invalid" {
		t.Fatalf("provider message not preserved: %q", fe.Msg)
	}
}
