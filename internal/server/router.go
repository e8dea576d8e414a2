// internal/server/router.go
//
// HTTP surface: provisioning, publishing, and the host-based read path.
//
// Context
// -------
// The chi router carries three JSON endpoints plus operational plumbing:
//
//   POST   /domains            – register a hostname and reconcile its alias
//   DELETE /domains/{hostname} – detach a hostname from the provider
//   POST   /ops/alias-sync     – bulk-merge every active tenant's hostname
//                                into the provider's alias list
//   POST   /publish            – run the publishing pipeline for a tenant
//   GET    /posts/{slug}       – fetch a post for the tenant named by Host
//   DELETE /posts/{slug}       – archive a post for the tenant named by Host
//   POST   /functions/{name}   – forward a payload through the endpoint resolver
//   GET    /healthz            – liveness
//   GET    /metrics            – Prometheus
//
// Every handler resolves errors through the fault taxonomy, so a provider
// 401 surfaces as 502 with the provider's literal message and remediation
// category, while a malformed hostname is a plain 400.
//
// Notes
// -----
// • The request-info middleware runs first so debug logs carry UA and IP
//   for every endpoint, including the mutating ones.
// • Oxford commas, two spaces after periods.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/pressroom/internal/alias"
	"github.com/yanizio/pressroom/internal/content"
	"github.com/yanizio/pressroom/internal/endpoint"
	"github.com/yanizio/pressroom/internal/fault"
	"github.com/yanizio/pressroom/internal/hostname"
	"github.com/yanizio/pressroom/internal/middleware"
	"github.com/yanizio/pressroom/internal/requestinfo"
	"github.com/yanizio/pressroom/internal/tenant"
)

// Reconciler is the alias surface the provisioning, removal, and repair
// handlers need.
type Reconciler interface {
	Reconcile(ctx context.Context, siteID, host string) (*alias.Result, error)
	Remove(ctx context.Context, siteID, host string) error
	SyncAliases(ctx context.Context, siteID string, hosts []string) (int, error)
}

// Publisher runs the publishing pipeline.
type Publisher interface {
	Publish(ctx context.Context, tenantID uint64, title, body string) (*content.Post, error)
}

// TenantWriter is the control-plane surface for provisioning and the bulk
// repair path.
type TenantWriter interface {
	Create(ctx context.Context, host string, kind hostname.Kind, themeKey string, ownerID uint64) (uint64, error)
	SetAliasState(ctx context.Context, id uint64, state tenant.AliasState) error
	AllActive(ctx context.Context) ([]tenant.Record, error)
}

// PostStore serves the host-based read path and the archive mutation.
type PostStore interface {
	BySlug(ctx context.Context, tenantID uint64, slug string) (*content.Post, error)
	Archive(ctx context.Context, tenantID, id uint64) error
}

// TenantCache resolves Host headers to tenants.
type TenantCache interface {
	Get(ctx context.Context, host string) (*tenant.Record, error)
	Invalidate(host string)
}

// FunctionResolver probes serverless-function bases and forwards a payload
// to the first one that answers.
type FunctionResolver interface {
	Resolve(ctx context.Context, name string, payload any) (*endpoint.Outcome, error)
}

// Deps collects everything the router needs.
type Deps struct {
	Tenants  TenantWriter
	Cache    TenantCache
	Alias    Reconciler
	SiteID   string
	Pipeline Publisher
	Posts    PostStore
	Funcs    FunctionResolver
}

// Router builds the chi handler chain.
func Router(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.Security)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/domains", d.provisionDomain)
	r.Delete("/domains/{hostname}", d.removeDomain)
	r.Post("/ops/alias-sync", d.syncAliases)
	r.Post("/publish", d.publishPost)
	r.Get("/posts/{slug}", d.postBySlug)
	r.Delete("/posts/{slug}", d.archivePost)
	r.Post("/functions/{name}", d.invokeFunction)

	return r
}

/*──────────────────────────── handlers ─────────────────────────────────────*/

type domainRequest struct {
	Hostname string `json:"hostname"`
	ThemeKey string `json:"theme_key"`
	OwnerID  uint64 `json:"owner_id"`
}

type domainResponse struct {
	TenantID   uint64            `json:"tenant_id"`
	Hostname   string            `json:"hostname"`
	Kind       hostname.Kind     `json:"kind"`
	AliasState tenant.AliasState `json:"alias_state"`
	Mode       alias.Mode        `json:"mode"`
}

// provisionDomain registers a hostname, reconciles it with the provider,
// and records the outcome on the tenant row.
func (d Deps) provisionDomain(w http.ResponseWriter, r *http.Request) {
	var req domainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation(req.Hostname, "malformed request body"))
		return
	}

	host := hostname.Normalize(req.Hostname)
	if err := hostname.Validate(host); err != nil {
		writeError(w, err)
		return
	}
	kind := hostname.Classify(host)

	ctx := r.Context()
	id, err := d.Tenants.Create(ctx, host, kind, req.ThemeKey, req.OwnerID)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := d.Alias.Reconcile(ctx, d.SiteID, host)
	if err != nil {
		// The tenant row survives in the error state so operators can
		// re-run reconciliation without re-registering.
		if serr := d.Tenants.SetAliasState(ctx, id, tenant.StateError); serr != nil {
			zap.S().Errorw("alias state update failed", "tenant_id", id, "err", serr)
		}
		writeError(w, err)
		return
	}

	state := tenant.StateAliasCreated
	if res.Mode == alias.ModeExists {
		state = tenant.StateAliasExists
	}
	if err := d.Tenants.SetAliasState(ctx, id, state); err != nil {
		writeError(w, err)
		return
	}
	d.Cache.Invalidate(host)

	writeJSON(w, http.StatusCreated, domainResponse{
		TenantID:   id,
		Hostname:   host,
		Kind:       kind,
		AliasState: state,
		Mode:       res.Mode,
	})
}

// removeDomain detaches a hostname from the provider and drops the cached
// tenant so the next lookup sees the detached state.  Removing a host that
// was never attached succeeds, mirroring the alias client's idempotence.
func (d Deps) removeDomain(w http.ResponseWriter, r *http.Request) {
	host := hostname.Normalize(chi.URLParam(r, "hostname"))
	if err := hostname.Validate(host); err != nil {
		writeError(w, err)
		return
	}

	if err := d.Alias.Remove(r.Context(), d.SiteID, host); err != nil {
		writeError(w, err)
		return
	}
	d.Cache.Invalidate(host)
	w.WriteHeader(http.StatusNoContent)
}

type syncResponse struct {
	Tenants int `json:"tenants"`
	Added   int `json:"added"`
}

// syncAliases is the bulk repair path: collect every active tenant's
// hostname and merge the lot into the provider's alias list in one call.
// Used after a provider-side wipe leaves the site record missing aliases
// the control plane still knows about.
func (d Deps) syncAliases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenants, err := d.Tenants.AllActive(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	hosts := make([]string, 0, len(tenants))
	for _, t := range tenants {
		hosts = append(hosts, t.Hostname)
	}
	added, err := d.Alias.SyncAliases(ctx, d.SiteID, hosts)
	if err != nil {
		writeError(w, err)
		return
	}

	zap.S().Infow("alias sync complete", "tenants", len(tenants), "added", added)
	writeJSON(w, http.StatusOK, syncResponse{Tenants: len(tenants), Added: added})
}

type publishRequest struct {
	TenantID uint64 `json:"tenant_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// publishPost runs the pipeline and returns the stored post.
func (d Deps) publishPost(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation("", "malformed request body"))
		return
	}
	if req.TenantID == 0 || req.Title == "" {
		writeError(w, fault.Validation(req.Title, "tenant_id and title are required"))
		return
	}

	post, err := d.Pipeline.Publish(r.Context(), req.TenantID, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// postBySlug resolves the tenant from the Host header and serves one post.
func (d Deps) postBySlug(w http.ResponseWriter, r *http.Request) {
	ten, err := d.Cache.Get(r.Context(), r.Host)
	if err != nil {
		writeError(w, err)
		return
	}
	post, err := d.Posts.BySlug(r.Context(), ten.ID, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// archivePost resolves the tenant from the Host header and archives one
// post, the only mutation permitted after creation.
func (d Deps) archivePost(w http.ResponseWriter, r *http.Request) {
	ten, err := d.Cache.Get(r.Context(), r.Host)
	if err != nil {
		writeError(w, err)
		return
	}
	post, err := d.Posts.BySlug(r.Context(), ten.ID, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := d.Posts.Archive(r.Context(), ten.ID, post.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// invokeFunction forwards an arbitrary JSON payload to a serverless
// function through the resolver, so callers never need to know which base
// currently serves it.
func (d Deps) invokeFunction(w http.ResponseWriter, r *http.Request) {
	var payload json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, fault.Validation("", "malformed request body"))
		return
	}

	out, err := d.Funcs.Resolve(r.Context(), chi.URLParam(r, "name"), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}

/*──────────────────────────── JSON helpers ─────────────────────────────────*/

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string `json:"error"`
	Remedy string `json:"remedy,omitempty"`
	Status int    `json:"provider_status,omitempty"`
}

// writeError maps fault kinds onto HTTP statuses.  Upstream errors keep the
// provider's message and remediation category in the body.
func writeError(w http.ResponseWriter, err error) {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		zap.S().Errorw("unclassified handler error", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch fe.Kind {
	case fault.KindValidation:
		status = http.StatusBadRequest
	case fault.KindNotFound:
		status = http.StatusNotFound
	case fault.KindConflict:
		status = http.StatusConflict
	case fault.KindUpstream, fault.KindTransport:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorBody{
		Error:  fe.Msg,
		Remedy: string(fe.Remedy),
		Status: fe.Status,
	})
}
