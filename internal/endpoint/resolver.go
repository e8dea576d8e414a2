// internal/endpoint/resolver.go
//
// Ordered-candidate resolution of serverless function endpoints.
//
// Context
// -------
// A published site's functions may be reachable through several bases: the
// page's own origin (preferred, no CORS), operator-configured override
// bases, and one hard-coded deployed base on the platform's shared hosting
// subdomain.  Which base actually serves a given function depends on how
// the site was deployed, so the resolver probes the candidates in order
// with the caller's real payload and remembers the first base that answers.
//
// The chosen base is cached per logical function name for the lifetime of
// the Resolver, and discovery runs through singleflight so a burst of
// concurrent calls for the same function shares one probe sequence instead
// of hammering every candidate N times.
//
// Notes
// -----
// • When the origin is a custom domain, candidates on the platform's shared
//   subdomain are dropped up front: browsers on that origin cannot reach
//   them, so a probe that "succeeds" server-side would still hand clients a
//   base they cannot use.
// • Response bodies are read exactly once, before any decode attempt.
// • Oxford commas, two spaces after periods.

package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/pressroom/internal/cache"
	"github.com/yanizio/pressroom/internal/fault"
	"github.com/yanizio/pressroom/internal/metrics"
)

const (
	// DefaultDeployedBase is the platform-hosted fallback base.
	DefaultDeployedBase = "https://pressroom-functions.netlify.app"

	// PlatformSuffix identifies the platform's shared hosting subdomain.
	PlatformSuffix = ".netlify.app"

	// FunctionPathPrefix is where the platform mounts serverless functions.
	FunctionPathPrefix = "/.netlify/functions/"

	defaultProbeTimeout = 10 * time.Second
	baseCacheSize       = 64
)

// Config builds a Resolver.
type Config struct {
	// Origin is the page origin the resolver acts for, e.g.
	// "https://example.com".  Required.
	Origin string

	// OverrideBases are probed after the origin, in order.
	OverrideBases []string

	// DeployedBase overrides DefaultDeployedBase when non-empty.
	DeployedBase string

	// ProbeTimeout bounds each candidate attempt.  Zero selects the
	// default.
	ProbeTimeout time.Duration

	// HTTP is the client used for probes.  Nil gets a default.
	HTTP *http.Client
}

// Outcome reports a successful resolution.
type Outcome struct {
	Base      string          // winning base, "" for same-origin
	URL       string          // full URL that answered
	Body      json.RawMessage // decoded-checked response body
	Attempted []string        // every URL tried, in order
}

// Resolver probes candidates sequentially and caches winners.  Safe for
// concurrent use.
type Resolver struct {
	candidates []string
	timeout    time.Duration
	http       *http.Client
	sfg        singleflight.Group

	mu     sync.Mutex
	chosen *cache.LRU // logical name → base
}

// New constructs a Resolver.  The candidate order is fixed at construction:
// origin, overrides, deployed fallback, duplicates removed.
func New(cfg Config) *Resolver {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	client := cfg.HTTP
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	deployed := cfg.DeployedBase
	if deployed == "" {
		deployed = DefaultDeployedBase
	}

	raw := make([]string, 0, len(cfg.OverrideBases)+2)
	raw = append(raw, strings.TrimRight(cfg.Origin, "/"))
	for _, b := range cfg.OverrideBases {
		raw = append(raw, strings.TrimRight(b, "/"))
	}
	raw = append(raw, strings.TrimRight(deployed, "/"))

	custom := isCustomOrigin(cfg.Origin)
	seen := make(map[string]struct{}, len(raw))
	cands := make([]string, 0, len(raw))
	for _, b := range raw {
		if b == "" {
			continue
		}
		if _, dup := seen[b]; dup {
			continue
		}
		if custom && onPlatform(b) {
			continue
		}
		seen[b] = struct{}{}
		cands = append(cands, b)
	}

	return &Resolver{
		candidates: cands,
		timeout:    timeout,
		http:       client,
		chosen:     cache.New(baseCacheSize),
	}
}

// Candidates returns the probe order.  Mostly useful in logs and tests.
func (r *Resolver) Candidates() []string {
	out := make([]string, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Resolve POSTs payload to logical function name, probing candidates until
// one answers.  A cached base is tried first; if it stopped answering, the
// cache entry is dropped and the full sequence runs again.
func (r *Resolver) Resolve(ctx context.Context, name string, payload any) (*Outcome, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if base, ok := r.cachedBase(name); ok {
		out, err := r.post(ctx, base, name, buf)
		if err == nil {
			return out, nil
		}
		r.dropBase(name)
		zap.L().Debug("cached endpoint base stale, reprobing",
			zap.String("function", name),
			zap.String("base", base))
	}

	// singleflight's shared flag is true for every caller in a joined
	// flight, including the one that executed the probe.  The executor's
	// payload already reached the winning base, so only waiters re-send.
	executed := false
	v, err, _ := r.sfg.Do(name, func() (any, error) {
		executed = true
		return r.probe(ctx, name, buf)
	})
	if err != nil {
		return nil, err
	}
	out := v.(*Outcome)
	r.storeBase(name, out.Base)

	if !executed {
		// The probe carried another caller's payload; its body answers
		// that payload, not ours.  Re-send ours to the discovered base.
		return r.post(ctx, out.Base, name, buf)
	}
	return out, nil
}

// probe walks the candidate list with the real payload.  First 2xx response
// with a parseable JSON body wins; every other outcome moves to the next
// candidate.
func (r *Resolver) probe(ctx context.Context, name string, body []byte) (*Outcome, error) {
	var (
		attempted []string
		lastErr   error
	)
	for _, base := range r.candidates {
		out, err := r.post(ctx, base, name, body)
		if err == nil {
			out.Attempted = append(attempted, out.URL)
			return out, nil
		}
		attempted = append(attempted, base+FunctionPathPrefix+name)
		lastErr = err
		metrics.EndpointProbeFailuresTotal.Inc()
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = fault.NotFound("endpoint " + name)
	}
	return nil, fmt.Errorf("no endpoint answered %q (tried %s): %w",
		name, strings.Join(attempted, ", "), lastErr)
}

// post issues one attempt against a single base.
func (r *Resolver) post(ctx context.Context, base, name string, body []byte) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	u := base + FunctionPathPrefix + name
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	metrics.EndpointProbeTotal.Inc()
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fault.Transport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Transport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fault.FromStatus(resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if !json.Valid(raw) {
		return nil, fault.Transport(fmt.Errorf("non-JSON body from %s", u))
	}
	return &Outcome{Base: base, URL: u, Body: raw}, nil
}

func (r *Resolver) cachedBase(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.chosen.Get(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (r *Resolver) storeBase(name, base string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chosen.Add(name, base)
}

func (r *Resolver) dropBase(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chosen.Remove(name)
}

// isCustomOrigin reports whether origin is neither the platform's shared
// subdomain nor local development.
func isCustomOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		return false
	}
	return !strings.HasSuffix(host, PlatformSuffix)
}

// onPlatform reports whether base lives on the shared hosting subdomain.
func onPlatform(base string) bool {
	u, err := url.Parse(base)
	if err != nil {
		return false
	}
	return strings.HasSuffix(u.Hostname(), PlatformSuffix)
}
