// internal/alias/reconcile.go
//
// Alias reconciliation against the hosting provider.
//
// Context
// -------
// A caller cannot know in advance whether a hostname is already attached to
// the site, so reconciliation is a decision tree, not a single call:
//
//   subdomain  PATCH the single-domain resource; a 404 there means "alias
//              absent, create it," so fall back to POST on the collection.
//   apex       inspect the site record; if the hostname already is the
//              primary domain or an alias, short-circuit with ModeExists
//              (repeated submissions must not error or duplicate).
//              Otherwise PATCH the record with the alias appended.
//
// Each Reconcile call performs at most one reconciliation attempt.  Network
// and 5xx failures are surfaced, never retried here: a blind retry against
// a possibly-mutated remote resource risks double-alias creation.  The one
// exception is SyncAliases, a bulk repair path whose single merged PATCH is
// idempotent and therefore safe to retry on 429/5xx.

package alias

import (
	"context"
	"errors"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/yanizio/pressroom/internal/fault"
	"github.com/yanizio/pressroom/internal/hostname"
	"github.com/yanizio/pressroom/internal/metrics"
)

// Mode is the outcome of one reconciliation.
type Mode string

const (
	ModeExists Mode = "alias_exists"
	ModeCreate Mode = "alias_create"
	ModeUpdate Mode = "alias_update"
)

// Result reports what Reconcile did.
type Result struct {
	Mode     Mode     `json:"mode"`
	Hostname string   `json:"hostname"`
	Aliases  []string `json:"aliases,omitempty"` // site alias list after the call, apex flow only
}

// Reconcile attaches host to the site identified by siteID, choosing the
// subdomain or apex flow from the hostname's shape.  The raw host is
// normalized and validated first; alias creation on an unvalidated host
// never reaches the provider.
func (c *Client) Reconcile(ctx context.Context, siteID, raw string) (*Result, error) {
	host := hostname.Normalize(raw)
	if err := hostname.Validate(host); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	if hostname.Classify(host) == hostname.KindSubdomain {
		res, err = c.reconcileSubdomain(ctx, siteID, host)
	} else {
		res, err = c.reconcileApex(ctx, siteID, host)
	}
	if err != nil {
		metrics.AliasReconcileErrorsTotal.Inc()
		return nil, err
	}

	metrics.AliasReconcileTotal.WithLabelValues(string(res.Mode)).Inc()
	zap.L().Info("alias reconciled",
		zap.String("host", host),
		zap.String("mode", string(res.Mode)))
	return res, nil
}

// reconcileSubdomain drives the PATCH-then-POST dance on the per-domain
// collection.
func (c *Client) reconcileSubdomain(ctx context.Context, siteID, host string) (*Result, error) {
	recs, err := c.listDomains(ctx, siteID)
	if err != nil {
		return nil, err
	}
	listed := false
	for _, r := range recs {
		if hostname.Normalize(r.Name) == host {
			listed = true
			break
		}
	}

	// Update the single-domain resource.  The provider answers 404 when the
	// alias is absent, which is the signal to create rather than a failure.
	_, err = c.do(ctx, "PATCH", "/sites/"+siteID+"/domains/"+host,
		map[string]any{"name": host}, nil)
	if err == nil {
		if listed {
			return &Result{Mode: ModeUpdate, Hostname: host}, nil
		}
		return &Result{Mode: ModeCreate, Hostname: host}, nil
	}
	if !fault.IsNotFound(err) {
		return nil, err
	}

	zap.L().Debug("domain resource absent, creating",
		zap.String("host", host))
	_, err = c.do(ctx, "POST", "/sites/"+siteID+"/domains",
		map[string]any{"name": host}, nil)
	if err != nil {
		return nil, err
	}
	return &Result{Mode: ModeCreate, Hostname: host}, nil
}

// reconcileApex appends host to the site's alias list unless it is already
// attached.
func (c *Client) reconcileApex(ctx context.Context, siteID, host string) (*Result, error) {
	s, err := c.getSite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	if hostname.Normalize(s.CustomDomain) == host {
		return &Result{Mode: ModeExists, Hostname: host, Aliases: s.DomainAliases}, nil
	}
	for _, a := range s.DomainAliases {
		if hostname.Normalize(a) == host {
			return &Result{Mode: ModeExists, Hostname: host, Aliases: s.DomainAliases}, nil
		}
	}

	updated, err := c.patchAliases(ctx, siteID, append(s.DomainAliases, host))
	if err != nil {
		return nil, err
	}
	return &Result{Mode: ModeCreate, Hostname: host, Aliases: updated.DomainAliases}, nil
}

// Remove detaches host from the site: DELETE the single-domain resource
// first, then fall back to PATCHing the filtered alias list.  Removing a
// host that was never attached succeeds (idempotence at the boundary).
func (c *Client) Remove(ctx context.Context, siteID, raw string) error {
	host := hostname.Normalize(raw)
	if err := hostname.Validate(host); err != nil {
		return err
	}

	if _, err := c.do(ctx, "DELETE", "/sites/"+siteID+"/domains/"+host, nil, nil); err == nil {
		return nil
	} else if !fault.IsNotFound(err) && !fault.IsKind(err, fault.KindUpstream) {
		return err
	}

	s, err := c.getSite(ctx, siteID)
	if err != nil {
		return err
	}
	kept := s.DomainAliases[:0:0]
	for _, a := range s.DomainAliases {
		if hostname.Normalize(a) != host {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(s.DomainAliases) {
		return nil // never attached
	}
	_, err = c.patchAliases(ctx, siteID, kept)
	return err
}

// SyncAliases merges hosts into the site's alias list with one PATCH.  This
// is the bulk repair path used by operators after a provider-side wipe; the
// merged PATCH is idempotent, so transient 429/5xx responses are retried
// with backoff.  Invalid hosts are skipped, not fatal.
func (c *Client) SyncAliases(ctx context.Context, siteID string, hosts []string) (added int, err error) {
	s, err := c.getSite(ctx, siteID)
	if err != nil {
		return 0, err
	}

	have := make(map[string]struct{}, len(s.DomainAliases)+1)
	for _, a := range s.DomainAliases {
		have[hostname.Normalize(a)] = struct{}{}
	}
	if s.CustomDomain != "" {
		have[hostname.Normalize(s.CustomDomain)] = struct{}{}
	}

	next := append([]string(nil), s.DomainAliases...)
	for _, raw := range hosts {
		h := hostname.Normalize(raw)
		if hostname.Validate(h) != nil {
			zap.L().Warn("sync skipping malformed host", zap.String("host", raw))
			continue
		}
		if _, ok := have[h]; ok {
			continue
		}
		have[h] = struct{}{}
		next = append(next, h)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	err = retry.Do(
		func() error {
			_, perr := c.patchAliases(ctx, siteID, next)
			return perr
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.RetryIf(retryableStatus),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return 0, err
	}
	return added, nil
}

// retryableStatus limits the sync retry to rate limits and server errors.
func retryableStatus(err error) bool {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Kind == fault.KindTransport || fe.Status == 429 || fe.Status >= 500
}
