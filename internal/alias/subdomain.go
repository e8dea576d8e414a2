// internal/alias/subdomain.go
//
// Operational helper behind cmd/subdomain.  Applies caller-supplied provider
// settings to one subdomain resource, with the same PATCH-then-POST fallback
// as Reconcile so the command works whether or not the alias exists yet.

package alias

import (
	"context"
	"encoding/json"

	"github.com/yanizio/pressroom/internal/fault"
	"github.com/yanizio/pressroom/internal/hostname"
)

// UpdateSubdomain PATCHes /sites/{id}/domains/{host} with updates, falling
// back to a POST create when the resource is absent.  The provider's raw
// JSON response is returned for the CLI to print verbatim.
func (c *Client) UpdateSubdomain(ctx context.Context, siteID, raw string, updates map[string]any) (json.RawMessage, error) {
	host := hostname.Normalize(raw)
	if err := hostname.Validate(host); err != nil {
		return nil, err
	}
	if hostname.Classify(host) != hostname.KindSubdomain {
		return nil, fault.Validation(host, "not a subdomain")
	}

	body, err := c.do(ctx, "PATCH", "/sites/"+siteID+"/domains/"+host, updates, nil)
	if err == nil {
		return body, nil
	}
	if !fault.IsNotFound(err) {
		return nil, err
	}

	create := map[string]any{"name": host}
	for k, v := range updates {
		create[k] = v
	}
	body, err = c.do(ctx, "POST", "/sites/"+siteID+"/domains", create, nil)
	if err != nil {
		return nil, err
	}
	return body, nil
}
