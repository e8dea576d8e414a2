// internal/alias/client.go
//
// HTTP client for the hosting provider's domain API.
//
// Context
// -------
// The provider exposes two overlapping surfaces for attaching a hostname to
// a site: a per-domain collection (`/sites/{id}/domains`) used for
// subdomains, and the site record's `domain_aliases` list used for apex
// domains.  This file holds the transport plumbing; the reconciliation
// decision tree lives in reconcile.go.
//
// Every response body is read exactly once, into memory, before any JSON
// decoding.  Non-2xx bodies may carry `{"message": ...}`; that message is
// preserved verbatim through fault.FromStatus so the UI can show the
// provider's literal error.
//
// Notes
// -----
// • Bearer token and base URL come from configuration at construction time;
//   no ambient process-wide state is read here.
// • Oxford commas, two spaces after periods.

package alias

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yanizio/pressroom/internal/fault"
)

// DefaultBaseURL is the provider's production API root.
const DefaultBaseURL = "https://api.netlify.com/api/v1"

// Client is safe for concurrent use.  Zero value is invalid; construct with
// NewClient.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// NewClient builds a Client.  An empty baseURL selects DefaultBaseURL, and
// a nil httpClient gets a 15-second-timeout default.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: baseURL, token: token, http: httpClient}
}

// site mirrors the subset of the provider's site record we touch.
type site struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	SSLURL        string   `json:"ssl_url"`
	CustomDomain  string   `json:"custom_domain"`
	DomainAliases []string `json:"domain_aliases"`
}

// domainRecord mirrors one entry of the per-site domain collection.
type domainRecord struct {
	Name string `json:"name"`
}

// providerError is the provider's non-2xx body shape.
type providerError struct {
	Message string `json:"message"`
}

// do issues one request and decodes a 2xx JSON body into out (when out is
// non-nil).  Non-2xx statuses become fault errors; network failures become
// fault.Transport.  The raw body is returned for callers that need to
// forward provider JSON verbatim (the ops CLI).
func (c *Client) do(ctx context.Context, method, path string, payload, out any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fault.Transport(err)
	}
	defer resp.Body.Close()

	// Read exactly once; all decoding below works off this copy.
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fault.Transport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		var pe providerError
		if json.Unmarshal(raw, &pe) == nil && pe.Message != "" {
			msg = pe.Message
		} else if len(raw) > 0 {
			msg = string(raw)
		}
		return raw, fault.FromStatus(resp.StatusCode, msg)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return raw, nil
}

// getSite fetches the site record.
func (c *Client) getSite(ctx context.Context, siteID string) (*site, error) {
	var s site
	if _, err := c.do(ctx, http.MethodGet, "/sites/"+siteID, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// listDomains fetches the per-site domain collection.
func (c *Client) listDomains(ctx context.Context, siteID string) ([]domainRecord, error) {
	var recs []domainRecord
	if _, err := c.do(ctx, http.MethodGet, "/sites/"+siteID+"/domains", nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// patchAliases replaces the site's alias list.
func (c *Client) patchAliases(ctx context.Context, siteID string, aliases []string) (*site, error) {
	var s site
	payload := map[string]any{"domain_aliases": aliases}
	if _, err := c.do(ctx, http.MethodPatch, "/sites/"+siteID, payload, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
