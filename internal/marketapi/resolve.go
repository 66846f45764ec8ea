package marketapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// BuildBaseCandidates derives the ordered base URLs to probe for nominal.
//
// The trimmed nominal base always comes first. A /v1 base is followed by the
// unversioned root and then root/v2; a /v2 base by the root and then root/v1;
// an unversioned base by base/v1 and then base/v2. Duplicates are dropped,
// keeping the first occurrence.
func BuildBaseCandidates(nominal string) []string {
	normalized := strings.TrimSuffix(nominal, "/")

	var candidates []string
	switch {
	case strings.HasSuffix(normalized, "/v1"):
		root := strings.TrimSuffix(normalized, "/v1")
		candidates = []string{normalized, root, root + "/v2"}
	case strings.HasSuffix(normalized, "/v2"):
		root := strings.TrimSuffix(normalized, "/v2")
		candidates = []string{normalized, root, root + "/v1"}
	default:
		candidates = []string{normalized, normalized + "/v1", normalized + "/v2"}
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// NormalizeBase strips the trailing slash the way BuildBaseCandidates does.
func NormalizeBase(nominal string) string {
	return strings.TrimSuffix(nominal, "/")
}

// ResolveBase returns the first candidate base whose /items endpoint answers
// with a non-error status and the expected JSON envelope. Probing is
// sequential and stops at the first success. The accepted catalog is kept
// for the next FetchItems on that base.
func (c *Client) ResolveBase(ctx context.Context, nominal string) (string, error) {
	resErr := &ResolutionError{Nominal: nominal}

	for _, base := range BuildBaseCandidates(nominal) {
		catalog, attempt := c.probe(ctx, base)
		if attempt.Err == nil {
			c.keepCatalog(attempt.URL, catalog)
			return base, nil
		}

		log.Printf("[MarketAPI] Base %s rejected: status=%d err=%v", base, attempt.StatusCode, attempt.Err)
		resErr.Attempts = append(resErr.Attempts, attempt)

		if ctx.Err() != nil {
			break
		}
	}

	return "", resErr
}

func (c *Client) probe(ctx context.Context, base string) (*ItemsResponse, ProbeAttempt) {
	url := base + "/items"
	attempt := ProbeAttempt{Base: base, URL: url}

	var v ItemsResponse
	err := c.getJSON(ctx, url, &v)
	if err == nil && (v.Payload == nil || v.Payload.Items == nil) {
		err = fmt.Errorf("response lacks payload.items")
	}
	if err == nil {
		return &v, attempt
	}

	attempt.Err = err
	var fe *FetchError
	if errors.As(err, &fe) {
		attempt.StatusCode = fe.StatusCode
		attempt.Body = fe.Body
		attempt.Err = fe.Err
	}
	return nil, attempt
}

func (c *Client) keepCatalog(url string, resp *ItemsResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probed = &probedCatalog{url: url, resp: resp}
}

// takeCatalog returns the catalog kept by ResolveBase for url, at most once.
func (c *Client) takeCatalog(url string) (*ItemsResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.probed
	c.probed = nil
	if p == nil || p.url != url {
		return nil, false
	}
	return p.resp, true
}
