package marketapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
)

// response is a completed HTTP exchange with status < 400.
type response struct {
	status int
	body   []byte
}

func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Language", c.language)
	req.Header.Set("Platform", c.platform)
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// do performs one attempt. The returned string is the Retry-After header of
// an error response.
func (c *Client) do(req *http.Request) (*response, string, error) {
	url := req.URL.String()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		return nil, resp.Header.Get("Retry-After"), &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       preview(body),
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	return &response{status: resp.StatusCode, body: body}, "", nil
}

// get performs a GET through the pacing gate, retrying per the client's policy.
func (c *Client) get(ctx context.Context, url string) (*response, error) {
	req, err := c.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	attempts := c.retry.attempts()
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.gate.Wait(ctx); err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}

		resp, retryAfter, err := c.do(req)
		c.gate.Done()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		status, transportErr := 0, err
		var fe *FetchError
		if errors.As(err, &fe) {
			status, transportErr = fe.StatusCode, fe.Err
			if status != 0 {
				transportErr = nil
			}
		}
		if attempt+1 >= attempts || !shouldRetry(ctx, status, transportErr) {
			break
		}

		wait := c.retry.backoff(attempt, retryAfter)
		log.Printf("[MarketAPI] GET %s failed (attempt %d/%d): %v; retrying in %v",
			url, attempt+1, attempts, err, wait)
		if err := sleepContext(ctx, wait); err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}
	}

	return nil, lastErr
}

// getJSON performs a GET and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.body, v); err != nil {
		return &FetchError{
			URL:        url,
			StatusCode: resp.status,
			Body:       preview(resp.body),
			Err:        fmt.Errorf("unmarshal response: %w", err),
		}
	}
	return nil
}
