package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sentinel errors for provider failures. Collectors turn these into the
// fixed strings recorded in a result's error list.
var (
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrTimeout       = errors.New("request timeout")
	ErrUnreachable   = errors.New("provider unreachable")
	ErrBadResponse   = errors.New("bad response")
	ErrMissingAPIKey = errors.New("missing api key")
)

// StatusError is a non-2xx reply. It unwraps to ErrRateLimited,
// ErrUnauthorized or ErrBadResponse.
type StatusError struct {
	Kind       error
	Status     int
	RetryAfter string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: status %d", e.Kind, e.Status)
}

func (e *StatusError) Unwrap() error { return e.Kind }

// httpClient is the JSON-over-GET transport shared by every collector.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

// getJSON issues GET base?params and decodes the body into out.
func (c *httpClient) getJSON(ctx context.Context, base string, params url.Values, header http.Header, out any) error {
	u := base
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding body: %v", ErrBadResponse, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		retry := resp.Header.Get("Retry-After")
		if retry == "" {
			retry = "unknown"
		}
		return &StatusError{Kind: ErrRateLimited, Status: resp.StatusCode, RetryAfter: retry}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &StatusError{Kind: ErrUnauthorized, Status: resp.StatusCode}
	default:
		return &StatusError{Kind: ErrBadResponse, Status: resp.StatusCode}
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %s", ErrUnreachable, networkOp(err))
}

// networkOp names the failed network step, e.g. "dial" or "read".
func networkOp(err error) string {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op != "" {
		return opErr.Op
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "lookup"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return strings.ToLower(urlErr.Op)
	}
	return "transport"
}

// describe renders a fetch error as the string recorded in a result.
func describe(err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se) && se.Kind == ErrRateLimited:
		return "Rate limited"
	case errors.As(err, &se):
		return fmt.Sprintf("HTTP %d", se.Status)
	case errors.Is(err, ErrTimeout):
		return "Request timeout"
	case errors.Is(err, ErrUnreachable):
		return "Network error: " + strings.TrimPrefix(err.Error(), ErrUnreachable.Error()+": ")
	case errors.Is(err, ErrBadResponse):
		return "Invalid response body"
	default:
		return "Unexpected error in fetch: " + err.Error()
	}
}

// describeQuery is describe for providers that reject malformed queries
// with 400.
func describeQuery(err error) string {
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusBadRequest {
		return "Invalid query parameters"
	}
	return describe(err)
}
