package enrichment

import (
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"solmeme-pipeline/internal/exchange"
	"solmeme-pipeline/pkg/retry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPProvider is a generic JSON-over-HTTP provider, grounded on the
// teacher's internal/exchange/httpclient.go shared *http.Client plus
// pkg/retry.DoWithResult for transient-failure retry. Decode turns a
// successfully-fetched response body into one of the domain Fragment
// types; any HTTP/network error is surfaced to the caller for failure
// classification rather than handled here.
type HTTPProvider struct {
	ProviderName string
	URLTemplate  string // must contain exactly one %s for the address
	Decode       func(body []byte) (interface{}, error)
	RetryConfig  retry.Config
}

func (p *HTTPProvider) Name() string { return p.ProviderName }

func (p *HTTPProvider) Fetch(ctx context.Context, address string) (interface{}, error) {
	url := fmt.Sprintf(p.URLTemplate, address)

	body, err := retry.DoWithResult(ctx, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, retry.Permanent(err)
		}
		resp, err := exchange.GetGlobalHTTPClient().Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, retry.Permanent(&RateLimitedError{Provider: p.ProviderName})
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, retry.Permanent(&AuthError{Provider: p.ProviderName, Status: resp.StatusCode})
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s: unexpected status %d", p.ProviderName, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}, p.RetryConfig)
	if err != nil {
		return nil, err
	}

	frag, err := p.Decode(body)
	if err != nil {
		return nil, &DecodeError{Provider: p.ProviderName, Cause: err}
	}
	return frag, nil
}

// RateLimitedError marks a provider 429 response.
type RateLimitedError struct{ Provider string }

func (e *RateLimitedError) Error() string { return e.Provider + ": rate limited (429)" }

// AuthError marks a provider 401/403 response.
type AuthError struct {
	Provider string
	Status   int
}

func (e *AuthError) Error() string { return fmt.Sprintf("%s: auth error (%d)", e.Provider, e.Status) }

// DecodeError marks a response body that failed the Decode func.
type DecodeError struct {
	Provider string
	Cause    error
}

func (e *DecodeError) Error() string { return e.Provider + ": decode error: " + e.Cause.Error() }
func (e *DecodeError) Unwrap() error { return e.Cause }
