package cbs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient talks to the core banking status API over REST.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// compile-time interface check
var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a core banking API client. The timeout bounds the
// whole lookup; the assist pipeline has its own request deadline above this.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchAccountSnapshot fetches the masked netbanking status for a customer.
// Any transport, status, or decode failure is wrapped in ErrLookupFailed.
func (c *HTTPClient) FetchAccountSnapshot(ctx context.Context, customerID string) (*AccountSnapshot, error) {
	endpoint := fmt.Sprintf("%s/customers/%s/netbanking-status", c.baseURL, url.PathEscape(customerID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrLookupFailed, resp.StatusCode)
	}

	var snapshot AccountSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrLookupFailed, err)
	}
	return &snapshot, nil
}
