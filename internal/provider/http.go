package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketboard-updater/internal/model"
)

// HTTPClient implements Client over the provider's JSON API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a provider client with a fixed request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetCurrentListings fetches the live sale offers for an item.
func (c *HTTPClient) GetCurrentListings(ctx context.Context, itemID int, cred model.Credential) (*ListingsResponse, error) {
	var resp ListingsResponse
	url := fmt.Sprintf("%s/market/items/%d", c.baseURL, itemID)
	if err := c.get(ctx, url, cred, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetHistory fetches the transaction history for an item.
func (c *HTTPClient) GetHistory(ctx context.Context, itemID int, cred model.Credential) (*HistoryResponse, error) {
	var resp HistoryResponse
	url := fmt.Sprintf("%s/market/items/%d/history", c.baseURL, itemID)
	if err := c.get(ctx, url, cred, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// get performs one authenticated JSON request. Provider error bodies
// are folded into the returned error text so callers can classify the
// known failure codes.
func (c *HTTPClient) get(ctx context.Context, url string, cred model.Credential, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
