package universe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// MaxIDsPerNamesRequest is the maximum number of ids accepted by one
// POST /universe/names/ call
const MaxIDsPerNamesRequest = 1000

// Name is one resolved id as returned by /universe/names/
type Name struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"` // character, corporation, alliance, faction, ...
}

// Client interface for universe ESI operations
type Client interface {
	ResolveNames(ctx context.Context, ids []int64) ([]Name, error)
}

// RetryClient interface for retry operations
type RetryClient interface {
	DoWithRetry(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error)
}

// UniverseClient implements universe ESI operations
type UniverseClient struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	retryClient RetryClient
}

// NewUniverseClient creates a new universe client
func NewUniverseClient(httpClient *http.Client, baseURL, userAgent string, retryClient RetryClient) Client {
	return &UniverseClient{
		httpClient:  httpClient,
		baseURL:     baseURL,
		userAgent:   userAgent,
		retryClient: retryClient,
	}
}

// ResolveNames resolves ids to names and categories in batches
func (c *UniverseClient) ResolveNames(ctx context.Context, ids []int64) ([]Name, error) {
	var resolved []Name

	for start := 0; start < len(ids); start += MaxIDsPerNamesRequest {
		end := start + MaxIDsPerNamesRequest
		if end > len(ids) {
			end = len(ids)
		}

		batch, err := c.resolveBatch(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, batch...)
	}

	return resolved, nil
}

func (c *UniverseClient) resolveBatch(ctx context.Context, ids []int64) ([]Name, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ids: %w", err)
	}

	url := c.baseURL + "/latest/universe/names/"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to call ESI names endpoint", "error", err)
		return nil, fmt.Errorf("failed to call ESI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "ESI names endpoint returned error", "status_code", resp.StatusCode)
		return nil, fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var names []Name
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return names, nil
}
