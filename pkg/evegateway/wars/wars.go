package wars

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// War represents one war record as returned by ESI
type War struct {
	ID            int64       `json:"id"`
	Declared      time.Time   `json:"declared"`
	Started       *time.Time  `json:"started,omitempty"`
	Finished      *time.Time  `json:"finished,omitempty"`
	Retracted     *time.Time  `json:"retracted,omitempty"`
	Mutual        bool        `json:"mutual"`
	OpenForAllies bool        `json:"open_for_allies"`
	Aggressor     Belligerent `json:"aggressor"`
	Defender      Belligerent `json:"defender"`
	Allies        []Ally      `json:"allies,omitempty"`
}

// Belligerent is one primary war party, either a corporation or an alliance
type Belligerent struct {
	CorporationID *int64  `json:"corporation_id,omitempty"`
	AllianceID    *int64  `json:"alliance_id,omitempty"`
	IskDestroyed  float64 `json:"isk_destroyed"`
	ShipsKilled   int     `json:"ships_killed"`
}

// Ally is one war ally, either a corporation or an alliance
type Ally struct {
	CorporationID *int64 `json:"corporation_id,omitempty"`
	AllianceID    *int64 `json:"alliance_id,omitempty"`
}

// Client interface for war ESI operations
type Client interface {
	GetWarIDs(ctx context.Context) ([]int64, error)
	GetWar(ctx context.Context, warID int64) (*War, error)
}

// CacheManager interface for caching operations
type CacheManager interface {
	Get(key string) ([]byte, bool, error)
	GetForNotModified(key string) ([]byte, bool, error)
	Set(key string, data []byte, headers http.Header) error
	RefreshExpiry(key string, headers http.Header) error
	SetConditionalHeaders(req *http.Request, key string) error
}

// RetryClient interface for retry operations
type RetryClient interface {
	DoWithRetry(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error)
}

// WarsClient implements war ESI operations
type WarsClient struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	cacheManager CacheManager
	retryClient  RetryClient
}

// NewWarsClient creates a new wars client
func NewWarsClient(httpClient *http.Client, baseURL, userAgent string, cacheManager CacheManager, retryClient RetryClient) Client {
	return &WarsClient{
		httpClient:   httpClient,
		baseURL:      baseURL,
		userAgent:    userAgent,
		cacheManager: cacheManager,
		retryClient:  retryClient,
	}
}

// GetWarIDs retrieves the ids of the up to 2000 most recent wars, newest first
func (c *WarsClient) GetWarIDs(ctx context.Context) ([]int64, error) {
	var warIDs []int64
	if err := c.getJSON(ctx, "/latest/wars/", &warIDs); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Fetched war ids from ESI", "count", len(warIDs))
	return warIDs, nil
}

// GetWar retrieves the full detail of one war
func (c *WarsClient) GetWar(ctx context.Context, warID int64) (*War, error) {
	var war War
	endpoint := fmt.Sprintf("/latest/wars/%d/", warID)
	if err := c.getJSON(ctx, endpoint, &war); err != nil {
		return nil, err
	}

	war.ID = warID
	return &war, nil
}

// getJSON performs a cached conditional GET against one ESI endpoint
func (c *WarsClient) getJSON(ctx context.Context, endpoint string, out any) error {
	cacheKey := c.baseURL + endpoint

	if cachedData, found, err := c.cacheManager.Get(cacheKey); err == nil && found {
		if err := json.Unmarshal(cachedData, out); err == nil {
			slog.DebugContext(ctx, "Using cached ESI war data", "endpoint", endpoint)
			return nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	c.cacheManager.SetConditionalHeaders(req, cacheKey)

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to call ESI wars endpoint", "endpoint", endpoint, "error", err)
		return fmt.Errorf("failed to call ESI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		c.cacheManager.RefreshExpiry(cacheKey, resp.Header)

		if cachedData, found, err := c.cacheManager.GetForNotModified(cacheKey); err == nil && found {
			if err := json.Unmarshal(cachedData, out); err != nil {
				return fmt.Errorf("failed to parse cached response: %w", err)
			}
			return nil
		}
		return fmt.Errorf("ESI returned 304 Not Modified but no cached data is available for %s", endpoint)
	}

	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "ESI wars endpoint returned error",
			"endpoint", endpoint,
			"status_code", resp.StatusCode)
		return fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.cacheManager.Set(cacheKey, body, resp.Header)

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
