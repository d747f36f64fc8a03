package evegateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"go-standings/pkg/config"
	"go-standings/pkg/database"
	"go-standings/pkg/evegateway/contacts"
	"go-standings/pkg/evegateway/status"
	"go-standings/pkg/evegateway/universe"
	"go-standings/pkg/evegateway/wars"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultBaseURL = "https://esi.evetech.net"

// Client represents an EVE Online ESI client with all category clients
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	cacheManager CacheManager
	retryClient  RetryClient
	errorLimits  *ESIErrorLimits

	// Category clients
	Status   status.Client
	Contacts contacts.Client
	Wars     wars.Client
	Universe universe.Client
}

// NewClient creates a new EVE Online ESI client.
// When redis is non-nil, ESI responses are cached there, otherwise an
// in-memory cache is used.
func NewClient(redis *database.Redis) *Client {
	var transport http.RoundTripper = http.DefaultTransport

	// Only add OpenTelemetry instrumentation if telemetry is enabled
	if config.GetBoolEnv("ENABLE_TELEMETRY", false) {
		transport = otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Host)
			}),
		)
	}

	// ESI-compliant User-Agent header with contact information
	userAgent := config.GetEnv("ESI_USER_AGENT", "go-standings/1.0.0 contact@example.com")

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}

	var cacheManager CacheManager
	if redis != nil {
		cacheManager = NewRedisCacheManager(redis)
	} else {
		cacheManager = NewDefaultCacheManager()
	}

	errorLimits := &ESIErrorLimits{}
	limitsMutex := &sync.RWMutex{}
	retryClient := NewDefaultRetryClient(httpClient, errorLimits, limitsMutex)

	return &Client{
		httpClient:   httpClient,
		baseURL:      defaultBaseURL,
		userAgent:    userAgent,
		cacheManager: cacheManager,
		retryClient:  retryClient,
		errorLimits:  errorLimits,
		Status:       status.NewStatusClient(httpClient, defaultBaseURL, userAgent, cacheManager, retryClient),
		Contacts:     contacts.NewContactsClient(httpClient, defaultBaseURL, userAgent, retryClient),
		Wars:         wars.NewWarsClient(httpClient, defaultBaseURL, userAgent, cacheManager, retryClient),
		Universe:     universe.NewUniverseClient(httpClient, defaultBaseURL, userAgent, retryClient),
	}
}

// HTTPClient returns the underlying HTTP client for advanced usage
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// ErrorLimits returns a copy of the current ESI error limit state
func (c *Client) ErrorLimits() ESIErrorLimits {
	return *c.errorLimits
}
