package contacts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// ESI limits for the character contact write endpoints
const (
	// MaxIDsPerDelete is the maximum number of contact ids accepted by
	// one DELETE /characters/{id}/contacts/ call
	MaxIDsPerDelete = 20

	// MaxIDsPerPost is the maximum number of contact ids accepted by
	// one POST /characters/{id}/contacts/ call
	MaxIDsPerPost = 100
)

// Contact represents one entry of a contact list as returned by ESI
type Contact struct {
	ContactID   int64   `json:"contact_id"`
	ContactType string  `json:"contact_type"` // character, corporation, alliance, faction
	Standing    float64 `json:"standing"`
	LabelIDs    []int64 `json:"label_ids,omitempty"`
	IsWatched   bool    `json:"is_watched,omitempty"`
	IsBlocked   bool    `json:"is_blocked,omitempty"`
}

// Client interface for contact list ESI operations
type Client interface {
	AllianceContacts(ctx context.Context, allianceID int64, token string) ([]Contact, error)
	CorporationContacts(ctx context.Context, corporationID int64, token string) ([]Contact, error)
	CharacterContacts(ctx context.Context, characterID int64, token string) ([]Contact, error)
	DeleteCharacterContacts(ctx context.Context, characterID int64, contactIDs []int64, token string) error
	PostCharacterContacts(ctx context.Context, characterID int64, contactIDs []int64, standing float64, token string) error
}

// RetryClient interface for retry operations
type RetryClient interface {
	DoWithRetry(ctx context.Context, req *http.Request, maxRetries int) (*http.Response, error)
}

// ContactsClient implements contact list ESI operations.
// Contact reads are always performed against live data (no response
// cache): a stale list fed into the version hash would mask changes.
type ContactsClient struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	retryClient RetryClient
}

// NewContactsClient creates a new contacts client
func NewContactsClient(httpClient *http.Client, baseURL, userAgent string, retryClient RetryClient) Client {
	return &ContactsClient{
		httpClient:  httpClient,
		baseURL:     baseURL,
		userAgent:   userAgent,
		retryClient: retryClient,
	}
}

// AllianceContacts retrieves the full contact list of an alliance, following all pages
func (c *ContactsClient) AllianceContacts(ctx context.Context, allianceID int64, token string) ([]Contact, error) {
	endpoint := fmt.Sprintf("/latest/alliances/%d/contacts/", allianceID)
	return c.paginatedContacts(ctx, endpoint, token)
}

// CorporationContacts retrieves the full contact list of a corporation, following all pages
func (c *ContactsClient) CorporationContacts(ctx context.Context, corporationID int64, token string) ([]Contact, error) {
	endpoint := fmt.Sprintf("/latest/corporations/%d/contacts/", corporationID)
	return c.paginatedContacts(ctx, endpoint, token)
}

// CharacterContacts retrieves the full contact list of a character, following all pages
func (c *ContactsClient) CharacterContacts(ctx context.Context, characterID int64, token string) ([]Contact, error) {
	endpoint := fmt.Sprintf("/latest/characters/%d/contacts/", characterID)
	return c.paginatedContacts(ctx, endpoint, token)
}

// paginatedContacts fetches every page of a contact list endpoint
// sequentially before returning the combined result
func (c *ContactsClient) paginatedContacts(ctx context.Context, endpoint, token string) ([]Contact, error) {
	var all []Contact

	page := 1
	for {
		pageContacts, pages, err := c.contactsPage(ctx, endpoint, token, page)
		if err != nil {
			return nil, err
		}
		all = append(all, pageContacts...)

		if page >= pages {
			break
		}
		page++
	}

	slog.DebugContext(ctx, "Fetched contact list from ESI",
		"endpoint", endpoint,
		"contacts", len(all))

	return all, nil
}

// contactsPage fetches a single page and reports the total page count
// from the X-Pages response header
func (c *ContactsClient) contactsPage(ctx context.Context, endpoint, token string, page int) ([]Contact, int, error) {
	url := fmt.Sprintf("%s%s?page=%d", c.baseURL, endpoint, page)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	c.setCommonHeaders(req, token)

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to call ESI contacts endpoint", "endpoint", endpoint, "page", page, "error", err)
		return nil, 0, fmt.Errorf("failed to call ESI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "ESI contacts endpoint returned error",
			"endpoint", endpoint,
			"page", page,
			"status_code", resp.StatusCode)
		return nil, 0, fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	var contacts []Contact
	if err := json.Unmarshal(body, &contacts); err != nil {
		return nil, 0, fmt.Errorf("failed to parse response: %w", err)
	}

	pages := 1
	if pagesStr := resp.Header.Get("X-Pages"); pagesStr != "" {
		if parsed, err := strconv.Atoi(pagesStr); err == nil && parsed > 0 {
			pages = parsed
		}
	}

	return contacts, pages, nil
}

// DeleteCharacterContacts deletes one batch of contacts from a character's
// contact list. The batch must not exceed MaxIDsPerDelete ids.
func (c *ContactsClient) DeleteCharacterContacts(ctx context.Context, characterID int64, contactIDs []int64, token string) error {
	if len(contactIDs) == 0 {
		return nil
	}
	if len(contactIDs) > MaxIDsPerDelete {
		return fmt.Errorf("too many contact ids for one delete call: %d > %d", len(contactIDs), MaxIDsPerDelete)
	}

	url := fmt.Sprintf("%s/latest/characters/%d/contacts/?contact_ids=%s",
		c.baseURL, characterID, joinIDs(contactIDs))

	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setCommonHeaders(req, token)

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to delete character contacts", "character_id", characterID, "error", err)
		return fmt.Errorf("failed to call ESI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "ESI contact delete returned error",
			"character_id", characterID,
			"status_code", resp.StatusCode)
		return fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	return nil
}

// PostCharacterContacts creates one batch of contacts with a single
// standing value. The batch must not exceed MaxIDsPerPost ids.
func (c *ContactsClient) PostCharacterContacts(ctx context.Context, characterID int64, contactIDs []int64, standing float64, token string) error {
	if len(contactIDs) == 0 {
		return nil
	}
	if len(contactIDs) > MaxIDsPerPost {
		return fmt.Errorf("too many contact ids for one post call: %d > %d", len(contactIDs), MaxIDsPerPost)
	}

	payload, err := json.Marshal(contactIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal contact ids: %w", err)
	}

	url := fmt.Sprintf("%s/latest/characters/%d/contacts/?standing=%s",
		c.baseURL, characterID, strconv.FormatFloat(standing, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setCommonHeaders(req, token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.retryClient.DoWithRetry(ctx, req, 3)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to post character contacts", "character_id", characterID, "error", err)
		return fmt.Errorf("failed to call ESI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "ESI contact post returned error",
			"character_id", characterID,
			"status_code", resp.StatusCode)
		return fmt.Errorf("ESI returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *ContactsClient) setCommonHeaders(req *http.Request, token string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
