package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-standings/internal/auth/models"
	"go-standings/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// Sentinel errors of the token store. Callers map these onto their own
// error taxonomy.
var (
	ErrTokenInvalid = errors.New("no valid token with required scopes")
	ErrTokenExpired = errors.New("token expired and could not be refreshed")
)

const ssoTokenURL = "https://login.eveonline.com/v2/oauth/token"

// TokenStorage is the persistence surface the token service needs
type TokenStorage interface {
	GetToken(ctx context.Context, userID string, characterID int64) (*models.Token, error)
	SaveToken(ctx context.Context, token *models.Token) error
}

// TokenService hands out valid ESI access tokens, refreshing them
// through the EVE SSO when they have expired
type TokenService struct {
	storage      TokenStorage
	httpClient   *http.Client
	clientID     string
	clientSecret string
}

// NewTokenService creates a new token service
func NewTokenService(storage TokenStorage) *TokenService {
	return &TokenService{
		storage:      storage,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     config.GetEnv("EVE_CLIENT_ID", ""),
		clientSecret: config.GetEnv("EVE_CLIENT_SECRET", ""),
	}
}

// ValidToken returns an access token for the character that is valid and
// covers all required scopes. Returns ErrTokenInvalid when no usable
// token exists and ErrTokenExpired when the token expired and refreshing
// it failed.
func (s *TokenService) ValidToken(ctx context.Context, userID string, characterID int64, scopes ...string) (string, error) {
	token, err := s.storage.GetToken(ctx, userID, characterID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrTokenInvalid
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}

	if !token.Valid || !token.HasScopes(scopes...) {
		return "", ErrTokenInvalid
	}

	if s.expiresSoon(token) {
		if token.RefreshToken == "" {
			return "", ErrTokenExpired
		}

		if err := s.refresh(ctx, token); err != nil {
			if errors.Is(err, ErrTokenInvalid) {
				return "", ErrTokenInvalid
			}
			slog.WarnContext(ctx, "Token refresh failed",
				"character_id", characterID,
				"error", err)
			return "", ErrTokenExpired
		}
	}

	return token.AccessToken, nil
}

// expiresSoon reports whether the access token needs a refresh. A small
// margin avoids handing out tokens that expire mid-operation.
func (s *TokenService) expiresSoon(token *models.Token) bool {
	expiresAt := token.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = accessTokenExpiry(token.AccessToken)
	}
	return expiresAt.Before(time.Now().Add(1 * time.Minute))
}

// accessTokenExpiry extracts the expiry claim from an ESI JWT access
// token without verifying its signature. Verification happens at the SSO,
// we only need the timestamp.
func accessTokenExpiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}

	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return time.Time{}
	}
	return expiresAt.Time
}

// refresh exchanges the refresh token for a new access token at the EVE
// SSO and persists the result. A rejected refresh token marks the stored
// token invalid and returns ErrTokenInvalid.
func (s *TokenService) refresh(ctx context.Context, token *models.Token) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, "POST", ssoTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call SSO: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		// Refresh token revoked or consent withdrawn
		token.Valid = false
		if err := s.storage.SaveToken(ctx, token); err != nil {
			slog.ErrorContext(ctx, "Failed to mark token invalid", "character_id", token.CharacterID, "error", err)
		}
		return ErrTokenInvalid
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SSO returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read SSO response: %w", err)
	}

	var ssoResp models.SSOTokenResponse
	if err := json.Unmarshal(body, &ssoResp); err != nil {
		return fmt.Errorf("failed to parse SSO response: %w", err)
	}

	token.AccessToken = ssoResp.AccessToken
	token.ExpiresAt = time.Now().Add(time.Duration(ssoResp.ExpiresIn) * time.Second)
	if ssoResp.RefreshToken != "" {
		token.RefreshToken = ssoResp.RefreshToken
	}

	if err := s.storage.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("failed to store refreshed token: %w", err)
	}

	slog.InfoContext(ctx, "Refreshed ESI token", "character_id", token.CharacterID)
	return nil
}
