package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pysugar/hubspot-property-sync/internal/db/models"
	"github.com/pysugar/hubspot-property-sync/internal/hubspot"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotAuthenticated means the customer has no usable HubSpot authorization
	// and must go through /api/install again.
	ErrNotAuthenticated = errors.New("customer has not authorized HubSpot")

	// ErrInvalidPortalID means the account lookup after a token exchange did not
	// yield a numeric portal ID. Nothing is persisted in that case.
	ErrInvalidPortalID = errors.New("the HubSpot portal ID was not a number, there may be an issue with the HubSpot client or access tokens")
)

// Provider hands out access tokens for a customer.
//
// A nil error means the token is usable. ErrNotAuthenticated means the
// customer must authorize first. Any other error is a failure of the
// store or the OAuth exchange. Callers must branch before calling HubSpot.
type Provider interface {
	GetAccessToken(ctx context.Context, customerID string) (string, error)
}

// AccountFetcher resolves the portal behind an access token.
type AccountFetcher interface {
	GetAccountDetails(ctx context.Context, accessToken string) (*hubspot.AccountDetails, error)
}

// Manager persists HubSpot OAuth credentials per customer and refreshes
// them when they expire.
type Manager struct {
	db       *gorm.DB
	oauth    *oauth2.Config
	accounts AccountFetcher
	flights  singleflight.Group
	now      func() time.Time
}

// NewManager creates a new token manager
func NewManager(db *gorm.DB, oauthConfig *oauth2.Config, accounts AccountFetcher) *Manager {
	return &Manager{
		db:       db,
		oauth:    oauthConfig,
		accounts: accounts,
		now:      time.Now,
	}
}

// GetAccessToken returns the stored token while it is unexpired, otherwise
// exchanges the refresh token and stores the result.
func (m *Manager) GetAccessToken(ctx context.Context, customerID string) (string, error) {
	auth, err := m.load(ctx, customerID)
	if err != nil {
		return "", err
	}
	if auth.ExpiresAt.After(m.now()) {
		return auth.AccessToken, nil
	}

	log.Printf("🔄 [OAuth] Access token for customer %s expired at %s, refreshing...", customerID, auth.ExpiresAt.Format(time.RFC3339))
	v, err, _ := m.flights.Do(customerID, func() (any, error) {
		return m.refresh(ctx, customerID)
	})
	if err != nil {
		return "", err
	}
	return v.(*models.Authorization).AccessToken, nil
}

// RedeemCode exchanges an authorization code from the OAuth callback and
// stores the resulting credentials for customerID.
func (m *Manager) RedeemCode(ctx context.Context, customerID, code string) (*models.Authorization, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("there was an issue while exchanging OAuth tokens: %w", err)
	}
	auth, err := m.store(ctx, customerID, tok)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ [OAuth] Authorized customer %s for portal %s", customerID, auth.HSPortalID)
	return auth, nil
}

func (m *Manager) load(ctx context.Context, customerID string) (*models.Authorization, error) {
	var auth models.Authorization
	err := m.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&auth).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("load authorization for customer %s: %w", customerID, err)
	}
	return &auth, nil
}

// refresh runs inside a singleflight call, so concurrent expirations for one
// customer share a single exchange.
func (m *Manager) refresh(ctx context.Context, customerID string) (*models.Authorization, error) {
	// Another flight may have finished between our read and this call.
	current, err := m.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if current.ExpiresAt.After(m.now()) {
		return current, nil
	}
	if current.RefreshToken == "" {
		return nil, ErrNotAuthenticated
	}

	tok, err := m.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
	if err != nil {
		if isPermanentRefreshError(err) {
			log.Printf("🔒 [OAuth] Refresh token for customer %s was rejected, re-authorization required: %v", customerID, err)
			return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		return nil, fmt.Errorf("there was an issue refreshing the access token for customer %s: %w", customerID, err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = current.RefreshToken
	} else if tok.RefreshToken != current.RefreshToken {
		log.Printf("🔄 [OAuth] Rotating refresh token for customer %s", customerID)
	}

	auth, err := m.store(ctx, customerID, tok)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ [OAuth] Refreshed token for customer %s (expires: %s)", customerID, auth.ExpiresAt.Format(time.RFC3339))
	return auth, nil
}

// store resolves the portal ID and upserts the credentials keyed by customer.
func (m *Manager) store(ctx context.Context, customerID string, tok *oauth2.Token) (*models.Authorization, error) {
	now := m.now()
	expiresIn := expiresInSeconds(tok, now)

	portalID, err := m.portalID(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	auth := models.Authorization{
		CustomerID:   customerID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
		ExpiresAt:    now.Add(time.Duration(expiresIn) * time.Second),
		HSPortalID:   portalID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = m.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_token", "refresh_token", "expires_in", "expires_at", "hs_portal_id", "updated_at",
			}),
		}).
		Create(&auth).Error
	if err != nil {
		return nil, fmt.Errorf("there was an issue upserting the auth token info for customer %s: %w", customerID, err)
	}
	return m.load(ctx, customerID)
}

func (m *Manager) portalID(ctx context.Context, accessToken string) (string, error) {
	details, err := m.accounts.GetAccountDetails(ctx, accessToken)
	if err != nil {
		return "", fmt.Errorf("%w: account lookup failed: %w", ErrInvalidPortalID, err)
	}
	id, ok := portalIDString(details.PortalID)
	if !ok {
		return "", fmt.Errorf("%w: got %#v", ErrInvalidPortalID, details.PortalID)
	}
	return id, nil
}

func portalIDString(v any) (string, bool) {
	switch id := v.(type) {
	case float64:
		if id <= 0 || id != math.Trunc(id) || id > math.MaxInt64 {
			return "", false
		}
		return strconv.FormatInt(int64(id), 10), true
	case json.Number:
		n, err := id.Int64()
		if err != nil || n <= 0 {
			return "", false
		}
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}

// expiresInSeconds prefers the expires_in the token endpoint sent and falls
// back to the expiry oauth2 derived from it.
func expiresInSeconds(tok *oauth2.Token, now time.Time) int64 {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	if tok.Expiry.IsZero() {
		return 0
	}
	return int64(tok.Expiry.Sub(now).Round(time.Second) / time.Second)
}

func isPermanentRefreshError(err error) bool {
	if err == nil {
		return false
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch retrieveErr.ErrorCode {
		case "invalid_grant", "invalid_client", "unauthorized_client":
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"invalid_grant", "bad_refresh_token", "revoked"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
