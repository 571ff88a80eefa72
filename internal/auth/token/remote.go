package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pysugar/hubspot-property-sync/internal/util"
)

// RemoteProvider fetches tokens from a separate OAuth service
// (OAUTH_SERVICE_URL) instead of exchanging them locally.
type RemoteProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemoteProvider creates a provider backed by the OAuth service at baseURL.
func NewRemoteProvider(baseURL string) *RemoteProvider {
	return &RemoteProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetAccessToken asks the OAuth service for customerID's token. The service
// answers with the bare token or {"accessToken": "..."}; 401 and 404 mean
// the customer has not authorized.
func (p *RemoteProvider) GetAccessToken(ctx context.Context, customerID string) (string, error) {
	endpoint := p.baseURL + "/api/access-token?customerId=" + url.QueryEscape(customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build oauth service request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oauth service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read oauth service response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		return "", ErrNotAuthenticated
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("oauth service returned %d: %s", resp.StatusCode, util.TruncateBytes(body))
	}

	token := parseTokenBody(body)
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

func parseTokenBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil {
			return payload.AccessToken
		}
		return ""
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
			return s
		}
	}
	return trimmed
}
