// Package hubspot is a small client for the HubSpot CRM properties and account APIs.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/pysugar/hubspot-property-sync/internal/util"
)

// DefaultBaseURL is the production CRM API host.
const DefaultBaseURL = "https://api.hubapi.com"

// Client talks to the CRM API. The access token is passed per call, so one
// Client is shared by all customers.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the API host this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetAllProperties lists every property of objectType ("contacts", "companies").
func (c *Client) GetAllProperties(ctx context.Context, accessToken, objectType string) ([]Property, error) {
	var out collectionResponse[Property]
	if err := c.do(ctx, accessToken, http.MethodGet, propertiesPath(objectType), nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GetProperty reads one property by name.
func (c *Client) GetProperty(ctx context.Context, accessToken, objectType, name string) (*Property, error) {
	var out Property
	if err := c.do(ctx, accessToken, http.MethodGet, propertiesPath(objectType)+"/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProperty creates a property on objectType.
func (c *Client) CreateProperty(ctx context.Context, accessToken, objectType string, p PropertyCreate) (*Property, error) {
	var out Property
	if err := c.do(ctx, accessToken, http.MethodPost, propertiesPath(objectType), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPropertyGroup reads one property group by name.
func (c *Client) GetPropertyGroup(ctx context.Context, accessToken, objectType, name string) (*PropertyGroup, error) {
	var out PropertyGroup
	if err := c.do(ctx, accessToken, http.MethodGet, propertiesPath(objectType)+"/groups/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePropertyGroup creates a property group on objectType.
func (c *Client) CreatePropertyGroup(ctx context.Context, accessToken, objectType string, g PropertyGroupCreate) (*PropertyGroup, error) {
	var out PropertyGroup
	if err := c.do(ctx, accessToken, http.MethodPost, propertiesPath(objectType)+"/groups", g, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccountDetails returns the portal behind accessToken.
func (c *Client) GetAccountDetails(ctx context.Context, accessToken string) (*AccountDetails, error) {
	var out AccountDetails
	if err := c.do(ctx, accessToken, http.MethodGet, "/account-info/v3/details", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func propertiesPath(objectType string) string {
	return "/crm/v3/properties/" + url.PathEscape(objectType)
}

func (c *Client) do(ctx context.Context, accessToken, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hubapi %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read hubapi %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Path: path}
		if len(respBody) > 0 && json.Unmarshal(respBody, apiErr) != nil {
			apiErr.Message = util.TruncateBytes(respBody)
		}
		if resp.StatusCode != http.StatusNotFound {
			log.Printf("⚠️  [HubSpot] %s %s -> %d: %s", method, path, resp.StatusCode, util.TruncateBytes(respBody))
		}
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode hubapi %s %s: %w", method, path, err)
	}
	return nil
}
