// Package oauth builds the HubSpot OAuth2 configuration.
package oauth

import (
	"strings"

	"golang.org/x/oauth2"
)

// Scopes the app requests: read and write access to contact and company schemas.
var Scopes = []string{
	"crm.schemas.companies.write",
	"crm.schemas.contacts.write",
	"crm.schemas.companies.read",
	"crm.schemas.contacts.read",
}

// Settings are the inputs of NewConfig.
type Settings struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// AuthURL is the consent page, e.g. https://app.hubspot.com/oauth/authorize.
	AuthURL string
	// APIBase is the CRM API host; the token endpoint lives under it.
	APIBase string
}

// NewConfig returns the oauth2 config for HubSpot.
// HubSpot expects client credentials in the form body, not via basic auth.
func NewConfig(s Settings) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		RedirectURL:  s.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   s.AuthURL,
			TokenURL:  TokenURL(s.APIBase),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// TokenURL is the OAuth token endpoint under apiBase.
func TokenURL(apiBase string) string {
	return strings.TrimRight(apiBase, "/") + "/oauth/v1/token"
}

// AuthorizationURL is where /api/install sends the user. state is echoed
// back on the callback and carries the customer ID.
func AuthorizationURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state)
}
