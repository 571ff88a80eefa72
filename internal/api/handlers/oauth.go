package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/pysugar/hubspot-property-sync/internal/api/middleware"
	"github.com/pysugar/hubspot-property-sync/internal/auth/oauth"
	"github.com/pysugar/hubspot-property-sync/internal/auth/token"
	"github.com/pysugar/hubspot-property-sync/internal/logging"
	"github.com/pysugar/hubspot-property-sync/internal/schema"
)

// Messages the OAuth callback puts in errMessage.
const (
	msgMissingCode    = "Missing authorization code"
	msgExchangeFailed = "There was an issue while exchanging OAuth tokens"
	msgSchemaFailed   = "HubSpot was connected, but the required properties could not be created"
)

// InstallHandler returns the HubSpot authorization URL as plain text. The
// customer ID travels through the consent screen in the state parameter.
func InstallHandler(cfg *oauth2.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := middleware.CustomerID(r.Context())
		writeText(w, http.StatusOK, oauth.AuthorizationURL(cfg, customerID))
	}
}

// OAuthCallbackHandler redeems the authorization code, reconciles the
// portal's schema and redirects to appURL. Every failure redirects to
// /?errMessage=... instead of returning an error body.
func OAuthCallbackHandler(tokens CodeRedeemer, setup SchemaSetup, appURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID := r.URL.Query().Get("state")
		if customerID == "" {
			customerID = middleware.CustomerID(ctx)
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			log.Printf("⚠️  [OAuth] callback without code for customer %s", customerID)
			redirectWithError(w, r, msgMissingCode)
			return
		}

		auth, err := tokens.RedeemCode(ctx, customerID, code)
		if err != nil {
			logging.Error(ctx, "OAuth", err, "failed to redeem authorization code for customer "+customerID)
			msg := msgExchangeFailed
			if errors.Is(err, token.ErrInvalidPortalID) {
				msg = token.ErrInvalidPortalID.Error()
			}
			redirectWithError(w, r, msg)
			return
		}

		_, err = setup.SetupRequiredProperties(ctx, schema.Request{
			CustomerID:  customerID,
			PortalID:    auth.HSPortalID,
			AccessToken: auth.AccessToken,
		})
		if err != nil {
			logging.Error(ctx, "Schema", err, "reconciliation after install failed for customer "+customerID)
			redirectWithError(w, r, msgSchemaFailed)
			return
		}

		http.Redirect(w, r, appURL, http.StatusFound)
	}
}

func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?errMessage="+url.QueryEscape(msg), http.StatusFound)
}
