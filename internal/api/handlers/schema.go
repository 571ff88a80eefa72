package handlers

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/pysugar/hubspot-property-sync/internal/api/middleware"
	"github.com/pysugar/hubspot-property-sync/internal/auth/oauth"
	"github.com/pysugar/hubspot-property-sync/internal/auth/token"
	"github.com/pysugar/hubspot-property-sync/internal/logging"
	"github.com/pysugar/hubspot-property-sync/internal/schema"
)

// ReconcileSchemaHandler re-runs schema reconciliation for the customer even
// if a previous pass completed, and returns the report. Partial failures
// answer 502 with the report so the caller sees which artifacts are missing.
func ReconcileSchemaHandler(tokens token.Provider, setup SchemaSetup, cfg *oauth2.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID := middleware.CustomerID(ctx)

		accessToken, err := tokens.GetAccessToken(ctx, customerID)
		if errors.Is(err, token.ErrNotAuthenticated) {
			writeText(w, http.StatusOK, oauth.AuthorizationURL(cfg, customerID))
			return
		}
		if err != nil {
			logging.Error(ctx, "OAuth", err, "failed to get access token for customer "+customerID)
			writeText(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		report, err := setup.SetupRequiredProperties(ctx, schema.Request{
			CustomerID:  customerID,
			AccessToken: accessToken,
			Force:       true,
		})
		if err != nil {
			logging.Error(ctx, "Schema", err, "on-demand reconciliation failed for customer "+customerID)
			if report == nil {
				writeText(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			writeJSON(w, http.StatusBadGateway, report)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
