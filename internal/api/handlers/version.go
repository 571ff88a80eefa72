package handlers

import (
	"net/http"

	"github.com/pysugar/hubspot-property-sync/internal/version"
)

// VersionHandler serves build metadata.
func VersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, version.Current())
	}
}
