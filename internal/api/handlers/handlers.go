// Package handlers implements the HTTP API of the property sync service.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pysugar/hubspot-property-sync/internal/db/models"
	"github.com/pysugar/hubspot-property-sync/internal/properties"
	"github.com/pysugar/hubspot-property-sync/internal/schema"
	"github.com/pysugar/hubspot-property-sync/internal/store"
)

// CodeRedeemer exchanges an OAuth authorization code for stored credentials.
type CodeRedeemer interface {
	RedeemCode(ctx context.Context, customerID, code string) (*models.Authorization, error)
}

// SchemaSetup ensures the required HubSpot groups and properties exist.
type SchemaSetup interface {
	SetupRequiredProperties(ctx context.Context, req schema.Request) (*schema.Report, error)
}

// PropertySource returns the customer's HubSpot properties.
type PropertySource interface {
	Get(ctx context.Context, customerID string, skipCache bool) (*properties.RemoteProperties, error)
}

// NativePropertyStore is the native property persistence used by the API.
type NativePropertyStore interface {
	CreateNativeProperty(ctx context.Context, customerID string, p models.Property) (*models.Property, error)
	GetNativeProperties(ctx context.Context, customerID string) ([]models.Property, error)
	GetNativePropertiesWithMappings(ctx context.Context, customerID string) ([]store.PropertyWithMapping, error)
}

// MappingStore is the mapping persistence used by the API.
type MappingStore interface {
	SaveMapping(ctx context.Context, customerID string, m models.Mapping) (*models.Mapping, error)
	DeleteMapping(ctx context.Context, customerID string, id uint) (*models.Mapping, error)
	GetMappings(ctx context.Context, customerID string) ([]models.Mapping, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
