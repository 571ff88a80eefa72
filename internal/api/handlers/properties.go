package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"gorm.io/datatypes"

	"github.com/pysugar/hubspot-property-sync/internal/api/middleware"
	"github.com/pysugar/hubspot-property-sync/internal/auth/oauth"
	"github.com/pysugar/hubspot-property-sync/internal/auth/token"
	"github.com/pysugar/hubspot-property-sync/internal/db/models"
	"github.com/pysugar/hubspot-property-sync/internal/logging"
	"github.com/pysugar/hubspot-property-sync/internal/store"
)

// HubSpotPropertiesHandler returns the customer's contact and company
// properties. A customer who has not installed the app gets the
// authorization URL instead.
func HubSpotPropertiesHandler(source PropertySource, cfg *oauth2.Config, skipCache bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		customerID := middleware.CustomerID(ctx)

		props, err := source.Get(ctx, customerID, skipCache)
		if errors.Is(err, token.ErrNotAuthenticated) {
			writeText(w, http.StatusOK, oauth.AuthorizationURL(cfg, customerID))
			return
		}
		if err != nil {
			logging.Error(ctx, "HubSpot", err, "failed to load properties for customer "+customerID)
			writeText(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		writeJSON(w, http.StatusOK, props)
	}
}

// nativePropertyForm is the payload of the "create property" form.
type nativePropertyForm struct {
	PropertyName         string                       `json:"propertyName"`
	PropertyLabel        string                       `json:"propertyLabel"`
	PropertyType         string                       `json:"propertyType"`
	ObjectType           string                       `json:"objectType"`
	EnforcesUniquness    bool                         `json:"enforcesUniquness"`
	ModificationMetadata *models.ModificationMetadata `json:"modificationMetadata"`
}

func (f nativePropertyForm) property() (models.Property, bool) {
	typ, ok := models.PropertyTypeFromForm(f.PropertyType)
	if !ok {
		return models.Property{}, false
	}
	object, ok := models.ObjectFromHubSpot(f.ObjectType)
	if !ok {
		return models.Property{}, false
	}
	var meta models.ModificationMetadata
	if f.ModificationMetadata != nil {
		meta = *f.ModificationMetadata
	}
	return models.Property{
		Name:                 f.PropertyName,
		Label:                f.PropertyLabel,
		Type:                 typ,
		Object:               object,
		Unique:               f.EnforcesUniquness,
		ModificationMetadata: datatypes.NewJSONType(meta),
	}, true
}

// CreateNativePropertyHandler creates a native property from the form payload.
func CreateNativePropertyHandler(props NativePropertyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var form nativePropertyForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			writeText(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		p, ok := form.property()
		if !ok {
			writeText(w, http.StatusBadRequest, "Invalid property type or object type")
			return
		}

		created, err := props.CreateNativeProperty(ctx, middleware.CustomerID(ctx), p)
		switch {
		case errors.Is(err, store.ErrInvalidProperty):
			writeText(w, http.StatusBadRequest, "Invalid property")
		case errors.Is(err, store.ErrPropertyExists):
			writeText(w, http.StatusConflict, "Property already exists")
		case err != nil:
			logging.Error(ctx, "Properties", err, "failed to create native property")
			writeText(w, http.StatusInternalServerError, "Error creating property")
		default:
			writeJSON(w, http.StatusOK, created)
		}
	}
}

// NativePropertiesHandler lists the customer's native properties.
func NativePropertiesHandler(props NativePropertyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, err := props.GetNativeProperties(ctx, middleware.CustomerID(ctx))
		if err != nil {
			logging.Error(ctx, "Properties", err, "failed to list native properties")
			writeText(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// NativePropertiesWithMappingsHandler lists native properties, each with its mapping or null.
func NativePropertiesWithMappingsHandler(props NativePropertyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, err := props.GetNativePropertiesWithMappings(ctx, middleware.CustomerID(ctx))
		if err != nil {
			logging.Error(ctx, "Properties", err, "failed to list native properties with mappings")
			writeText(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
