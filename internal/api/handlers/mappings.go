package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pysugar/hubspot-property-sync/internal/api/middleware"
	"github.com/pysugar/hubspot-property-sync/internal/db/models"
	"github.com/pysugar/hubspot-property-sync/internal/logging"
	"github.com/pysugar/hubspot-property-sync/internal/store"
)

// SaveMappingHandler creates or updates a mapping.
func SaveMappingHandler(mappings MappingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var m models.Mapping
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			writeText(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		saved, err := mappings.SaveMapping(ctx, middleware.CustomerID(ctx), m)
		switch {
		case errors.Is(err, store.ErrInvalidMapping):
			writeText(w, http.StatusBadRequest, "Invalid mapping")
		case errors.Is(err, store.ErrUnknownNativeProperty):
			writeText(w, http.StatusBadRequest, "Unknown native property")
		case err != nil:
			logging.Error(ctx, "Mappings", err, "failed to save mapping")
			writeText(w, http.StatusInternalServerError, "Error saving mapping")
		default:
			writeJSON(w, http.StatusOK, saved)
		}
	}
}

// DeleteMappingHandler deletes one of the customer's mappings by numeric ID
// and returns the deleted row.
func DeleteMappingHandler(mappings MappingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := strconv.ParseUint(chi.URLParam(r, "mappingId"), 10, 32)
		if err != nil || id == 0 {
			writeText(w, http.StatusBadRequest, "Invalid mapping Id format")
			return
		}

		deleted, err := mappings.DeleteMapping(ctx, middleware.CustomerID(ctx), uint(id))
		if errors.Is(err, store.ErrMappingNotFound) {
			writeText(w, http.StatusNotFound, "Mapping not found")
			return
		}
		if err != nil {
			logging.Error(ctx, "Mappings", err, "failed to delete mapping")
			writeText(w, http.StatusInternalServerError, "Error deleting mapping")
			return
		}
		writeJSON(w, http.StatusOK, deleted)
	}
}

type mappedProperty struct {
	Name   string        `json:"name"`
	Label  string        `json:"label"`
	Object models.Object `json:"object"`
}

type mappingSummary struct {
	ID         uint           `json:"id"`
	NativeName string         `json:"nativeName"`
	Property   mappedProperty `json:"property"`
}

// MappingsHandler lists the customer's mappings as
// {id, nativeName, property: {name, label, object}}, where property is the
// HubSpot side.
func MappingsHandler(mappings MappingStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		list, err := mappings.GetMappings(ctx, middleware.CustomerID(ctx))
		if err != nil {
			logging.Error(ctx, "Mappings", err, "failed to list mappings")
			writeText(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		out := make([]mappingSummary, 0, len(list))
		for _, m := range list {
			out = append(out, mappingSummary{
				ID:         m.ID,
				NativeName: m.NativeName,
				Property:   mappedProperty{Name: m.HubspotName, Label: m.HubspotLabel, Object: m.Object},
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
