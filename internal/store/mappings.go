package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pysugar/hubspot-property-sync/internal/db/models"
)

// Mappings stores native-to-HubSpot property mappings.
type Mappings struct {
	db *gorm.DB
}

// NewMappings creates a mapping store.
func NewMappings(db *gorm.DB) *Mappings {
	return &Mappings{db: db}
}

// SaveMapping creates or updates the customer's mapping for
// (NativeName, Object). On update only the HubSpot name, label and
// direction change. The native property must exist for the customer.
func (s *Mappings) SaveMapping(ctx context.Context, customerID string, m models.Mapping) (*models.Mapping, error) {
	if m.NativeName == "" || m.HubspotName == "" || !m.Object.Valid() || !m.Direction.Valid() {
		return nil, fmt.Errorf("%w: nativeName=%q hubspotName=%q object=%q direction=%q",
			ErrInvalidMapping, m.NativeName, m.HubspotName, m.Object, m.Direction)
	}
	m.ID = 0
	m.CustomerID = customerID
	if len(m.ModificationMetadata) == 0 || string(m.ModificationMetadata) == "null" {
		m.ModificationMetadata = datatypes.JSON("{}")
	}

	var saved models.Mapping
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Property{}).
			Where("name = ? AND object = ? AND customer_id = ?", m.NativeName, m.Object, customerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s/%s", ErrUnknownNativeProperty, m.Object, m.NativeName)
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "native_name"}, {Name: "object"}, {Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"hubspot_label", "hubspot_name", "direction"}),
		}).Create(&m).Error; err != nil {
			return err
		}
		return tx.Where("native_name = ? AND object = ? AND customer_id = ?", m.NativeName, m.Object, customerID).
			First(&saved).Error
	})
	if err != nil {
		if errors.Is(err, ErrUnknownNativeProperty) {
			return nil, err
		}
		return nil, fmt.Errorf("save mapping: %w", err)
	}
	log.Printf("✅ [Mappings] saved %s/%s -> %s for customer %s", saved.Object, saved.NativeName, saved.HubspotName, customerID)
	return &saved, nil
}

// DeleteMapping removes the customer's mapping with the given ID and returns it.
// IDs belonging to other customers are reported as ErrMappingNotFound.
func (s *Mappings) DeleteMapping(ctx context.Context, customerID string, id uint) (*models.Mapping, error) {
	var deleted models.Mapping
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND customer_id = ?", id, customerID).First(&deleted).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Mapping{}, deleted.ID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrMappingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("delete mapping: %w", err)
	}
	log.Printf("🗑️ [Mappings] deleted mapping %d (%s/%s) for customer %s", deleted.ID, deleted.Object, deleted.NativeName, customerID)
	return &deleted, nil
}

// GetMappings lists the customer's mappings in creation order.
func (s *Mappings) GetMappings(ctx context.Context, customerID string) ([]models.Mapping, error) {
	var mappings []models.Mapping
	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id").
		Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return mappings, nil
}
