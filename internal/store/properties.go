package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/pysugar/hubspot-property-sync/internal/db/models"
)

// Properties stores customer-defined native properties.
type Properties struct {
	db *gorm.DB
}

// NewProperties creates a native property store.
func NewProperties(db *gorm.DB) *Properties {
	return &Properties{db: db}
}

// PropertyWithMapping pairs a native property with its mapping, if any.
type PropertyWithMapping struct {
	Property models.Property `json:"property"`
	Mapping  *models.Mapping `json:"mapping"`
}

// CreateNativeProperty inserts p for customerID and returns the stored row.
func (s *Properties) CreateNativeProperty(ctx context.Context, customerID string, p models.Property) (*models.Property, error) {
	if p.Name == "" || !p.Type.Valid() || !p.Object.Valid() {
		return nil, fmt.Errorf("%w: name=%q type=%q object=%q", ErrInvalidProperty, p.Name, p.Type, p.Object)
	}
	p.ID = 0
	p.CustomerID = customerID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Property{}).
			Where("name = ? AND object = ? AND customer_id = ?", p.Name, p.Object, customerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %s/%s", ErrPropertyExists, p.Object, p.Name)
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		if errors.Is(err, ErrPropertyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create native property: %w", err)
	}
	log.Printf("✅ [Properties] created %s/%s for customer %s", p.Object, p.Name, customerID)
	return &p, nil
}

// GetNativeProperties lists the customer's native properties in creation order.
func (s *Properties) GetNativeProperties(ctx context.Context, customerID string) ([]models.Property, error) {
	var props []models.Property
	if err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("id").
		Find(&props).Error; err != nil {
		return nil, fmt.Errorf("list native properties: %w", err)
	}
	return props, nil
}

// GetNativePropertiesWithMappings lists the customer's native properties,
// each joined with the mapping of the same name and object.
func (s *Properties) GetNativePropertiesWithMappings(ctx context.Context, customerID string) ([]PropertyWithMapping, error) {
	props, err := s.GetNativeProperties(ctx, customerID)
	if err != nil {
		return nil, err
	}
	var mappings []models.Mapping
	if err := s.db.WithContext(ctx).Where("customer_id = ?", customerID).Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}

	byKey := make(map[string]*models.Mapping, len(mappings))
	for i := range mappings {
		byKey[mappingKey(mappings[i].NativeName, mappings[i].Object)] = &mappings[i]
	}
	out := make([]PropertyWithMapping, 0, len(props))
	for _, p := range props {
		out = append(out, PropertyWithMapping{Property: p, Mapping: byKey[mappingKey(p.Name, p.Object)]})
	}
	return out, nil
}

func mappingKey(name string, object models.Object) string {
	return string(object) + "/" + name
}
