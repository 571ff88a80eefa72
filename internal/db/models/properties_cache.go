package models

import (
	"time"

	"gorm.io/datatypes"
)

// HubSpotPropertiesCache holds the last fetched remote property list of a customer.
// PropertyData is replaced wholesale on every fetch; UpdatedAt alone decides freshness.
type HubSpotPropertiesCache struct {
	CustomerID   string         `gorm:"primaryKey"`
	PropertyData datatypes.JSON `gorm:"not null"`
	UpdatedAt    time.Time
}

// TableName keeps the table name stable regardless of gorm's pluralization.
func (HubSpotPropertiesCache) TableName() string {
	return "hubspot_properties_caches"
}
