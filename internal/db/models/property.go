package models

import "gorm.io/datatypes"

// Property is a customer-defined native property, unique per (name, object, customerId).
type Property struct {
	ID                   uint                                     `gorm:"primaryKey" json:"-"`
	Name                 string                                   `gorm:"uniqueIndex:idx_property_name_object_customer;not null" json:"name"`
	Label                string                                   `json:"label"`
	Type                 PropertyType                             `gorm:"not null;default:'String'" json:"type"`
	Object               Object                                   `gorm:"uniqueIndex:idx_property_name_object_customer;not null" json:"object"`
	CustomerID           string                                   `gorm:"uniqueIndex:idx_property_name_object_customer;not null;index" json:"customerId"`
	Unique               bool                                     `gorm:"column:is_unique;default:false" json:"unique"`
	ModificationMetadata datatypes.JSONType[ModificationMetadata] `json:"modificationMetadata"`
}
