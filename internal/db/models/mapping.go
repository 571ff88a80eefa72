package models

import "gorm.io/datatypes"

// Mapping links a native property to a HubSpot property for one customer.
// The combination of (NativeName, Object, CustomerID) must be unique.
type Mapping struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	NativeName           string         `gorm:"uniqueIndex:idx_mapping_native_object_customer;not null" json:"nativeName"`
	HubspotName          string         `gorm:"not null" json:"hubspotName"`
	HubspotLabel         string         `json:"hubspotLabel"`
	Object               Object         `gorm:"uniqueIndex:idx_mapping_native_object_customer;not null" json:"object"`
	CustomerID           string         `gorm:"uniqueIndex:idx_mapping_native_object_customer;not null;index" json:"customerId"`
	Direction            Direction      `gorm:"not null" json:"direction"`
	ModificationMetadata datatypes.JSON `json:"modificationMetadata"`
}
