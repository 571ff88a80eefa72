package models

import "time"

// SchemaReconciliation records that the required HubSpot groups and
// properties were confirmed for a customer's portal.
type SchemaReconciliation struct {
	CustomerID   string `gorm:"primaryKey"`
	HSPortalID   string `gorm:"column:hs_portal_id"`
	ReconciledAt time.Time
}

// All lists every model for auto-migration.
func All() []any {
	return []any{
		&Authorization{},
		&Property{},
		&Mapping{},
		&HubSpotPropertiesCache{},
		&SchemaReconciliation{},
	}
}
