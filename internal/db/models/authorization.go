package models

import "time"

// Authorization stores the HubSpot OAuth credentials of one customer.
// Rows are created on the first code exchange and only updated afterwards.
type Authorization struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	CustomerID   string    `gorm:"uniqueIndex;not null" json:"customerId"`
	AccessToken  string    `gorm:"not null" json:"-"`
	RefreshToken string    `gorm:"not null" json:"-"`
	ExpiresIn    int64     `json:"expiresIn"` // seconds
	ExpiresAt    time.Time `json:"expiresAt"`
	HSPortalID   string    `gorm:"column:hs_portal_id" json:"hsPortalId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
