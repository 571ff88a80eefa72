// Package properties serves the portal's remote property list, cached per
// customer in the database.
package properties

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pysugar/hubspot-property-sync/internal/auth/token"
	"github.com/pysugar/hubspot-property-sync/internal/db/models"
	"github.com/pysugar/hubspot-property-sync/internal/hubspot"
	"github.com/pysugar/hubspot-property-sync/internal/logging"
)

// TTL is how long a fetched property list is served without refetching.
const TTL = 5 * time.Minute

// IsExpired reports whether a list fetched at updatedAt is stale at now.
// Exactly TTL old is still fresh.
func IsExpired(updatedAt, now time.Time) bool {
	return now.Sub(updatedAt) > TTL
}

// RemoteProperties is the cached payload and the API response body.
type RemoteProperties struct {
	ContactProperties []hubspot.Property `json:"contactProperties"`
	CompanyProperties []hubspot.Property `json:"companyProperties"`
}

// Lister reads all properties of one CRM object type.
type Lister interface {
	GetAllProperties(ctx context.Context, accessToken, objectType string) ([]hubspot.Property, error)
}

// Cache fronts the CRM property list with a per-customer row.
type Cache struct {
	db     *gorm.DB
	tokens token.Provider
	api    Lister
	now    func() time.Time
}

// NewCache creates a Cache.
func NewCache(db *gorm.DB, tokens token.Provider, api Lister) *Cache {
	return &Cache{db: db, tokens: tokens, api: api, now: time.Now}
}

// Get returns the customer's contact and company properties. A fresh cached
// copy is returned as stored unless skipCache is set; otherwise both lists
// are fetched and the row is replaced. token.ErrNotAuthenticated is returned
// unwrapped so callers can send the customer to the install flow.
func (c *Cache) Get(ctx context.Context, customerID string, skipCache bool) (*RemoteProperties, error) {
	accessToken, err := c.tokens.GetAccessToken(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if !skipCache {
		cached, err := c.load(ctx, customerID)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
	}

	fresh, err := c.fetch(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if err := c.save(ctx, customerID, fresh); err != nil {
		return nil, err
	}
	log.Printf("🔄 [Cache] refreshed properties for customer %s (%d contact, %d company)",
		customerID, len(fresh.ContactProperties), len(fresh.CompanyProperties))
	return fresh, nil
}

// load returns the cached lists, or nil when the row is missing or stale.
func (c *Cache) load(ctx context.Context, customerID string) (*RemoteProperties, error) {
	var row models.HubSpotPropertiesCache
	err := c.db.WithContext(ctx).First(&row, "customer_id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load property cache: %w", err)
	}
	if IsExpired(row.UpdatedAt, c.now()) {
		return nil, nil
	}

	var out RemoteProperties
	if err := json.Unmarshal(row.PropertyData, &out); err != nil {
		logging.Warn(ctx, "Cache", err, "discarding unreadable cache row for customer "+customerID)
		return nil, nil
	}
	return &out, nil
}

func (c *Cache) fetch(ctx context.Context, accessToken string) (*RemoteProperties, error) {
	var out RemoteProperties
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		props, err := c.api.GetAllProperties(gctx, accessToken, models.ObjectContact.HubSpotObjectType())
		if err != nil {
			return fmt.Errorf("fetch contact properties: %w", err)
		}
		out.ContactProperties = props
		return nil
	})
	g.Go(func() error {
		props, err := c.api.GetAllProperties(gctx, accessToken, models.ObjectCompany.HubSpotObjectType())
		if err != nil {
			return fmt.Errorf("fetch company properties: %w", err)
		}
		out.CompanyProperties = props
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.ContactProperties == nil {
		out.ContactProperties = []hubspot.Property{}
	}
	if out.CompanyProperties == nil {
		out.CompanyProperties = []hubspot.Property{}
	}
	return &out, nil
}

func (c *Cache) save(ctx context.Context, customerID string, props *RemoteProperties) error {
	blob, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode property cache: %w", err)
	}
	row := models.HubSpotPropertiesCache{
		CustomerID:   customerID,
		PropertyData: datatypes.JSON(blob),
		UpdatedAt:    c.now(),
	}
	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"property_data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save property cache: %w", err)
	}
	return nil
}
