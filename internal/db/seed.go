package db

import (
	"context"
	"fmt"
	"log"

	"github.com/pysugar/hubspot-property-sync/internal/db/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedCustomerID owns the demo native properties.
const SeedCustomerID = "1"

var editable = models.ModificationMetadata{Archivable: true}

// seedProperties are the demo native properties a fresh install starts with.
var seedProperties = []models.Property{
	{Name: "firstname", Label: "First Name", Type: models.PropertyTypeString, Object: models.ObjectContact, ModificationMetadata: datatypes.NewJSONType(editable)},
	{Name: "lastname", Label: "Last Name", Type: models.PropertyTypeString, Object: models.ObjectContact, ModificationMetadata: datatypes.NewJSONType(editable)},
	{Name: "example_custom", Label: "Example Custom Property", Type: models.PropertyTypeString, Object: models.ObjectContact, ModificationMetadata: datatypes.NewJSONType(editable)},
	{Name: "example_required", Label: "Example Required Property", Type: models.PropertyTypeString, Object: models.ObjectContact,
		ModificationMetadata: datatypes.NewJSONType(models.ModificationMetadata{Archivable: true, ReadOnlyValue: true})},
	{Name: "native_system_contact_identifier", Label: "Native System Contact Identifier", Type: models.PropertyTypeString, Object: models.ObjectContact, Unique: true},
	{Name: "native_system_company_identifier", Label: "Native System Company Identifier", Type: models.PropertyTypeString, Object: models.ObjectCompany, Unique: true},
	{Name: "example_custom_company", Label: "Example Custom Property", Type: models.PropertyTypeString, Object: models.ObjectCompany, ModificationMetadata: datatypes.NewJSONType(editable)},
	{Name: "company_name", Label: "Name", Type: models.PropertyTypeString, Object: models.ObjectCompany, ModificationMetadata: datatypes.NewJSONType(editable)},
	{Name: "industry", Label: "Industry", Type: models.PropertyTypeString, Object: models.ObjectCompany, ModificationMetadata: datatypes.NewJSONType(editable)},
	{Name: "num_employees", Label: "Number of Employees", Type: models.PropertyTypeNumber, Object: models.ObjectCompany, ModificationMetadata: datatypes.NewJSONType(editable)},
}

// Seed inserts the demo native properties for SeedCustomerID.
// Existing rows are left untouched, so running it repeatedly is safe.
func Seed(ctx context.Context, db *gorm.DB) error {
	inserted := 0
	for _, p := range seedProperties {
		p.CustomerID = SeedCustomerID
		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&p)
		if res.Error != nil {
			return fmt.Errorf("seed property %s/%s: %w", p.Object, p.Name, res.Error)
		}
		inserted += int(res.RowsAffected)
	}
	log.Printf("✅ Seeded native properties for customer %s (%d new)", SeedCustomerID, inserted)
	return nil
}
