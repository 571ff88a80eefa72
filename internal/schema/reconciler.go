// Package schema keeps the HubSpot groups and properties this integration
// depends on present in every connected portal.
package schema

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pysugar/hubspot-property-sync/internal/db/models"
	"github.com/pysugar/hubspot-property-sync/internal/hubspot"
	"github.com/pysugar/hubspot-property-sync/internal/logging"
)

// Artifact kinds accepted by CheckForPropertyOrGroup.
const (
	KindGroup    = "group"
	KindProperty = "property"
)

// API is the part of the CRM client the reconciler needs.
type API interface {
	GetPropertyGroup(ctx context.Context, accessToken, objectType, name string) (*hubspot.PropertyGroup, error)
	CreatePropertyGroup(ctx context.Context, accessToken, objectType string, g hubspot.PropertyGroupCreate) (*hubspot.PropertyGroup, error)
	GetProperty(ctx context.Context, accessToken, objectType, name string) (*hubspot.Property, error)
	CreateProperty(ctx context.Context, accessToken, objectType string, p hubspot.PropertyCreate) (*hubspot.Property, error)
}

// Request identifies the portal to reconcile.
type Request struct {
	CustomerID  string
	PortalID    string
	AccessToken string
	// Force reconciles even when the customer already has a completed pass.
	Force bool
}

// Report summarizes one pass. Artifacts are named "objectType/kind/name".
type Report struct {
	Skipped  bool     `json:"skipped"`
	Existing []string `json:"existing"`
	Created  []string `json:"created"`
	Failed   []string `json:"failed"`
}

// Reconciler creates missing artifacts from a Catalog.
type Reconciler struct {
	db      *gorm.DB
	api     API
	catalog *Catalog
	now     func() time.Time
}

// NewReconciler returns a Reconciler; a nil catalog means DefaultCatalog.
func NewReconciler(db *gorm.DB, api API, catalog *Catalog) *Reconciler {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Reconciler{db: db, api: api, catalog: catalog, now: time.Now}
}

// CheckForPropertyOrGroup reports whether the named group or property exists.
// A CRM 404 means false; any other failure is logged and returned.
func (r *Reconciler) CheckForPropertyOrGroup(ctx context.Context, accessToken, objectType, name, kind string) (bool, error) {
	var err error
	switch kind {
	case KindGroup:
		_, err = r.api.GetPropertyGroup(ctx, accessToken, objectType, name)
	case KindProperty:
		_, err = r.api.GetProperty(ctx, accessToken, objectType, name)
	default:
		return false, fmt.Errorf("unknown schema kind %q", kind)
	}
	if err == nil {
		return true, nil
	}
	if hubspot.IsNotFound(err) {
		return false, nil
	}
	logging.Error(ctx, "Schema", err, fmt.Sprintf("failed to check %s %s/%s", kind, objectType, name))
	return false, err
}

// SetupRequiredProperties makes sure every catalog artifact exists for the
// portal. Groups are settled before properties are checked. Each artifact is
// handled independently and all failures are joined into the returned error.
// The customer is marked reconciled only when nothing failed.
func (r *Reconciler) SetupRequiredProperties(ctx context.Context, req Request) (*Report, error) {
	if req.AccessToken == "" {
		return nil, errors.New("schema reconciliation needs an access token")
	}
	report := &Report{}

	if !req.Force {
		done, err := r.reconciled(ctx, req.CustomerID)
		if err != nil {
			return nil, err
		}
		if done {
			report.Skipped = true
			return report, nil
		}
	}

	groups := make([]artifact, len(r.catalog.Groups))
	for i, g := range r.catalog.Groups {
		groups[i] = artifact{
			objectType: g.ObjectType,
			name:       g.Name,
			kind:       KindGroup,
			create: func(ctx context.Context) error {
				_, err := r.api.CreatePropertyGroup(ctx, req.AccessToken, g.ObjectType, g.request())
				return err
			},
		}
	}
	props := make([]artifact, len(r.catalog.Properties))
	for i, p := range r.catalog.Properties {
		props[i] = artifact{
			objectType: p.ObjectType,
			name:       p.Name,
			kind:       KindProperty,
			create: func(ctx context.Context) error {
				_, err := r.api.CreateProperty(ctx, req.AccessToken, p.ObjectType, p.request())
				return err
			},
		}
	}

	var errs []error
	errs = append(errs, r.ensure(ctx, req.AccessToken, groups, report)...)
	errs = append(errs, r.ensure(ctx, req.AccessToken, props, report)...)
	if len(errs) > 0 {
		return report, fmt.Errorf("schema reconciliation for customer %s: %w", req.CustomerID, errors.Join(errs...))
	}

	mark := models.SchemaReconciliation{
		CustomerID:   req.CustomerID,
		HSPortalID:   req.PortalID,
		ReconciledAt: r.now().UTC(),
	}
	// An on-demand pass does not know the portal; keep the one recorded at install.
	updates := []string{"reconciled_at"}
	if req.PortalID != "" {
		updates = append(updates, "hs_portal_id")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&mark).Error
	if err != nil {
		return report, fmt.Errorf("record schema reconciliation: %w", err)
	}
	log.Printf("✅ [Schema] customer %s: %d created, %d already present", req.CustomerID, len(report.Created), len(report.Existing))
	return report, nil
}

func (r *Reconciler) reconciled(ctx context.Context, customerID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SchemaReconciliation{}).
		Where("customer_id = ?", customerID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("load schema reconciliation: %w", err)
	}
	return count > 0, nil
}

type artifact struct {
	objectType string
	name       string
	kind       string
	create     func(ctx context.Context) error
}

func (a artifact) String() string {
	return a.objectType + "/" + a.kind + "/" + a.name
}

type outcome struct {
	created bool
	err     error
}

// ensure checks every artifact in parallel and then creates the missing ones
// in parallel. A failure on one artifact never cancels the others.
func (r *Reconciler) ensure(ctx context.Context, accessToken string, items []artifact, report *Report) []error {
	exists := make([]bool, len(items))
	results := make([]outcome, len(items))

	var checks errgroup.Group
	for i, a := range items {
		checks.Go(func() error {
			ok, err := r.CheckForPropertyOrGroup(ctx, accessToken, a.objectType, a.name, a.kind)
			exists[i] = ok
			results[i].err = err
			return nil
		})
	}
	_ = checks.Wait()

	var creates errgroup.Group
	for i, a := range items {
		if exists[i] || results[i].err != nil {
			continue
		}
		creates.Go(func() error {
			err := a.create(ctx)
			switch {
			case err == nil:
				log.Printf("🔄 [Schema] created %s", a)
				results[i].created = true
			case hubspot.IsConflict(err):
				exists[i] = true
			default:
				logging.Error(ctx, "Schema", err, "failed to create "+a.String())
				results[i].err = err
			}
			return nil
		})
	}
	_ = creates.Wait()

	var errs []error
	for i, a := range items {
		switch {
		case results[i].err != nil:
			report.Failed = append(report.Failed, a.String())
			errs = append(errs, fmt.Errorf("%s: %w", a, results[i].err))
		case results[i].created:
			report.Created = append(report.Created, a.String())
		default:
			report.Existing = append(report.Existing, a.String())
		}
	}
	return errs
}
