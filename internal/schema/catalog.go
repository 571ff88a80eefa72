package schema

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"github.com/pysugar/hubspot-property-sync/internal/hubspot"
	"gopkg.in/yaml.v3"
)

//go:embed required_schema.yaml
var defaultCatalogYAML []byte

var nameRegexp = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Catalog lists the HubSpot artifacts the reconciler guarantees.
type Catalog struct {
	Groups     []GroupSpec    `yaml:"groups"`
	Properties []PropertySpec `yaml:"properties"`
}

// GroupSpec is a required property group.
type GroupSpec struct {
	ObjectType   string `yaml:"object_type"`
	Name         string `yaml:"name"`
	Label        string `yaml:"label"`
	DisplayOrder int    `yaml:"display_order"`
}

// PropertySpec is a required property.
type PropertySpec struct {
	ObjectType  string `yaml:"object_type"`
	Name        string `yaml:"name"`
	Label       string `yaml:"label"`
	Type        string `yaml:"type"`
	FieldType   string `yaml:"field_type"`
	GroupName   string `yaml:"group_name"`
	Description string `yaml:"description"`
	Unique      bool   `yaml:"unique"`
}

func (g GroupSpec) request() hubspot.PropertyGroupCreate {
	return hubspot.PropertyGroupCreate{Name: g.Name, Label: g.Label, DisplayOrder: g.DisplayOrder}
}

func (p PropertySpec) request() hubspot.PropertyCreate {
	return hubspot.PropertyCreate{
		Name:           p.Name,
		Label:          p.Label,
		Type:           p.Type,
		FieldType:      p.FieldType,
		GroupName:      p.GroupName,
		Description:    p.Description,
		HasUniqueValue: p.Unique,
	}
}

// DefaultCatalog returns the built-in catalog: one integration group per
// object plus the required and identifier properties.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded required_schema.yaml is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from path, or returns DefaultCatalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse schema catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	groups := make(map[string]bool, len(c.Groups))
	for i, g := range c.Groups {
		if !validObjectType(g.ObjectType) {
			return fmt.Errorf("groups[%d]: unsupported object_type %q", i, g.ObjectType)
		}
		if !nameRegexp.MatchString(g.Name) || g.Label == "" {
			return fmt.Errorf("groups[%d]: name must be snake_case and label non-empty", i)
		}
		key := g.ObjectType + "/" + g.Name
		if groups[key] {
			return fmt.Errorf("groups[%d]: duplicate group %s", i, key)
		}
		groups[key] = true
	}

	seen := make(map[string]bool, len(c.Properties))
	for i, p := range c.Properties {
		if !validObjectType(p.ObjectType) {
			return fmt.Errorf("properties[%d]: unsupported object_type %q", i, p.ObjectType)
		}
		if !nameRegexp.MatchString(p.Name) || p.Label == "" || p.Type == "" || p.FieldType == "" {
			return fmt.Errorf("properties[%d]: name, label, type and field_type are required", i)
		}
		if p.GroupName == "" {
			return fmt.Errorf("properties[%d]: group_name is required", i)
		}
		key := p.ObjectType + "/" + p.Name
		if seen[key] {
			return fmt.Errorf("properties[%d]: duplicate property %s", i, key)
		}
		seen[key] = true
	}
	return nil
}

func validObjectType(objectType string) bool {
	return objectType == "contacts" || objectType == "companies"
}
