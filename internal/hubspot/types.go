package hubspot

// Property is a CRM property definition as returned by /crm/v3/properties.
type Property struct {
	Name                 string                `json:"name"`
	Label                string                `json:"label"`
	Type                 string                `json:"type"`
	FieldType            string                `json:"fieldType"`
	GroupName            string                `json:"groupName"`
	Description          string                `json:"description,omitempty"`
	Options              []Option              `json:"options,omitempty"`
	DisplayOrder         int                   `json:"displayOrder,omitempty"`
	HasUniqueValue       bool                  `json:"hasUniqueValue"`
	Hidden               bool                  `json:"hidden"`
	FormField            bool                  `json:"formField"`
	Calculated           bool                  `json:"calculated,omitempty"`
	Archived             bool                  `json:"archived,omitempty"`
	HubspotDefined       bool                  `json:"hubspotDefined,omitempty"`
	CreatedAt            string                `json:"createdAt,omitempty"`
	UpdatedAt            string                `json:"updatedAt,omitempty"`
	ModificationMetadata *ModificationMetadata `json:"modificationMetadata,omitempty"`
}

// Option is a selectable value of an enumeration property.
type Option struct {
	Label        string `json:"label"`
	Value        string `json:"value"`
	DisplayOrder int    `json:"displayOrder"`
	Hidden       bool   `json:"hidden"`
}

// ModificationMetadata describes what the portal allows to change on a property.
type ModificationMetadata struct {
	Archivable         bool `json:"archivable"`
	ReadOnlyDefinition bool `json:"readOnlyDefinition"`
	ReadOnlyOptions    bool `json:"readOnlyOptions,omitempty"`
	ReadOnlyValue      bool `json:"readOnlyValue"`
}

// PropertyCreate is the request body of POST /crm/v3/properties/{objectType}.
type PropertyCreate struct {
	Name           string `json:"name"`
	Label          string `json:"label"`
	Type           string `json:"type"`
	FieldType      string `json:"fieldType"`
	GroupName      string `json:"groupName"`
	Description    string `json:"description,omitempty"`
	HasUniqueValue bool   `json:"hasUniqueValue,omitempty"`
	DisplayOrder   int    `json:"displayOrder,omitempty"`
}

// PropertyGroup is a named grouping of properties.
type PropertyGroup struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"displayOrder"`
	Archived     bool   `json:"archived,omitempty"`
}

// PropertyGroupCreate is the request body of POST /crm/v3/properties/{objectType}/groups.
type PropertyGroupCreate struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	DisplayOrder int    `json:"displayOrder,omitempty"`
}

// AccountDetails is the subset of /account-info/v3/details this service reads.
// PortalID is kept raw so callers can reject non-numeric values.
type AccountDetails struct {
	PortalID any `json:"portalId"`
}

type collectionResponse[T any] struct {
	Results []T `json:"results"`
}
