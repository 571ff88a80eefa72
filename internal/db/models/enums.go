package models

// Object is the CRM record type a property belongs to.
type Object string

const (
	ObjectContact Object = "Contact"
	ObjectCompany Object = "Company"
)

// Valid reports whether o is a known object.
func (o Object) Valid() bool {
	return o == ObjectContact || o == ObjectCompany
}

// HubSpotObjectType is the plural path segment the CRM API uses for o.
func (o Object) HubSpotObjectType() string {
	switch o {
	case ObjectContact:
		return "contacts"
	case ObjectCompany:
		return "companies"
	}
	return ""
}

// ObjectFromHubSpot converts a CRM object type ("contacts", "companies") to an Object.
func ObjectFromHubSpot(objectType string) (Object, bool) {
	switch objectType {
	case "contacts":
		return ObjectContact, true
	case "companies":
		return ObjectCompany, true
	}
	return "", false
}

// PropertyType is the value type of a native property.
type PropertyType string

const (
	PropertyTypeString PropertyType = "String"
	PropertyTypeNumber PropertyType = "Number"
	PropertyTypeOption PropertyType = "Option"
)

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	return t == PropertyTypeString || t == PropertyTypeNumber || t == PropertyTypeOption
}

// PropertyTypeFromForm converts the lower-case form value ("string", "number", "option").
func PropertyTypeFromForm(v string) (PropertyType, bool) {
	switch v {
	case "string":
		return PropertyTypeString, true
	case "number":
		return PropertyTypeNumber, true
	case "option":
		return PropertyTypeOption, true
	}
	return "", false
}

// Direction says which way values flow through a mapping.
type Direction string

const (
	DirectionToHubSpot     Direction = "toHubSpot"
	DirectionToNative      Direction = "toNative"
	DirectionBiDirectional Direction = "biDirectional"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionToHubSpot || d == DirectionToNative || d == DirectionBiDirectional
}

// ModificationMetadata describes which parts of a property may be changed.
type ModificationMetadata struct {
	Archivable         bool `json:"archivable"`
	ReadOnlyDefinition bool `json:"readOnlyDefinition"`
	ReadOnlyValue      bool `json:"readOnlyValue"`
}
