// Package store persists native properties and their HubSpot mappings.
// Every read and write is scoped to one customer.
package store

import "errors"

var (
	// ErrInvalidProperty means a native property has a missing name or an unknown type or object.
	ErrInvalidProperty = errors.New("invalid native property")

	// ErrPropertyExists means the customer already has a property with that name on that object.
	ErrPropertyExists = errors.New("native property already exists")

	// ErrInvalidMapping means a mapping has a missing name or an unknown object or direction.
	ErrInvalidMapping = errors.New("invalid mapping")

	// ErrUnknownNativeProperty means a mapping names a native property the customer does not have.
	ErrUnknownNativeProperty = errors.New("mapping references an unknown native property")

	// ErrMappingNotFound means no mapping with that ID exists for the customer.
	ErrMappingNotFound = errors.New("mapping not found")
)
