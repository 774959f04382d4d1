package reconcile

import (
	"context"
)

// Mapper turns one source listing into the collection's field set.
// Implementations must be pure: the same listing always yields the same fields.
type Mapper[L any] interface {
	// Key returns the listing identity key. It is mirrored into the item's key field.
	Key(listing L) string

	// Map returns the full field set for a listing, including slug and name.
	// An error fails only this listing.
	Map(listing L) (FieldSet, error)
}

// Store is the write side of the target collection.
type Store interface {
	// CreateItem creates a new, live item with a caller-assigned identifier.
	CreateItem(ctx context.Context, fields FieldSet, id string) (Item, error)

	// UpdateItem replaces the mutable fields of an existing item.
	UpdateItem(ctx context.Context, id string, fields FieldSet) (Item, error)

	// DeleteItem removes an item.
	DeleteItem(ctx context.Context, id string) error
}
