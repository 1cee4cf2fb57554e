// package services defines interface Service for reading a remote Emby library
package services

import "context"

// Service is the read-only view of an Emby music library used by the navigator.
type Service interface {
	// MusicRoot returns the id of the user's music library view.
	MusicRoot(ctx context.Context) (string, error)

	// Directory lists the direct children of a folder, album or view.
	Directory(ctx context.Context, id string) (*ItemList, error)

	// ItemsOfType lists every descendant of parentID with the given item type.
	ItemsOfType(ctx context.Context, parentID, itemType string) (*ItemList, error)

	// Item fetches a single item by id.
	Item(ctx context.Context, id string) (*Item, error)

	// Search runs a remote search for term restricted to the item types of field.
	Search(ctx context.Context, field, term string) ([]SearchHint, error)
}
