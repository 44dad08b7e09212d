package media

import "context"

// Store persists recipe photos outside the database. Keys are logical
// (owner-scoped) names; the returned reference is what gets stored on the
// recipe row and handed to the chat transport for re-sending.
type Store interface {
	// Store writes the blob under key and returns a public reference.
	Store(ctx context.Context, key string, data []byte) (string, error)
	// Delete removes the blob; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Rename moves a blob to a new key and returns the new reference.
	Rename(ctx context.Context, oldKey, newKey string) (string, error)
}

// Key builds the canonical media key for a recipe photo.
func Key(ownerID int64, recipeName string) string {
	return keyPath(ownerID, recipeName)
}
