package cache

import "context"

// Store is the persistence port for cached responses.
//
// Load never fails: missing, unreadable or corrupt state yields an empty
// mapping and the failure is only reported to the metadata sink.
// Save reloads the persisted state, merges additions on top (new keys win)
// and writes the merged mapping back.
type Store interface {
	Load(ctx context.Context) Entries
	Save(ctx context.Context, additions Entries) error
}
