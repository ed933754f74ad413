// Package cachestrategy defines how the in-memory analysis cache chooses
// entries to keep.
package cachestrategy

// Strategy holds cached table bytes keyed by store key.
type Strategy interface {
	// Get returns the bytes cached under key and marks them as used.
	Get(key string) ([]byte, bool)
	// Add caches value, reporting whether another entry was evicted.
	Add(key string, value []byte) bool
	// Remove drops key, reporting whether it was present.
	Remove(key string) bool
	// Len returns the number of cached entries.
	Len() int
}
