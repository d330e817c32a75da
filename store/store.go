// Package store provides a simple, goroutine safe key-value interface
// whose values are streams. The engine keeps its persisted state -
// profiles, job settings - behind this interface, so hosts can swap in
// whatever durable storage they like.
//
// Keys are used as file names by the FileSystem store, so they should not
// contain forbidden filesystem characters such as '/'.
package store

import "io"

// Store defines the basic stream based key-value store. Items are
// immutable once stored, but they may be deleted and then replaced with a
// new value.
type Store interface {
	// List returns every key in the store, in no particular order.
	List() ([]string, error)
	// Open returns a reader over the value for key, along with its size.
	Open(key string) (io.ReadCloser, int64, error)
	// Create makes a new entry and returns a writer to fill it. It is an
	// error if the key already exists.
	Create(key string) (io.WriteCloser, error)
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error
}
