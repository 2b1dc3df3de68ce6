// Package storage declares the key-value behavior required by the chain
// repositories. The chain treats the store as providing only per-key
// read/write, never multi-key transactions, so all cross-key sequences are
// serialized above this layer.
package storage

import "errors"

// ErrKeyNotFound is returned from Get when the key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Item represents a single key/value pair returned from a List call.
type Item struct {
	Key   string
	Value []byte
}

// KV interface represents the behavior required to be implemented by any
// package providing support for storing and reading chain data.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error

	// List returns every item whose key starts with the prefix, in
	// ascending key order.
	List(prefix string) ([]Item, error)

	Close() error
}
