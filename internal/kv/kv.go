// Package kv is the namespaced key-value persistence used to keep the
// watch-list across restarts.
package kv

import "errors"

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("kv: key not found")

// Store is a namespaced string key-value store.
type Store interface {
	Get(namespace, key string) (string, error)
	Put(namespace, key, value string) error
	Delete(namespace, key string) error
	Close() error
}
