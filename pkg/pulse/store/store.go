// Package store persists the small amount of client state that must survive
// process restarts: the anonymous id, cached user id and traits, the last
// seen app version and build, and the opt-out flag.
package store

import (
	"errors"
	"time"
)

// Well-known namespaces and keys used by the pulse client.
const (
	NamespaceIdentity = "identity"
	NamespaceApp      = "app"
	NamespacePrefs    = "prefs"

	KeyAnonymousID = "anonymous_id"
	KeyUserID      = "user_id"
	KeyTraits      = "traits"
	KeyAppInfo     = "info"
	KeyOptOut      = "opt_out"
)

// Store persists values by (namespace, key).
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores data under (namespace, key), overwriting any previous value.
	Save(namespace, key string, data []byte) error

	// Load retrieves a value.
	// Returns ErrNotFound if the value doesn't exist.
	Load(namespace, key string) ([]byte, error)

	// List returns metadata for every value in a namespace, ordered by key.
	// Returns an empty slice (not error) if the namespace is empty.
	List(namespace string) ([]Info, error)

	// Delete removes a value.
	// Returns nil if the value doesn't exist.
	Delete(namespace, key string) error

	// DeleteNamespace removes every value in a namespace.
	DeleteNamespace(namespace string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading the value.
type Info struct {
	Namespace string
	Key       string
	UpdatedAt time.Time
	Size      int64
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a value doesn't exist.
	ErrNotFound = errors.New("value not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("store closed")
)
