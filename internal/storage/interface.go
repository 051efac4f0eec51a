package storage

import (
	"context"
	"time"
)

// Metadata describes an archived document version
type Metadata struct {
	ContentType string            `json:"contentType,omitempty"`
	Source      string            `json:"source,omitempty"` // api, cli, import
	ArchivedBy  string            `json:"archivedBy,omitempty"`
	ArchivedAt  time.Time         `json:"archivedAt,omitempty"`
	Custom      map[string]string `json:"custom,omitempty"`
}

// Storage keeps previous versions of configuration documents.
// Implementations can be local filesystem, S3, etc.
type Storage interface {
	// Put stores content at the given key with optional metadata
	Put(ctx context.Context, key string, content []byte, metadata *Metadata) error

	// Get retrieves content from the given key
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists checks if a file exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes a file at the given key
	Delete(ctx context.Context, key string) error

	// List returns all keys matching the given prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)
}

// StorageType represents the type of storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeNone  StorageType = "none"
)

// VersionKey returns the archive key of a document version, sortable by time.
func VersionKey(document string, at time.Time) string {
	return "config/" + document + "/" + at.UTC().Format("20060102T150405.000000000Z") + ".json"
}
