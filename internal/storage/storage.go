package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
	cfg "github.com/templui/filesmanager/internal/config"
)

// ErrObjectNotFound is returned when no object exists at a location.
var ErrObjectNotFound = errors.New("object not found")

// Storage defines the interface for content store operations.
// A location is opaque to callers: it comes from Location and is persisted
// verbatim with the node that owns the content.
type Storage interface {
	// Location returns where an object called name is stored
	Location(name string) string

	// Save stores the content at the given location, replacing any previous object
	Save(ctx context.Context, location string, content io.Reader) error

	// Open returns a reader for the object at location
	Open(ctx context.Context, location string) (io.ReadCloser, error)

	// Delete removes the object at location. Missing objects are not an error.
	Delete(ctx context.Context, location string) error
}

// New creates the content store selected by STORAGE_BACKEND.
func New(ctx context.Context, c *cfg.Config) (Storage, error) {
	switch c.StorageBackend {
	case "", "local":
		slog.Info("initializing local storage", "folder", c.FolderPath)
		return NewLocalStorage(afero.NewOsFs(), c.FolderPath), nil
	case "s3":
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(ctx, S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}
}

// ReadAll reads the whole object at location.
func ReadAll(ctx context.Context, s Storage, location string) ([]byte, error) {
	rc, err := s.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
