package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned (wrapped) when an object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage defines object storage operations. Paths are slash-separated keys
// relative to the backend root.
type Storage interface {
	// Upload writes data from reader to the given path.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download returns a reader for the object. The caller closes it.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// URL returns a direct URL for the object.
	URL(ctx context.Context, path string) (string, error)

	// List returns metadata for all objects whose path starts with prefix,
	// sorted by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// Object is a seekable handle on a stored object, suitable for
// http.ServeContent.
type Object interface {
	io.ReadSeekCloser
	Info() FileInfo
}

// Opener is implemented by backends that can serve random access reads.
type Opener interface {
	Open(ctx context.Context, path string) (Object, error)
}

// SignedURLProvider is implemented by backends that can issue time-limited
// URLs for private objects.
type SignedURLProvider interface {
	SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}
