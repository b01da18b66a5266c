package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
)

// ErrNotFound is returned by Open when no object exists at the key.
var ErrNotFound = errors.New("object not found")

// Store saves and retrieves binary objects by key. Keys use forward slashes.
type Store interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// PageKey is the key of a rendered page image: {ownerKey}/{analysisID}/page-{n}.png.
func PageKey(ownerKey string, analysisID int64, page int) string {
	return path.Join(ownerKey, fmt.Sprint(analysisID), fmt.Sprintf("page-%d.png", page))
}
