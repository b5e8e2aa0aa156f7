// Package storage keeps employee pictures in S3-compatible object storage.
// The database only stores the object key.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PictureStore saves, removes and links to picture objects.
type PictureStore interface {
	// Put stores body under a fresh key derived from fileName and returns it.
	Put(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes the object; removing a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns a temporary download link for key.
	URL(ctx context.Context, key string) (string, error)
}

var now = time.Now

// NewPictureKey builds pictures/<yyyy>/<mm>/<dd>/<uuid><ext>, keeping the
// lower-cased extension of fileName.
func NewPictureKey(fileName string) string {
	d := now()
	ext := strings.ToLower(path.Ext(fileName))
	if len(ext) > 8 || strings.ContainsAny(ext, "/\\ ") {
		ext = ""
	}
	return fmt.Sprintf("pictures/%04d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
