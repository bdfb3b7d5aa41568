package assets

import (
	"context"
	"io"
	"strings"
)

// Store abstracts the remote image host so handlers and tests do not depend
// on cloudinary directly.
type Store interface {
	Upload(ctx context.Context, r io.Reader, folder string) (string, error)
	Delete(ctx context.Context, publicID string) error
}

// IsDefaultAvatar reports whether the avatar is the stock placeholder that
// must never be deleted from the image host.
func IsDefaultAvatar(url string) bool {
	return url == "" || strings.Contains(url, "flaticon.com")
}

// PublicIDFromURL derives the asset public id from a delivery URL: the last
// two path segments (folder/name) with the file extension stripped.
func PublicIDFromURL(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		return ""
	}
	id := strings.Join(parts[len(parts)-2:], "/")
	if dot := strings.LastIndex(id, "."); dot > strings.LastIndex(id, "/") {
		id = id[:dot]
	}
	return id
}
