package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"incident-backend/internal/shared/util"
)

// ErrNotFound is returned when a URL does not resolve to a stored object.
var ErrNotFound = errors.New("object not found")

// ObjectStore is a URL-addressable blob store. Put returns the public URL of
// the stored object; Delete and Open accept URLs previously returned by Put.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, url string) error
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// MediaKey builds the storage key for an uploaded file:
// <mediaType>/<owner hash>/<unix millis>-<file name>.
func MediaKey(mediaType, ownerID, fileName string, now time.Time) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	owner := util.OwnerSegment(ownerID)
	return strings.Join([]string{
		strings.TrimSpace(mediaType),
		owner,
		strconv.FormatInt(now.UnixMilli(), 10) + "-" + name,
	}, "/"), nil
}

// KeyFromURL strips baseURL from url and returns the remaining key. It
// returns ErrNotFound when url was not issued under baseURL.
func KeyFromURL(baseURL, url string) (string, error) {
	base := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	key := strings.TrimPrefix(url, base)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return key, nil
}
