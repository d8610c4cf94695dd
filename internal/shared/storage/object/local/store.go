package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"incident-backend/internal/shared/storage/object"
)

// Store implements ObjectStore on the local filesystem. Objects are served
// by the API under baseURL.
type Store struct {
	baseDir string
	baseURL string
}

// New creates a local object store rooted at baseDir whose URLs start with
// baseURL (for example http://localhost:8080/media).
func New(baseDir, baseURL string) *Store {
	return &Store{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Dir returns the directory objects are written to.
func (s *Store) Dir() string {
	return s.baseDir
}

// Put writes r to disk under key and returns its URL.
func (s *Store) Put(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fullPath, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("write body: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return s.baseURL + "/" + filepath.ToSlash(filepath.Clean(key)), nil
}

// Delete removes the object behind url.
func (s *Store) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := object.KeyFromURL(s.baseURL, url)
	if err != nil {
		return err
	}
	fullPath, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", object.ErrNotFound, url)
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Open opens the object behind url for reading.
func (s *Store) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := object.KeyFromURL(s.baseURL, url)
	if err != nil {
		return nil, err
	}
	fullPath, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", object.ErrNotFound, url)
		}
		return nil, err
	}
	return f, nil
}

func (s *Store) pathFor(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.baseDir, clean), nil
}

var _ object.ObjectStore = (*Store)(nil)
