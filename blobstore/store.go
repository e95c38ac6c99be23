// Package blobstore stores attachment bytes outside the database.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned for keys that escape the store root.
var ErrInvalidKey = errors.New("blobstore: invalid key")

// Store keeps opaque objects addressed by key and exposed by URL.
type Store interface {
	// Put writes r under key and returns the public URL of the object.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	// Delete removes the object behind url. Missing objects are not an error.
	Delete(ctx context.Context, url string) error
	// List returns the URLs of objects whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Local is a Store on the local filesystem. Objects live under root and are
// served as baseURL + "/" + key by whatever fronts that directory.
type Local struct {
	root    string
	baseURL string
}

// NewLocal creates the root directory if needed and returns a Local store.
func NewLocal(root, baseURL string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("blobstore: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root %s: %w", root, err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes the object atomically: bytes go to a temp file first and are
// renamed into place once fully written.
func (l *Local) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	target, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("blobstore: create dir for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("blobstore: create temp for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("blobstore: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("blobstore: close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("blobstore: store %s: %w", key, err)
	}

	return l.URL(key), nil
}

// Delete removes the object behind url.
func (l *Local) Delete(ctx context.Context, url string) error {
	key, ok := l.KeyFor(url)
	if !ok {
		return fmt.Errorf("%w: url %q is not served by this store", ErrInvalidKey, url)
	}
	target, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("blobstore: delete %s: %w", key, err)
	}
	return nil
}

// List walks the store and returns the URLs under prefix, sorted by key.
func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	var urls []string
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			urls = append(urls, l.URL(key))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("blobstore: list %s: %w", prefix, err)
	}
	return urls, nil
}

// URL returns the public address of key.
func (l *Local) URL(key string) string {
	return l.baseURL + "/" + key
}

// KeyFor maps a URL produced by this store back to its key.
func (l *Local) KeyFor(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, l.baseURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func (l *Local) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || clean != "/"+key {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean[1:])), nil
}

var _ Store = (*Local)(nil)
