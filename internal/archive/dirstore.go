// Package archive stores raw upstream files in a bucket laid out as a local
// directory tree. Object keys are slash-separated paths such as
// "bronze/storm-events/<name>".
package archive

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

	"github.com/couchcryptid/storm-data-reconciler/internal/domain"
)

// BronzePrefix is the key prefix for untouched upstream bulk files.
const BronzePrefix = "bronze/storm-events/"

// DirStore keeps objects under a root directory and stages working copies
// in a temp directory.
type DirStore struct {
	root    string
	tempDir string
}

// NewDirStore creates the root directory if needed. An empty tempDir uses
// the system default.
func NewDirStore(root, tempDir string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create archive root: %w", err)
	}
	return &DirStore{root: root, tempDir: tempDir}, nil
}

// Key returns the bronze object key for an upstream file name.
func Key(name string) string {
	return BronzePrefix + name
}

// WriteTemp stages data in a new temp file and returns its path.
func (s *DirStore) WriteTemp(data []byte, suffix string) (string, error) {
	f, err := os.CreateTemp(s.tempDir, "stormrecon-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// Upload copies a local file to key, replacing any existing object.
func (s *DirStore) Upload(ctx context.Context, key, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	tmpPath := dest + ".tmp"
	if err := copyFile(localPath, tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// DownloadToLocal copies the object at key into a new temp file and returns
// its path. The caller removes it with DeleteLocal.
func (s *DirStore) DownloadToLocal(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := s.objectPath(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: object %s", domain.ErrNotFound, key)
	}

	f, err := os.CreateTemp(s.tempDir, "stormrecon-*"+path.Ext(key))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	local := f.Name()
	f.Close()

	if err := copyFile(src, local); err != nil {
		os.Remove(local)
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	return local, nil
}

// DeleteLocal removes a staged file. Missing files are not an error.
func (s *DirStore) DeleteLocal(localPath string) error {
	if err := os.Remove(localPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete local file: %w", err)
	}
	return nil
}

// List returns the keys under prefix in lexical order.
func (s *DirStore) List(prefix string) ([]string, error) {
	dir, err := s.objectPath(prefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	return keys, nil
}

func (s *DirStore) objectPath(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" && key != "" {
		return "", fmt.Errorf("%w: object key %q", domain.ErrInvalidInput, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
