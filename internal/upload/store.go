package upload

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path prefix under which stored files are served.
const PublicPrefix = "/uploads/"

// ErrUnsupportedType is returned when the uploaded file's extension is not an
// allowed image type.
var ErrUnsupportedType = errors.New("unsupported image type")

// allowedExts maps lowercased image extensions we accept to true.
var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store saves uploaded task images under a single directory. Names are random
// UUIDs plus the original extension, so client-supplied filenames never reach
// the filesystem and cannot collide or traverse paths.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a Store for it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory files are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes src to a new file and returns its public path ("/uploads/<name>").
// originalName is only consulted for the extension, which must be in the
// image allowlist.
func (s *Store) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExts[ext] {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		// Partial file is useless; remove it.
		os.Remove(dst.Name())
		return "", err
	}

	return PublicPrefix + name, nil
}

// Remove deletes the file behind a public path. A path outside PublicPrefix is ignored.
func (s *Store) Remove(publicPath string) error {
	name, ok := strings.CutPrefix(publicPath, PublicPrefix)
	if !ok || name == "" || strings.Contains(name, "/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
