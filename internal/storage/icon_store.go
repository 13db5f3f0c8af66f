package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/google/uuid"
)

// ErrInvalidIcon is returned for uploads that break the icon rules.
var ErrInvalidIcon = errors.New("invalid icon")

var allowedIconExts = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// IconStore saves uploaded restaurant icons to disk under a base directory.
type IconStore struct {
	basePath string
	maxSize  int64
	now      func() time.Time
}

// NewIconStore creates the base directory if missing.
func NewIconStore(basePath string, maxSize int64) (*IconStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("icon directory is required")
	}
	if maxSize <= 0 {
		return nil, fmt.Errorf("icon size limit must be positive")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create icon dir: %w", err)
	}
	return &IconStore{basePath: basePath, maxSize: maxSize, now: time.Now}, nil
}

// Dir is the directory icons are served from.
func (s *IconStore) Dir() string {
	return s.basePath
}

// Validate checks the extension and declared size of an upload without
// touching the disk. A nil header is valid: the icon is optional.
func (s *IconStore) Validate(fh *multipart.FileHeader) error {
	if fh == nil {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !isAllowedExt(ext) {
		return fmt.Errorf("%w: only image files are allowed (%s)", ErrInvalidIcon, strings.Join(allowedIconExts, ", "))
	}
	if fh.Size > s.maxSize {
		return fmt.Errorf("%w: file is larger than %s", ErrInvalidIcon, units.BytesSize(float64(s.maxSize)))
	}
	return nil
}

// Save validates and writes the upload, returning the stored file name.
func (s *IconStore) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", fmt.Errorf("%w: no file", ErrInvalidIcon)
	}
	if err := s.Validate(fh); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := s.newName(filepath.Ext(fh.Filename))
	target := filepath.Join(s.basePath, name)

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	// the declared size can lie, so cap what is actually copied
	written, err := io.Copy(out, io.LimitReader(src, s.maxSize+1))
	closeErr := out.Close()
	switch {
	case err != nil:
		os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	case closeErr != nil:
		os.Remove(target)
		return "", fmt.Errorf("write file: %w", closeErr)
	case written > s.maxSize:
		os.Remove(target)
		return "", fmt.Errorf("%w: file is larger than %s", ErrInvalidIcon, units.BytesSize(float64(s.maxSize)))
	}
	return name, nil
}

// Remove deletes a stored icon. A missing file is not an error.
func (s *IconStore) Remove(name string) error {
	name = safeFilename(name)
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.basePath, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove icon: %w", err)
	}
	return nil
}

func (s *IconStore) newName(ext string) string {
	return fmt.Sprintf("icon-%d-%s%s", s.now().UnixMilli(), uuid.NewString()[:8], ext)
}

func isAllowedExt(ext string) bool {
	for _, allowed := range allowedIconExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// safeFilename keeps Remove inside the base directory.
func safeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = filepath.Base(name)
	if name == "." || name == ".." || name == string(os.PathSeparator) {
		return ""
	}
	return name
}
