package upload

import (
	"errors"         // Sentinel errors
	"fmt"            // Error wrapping
	"io"             // Copying uploads
	"mime/multipart" // Multipart file headers
	"os"             // File system
	"path/filepath"  // Paths
	"strconv"        // Timestamps in names
	"strings"        // Extension handling
	"time"           // Timestamps in names

	"github.com/gabriel-vasile/mimetype" // Content sniffing
	"github.com/google/uuid"             // Random name suffix
	"github.com/sirupsen/logrus"         // Logging library
)

// Upload limits
const (
	DefaultMaxSize = 5 << 20 // 5 MB per file
	MaxFiles       = 5       // Images per product request
)

// Sub-directories of the upload root
const (
	DirProducts   = "products"
	DirCategories = "categories"
	DirTemp       = "temp"
)

// Errors returned by Save
var (
	ErrTooLarge        = errors.New("upload exceeds size limit")
	ErrUnsupportedType = errors.New("upload is not a supported image type")
	ErrTooManyFiles    = errors.New("too many files in upload")
)

var allowedExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

var allowedMIME = map[string]bool{"image/jpeg": true, "image/png": true, "image/gif": true, "image/webp": true}

// Store writes validated image uploads below Root
type Store struct {
	Root    string
	MaxSize int64
}

// NewStore creates the store and its sub-directories
func NewStore(root string, maxSize int64) (*Store, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	for _, dir := range []string{DirProducts, DirCategories, DirTemp} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, err
		}
	}
	return &Store{Root: root, MaxSize: maxSize}, nil
}

// DirFor maps a form field to the directory its files are stored in
func DirFor(field string) string {
	switch field {
	case "product_image", "images":
		return DirProducts
	case "category_image", "image":
		return DirCategories
	default:
		return DirTemp
	}
}

// Save validates fh and writes it as <field>-<unixms>-<random><ext>. It returns the stored file name.
func (s *Store) Save(fh *multipart.FileHeader, field string) (string, error) {
	if fh.Size > s.MaxSize {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", ErrUnsupportedType
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mt, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("sniff upload: %w", err)
	}
	if !allowedMIME[mt.String()] {
		return "", ErrUnsupportedType
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := field + "-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + ext
	path := filepath.Join(s.Root, DirFor(field), name)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	// Copy at most MaxSize+1 bytes so a lying header cannot exceed the limit
	n, err := io.Copy(dst, io.LimitReader(src, s.MaxSize+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.MaxSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return name, nil
}

// SaveAll saves every file of field, removing the ones already written when one fails
func (s *Store) SaveAll(files []*multipart.FileHeader, field string) ([]string, error) {
	if len(files) > MaxFiles {
		return nil, ErrTooManyFiles
	}
	names := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.Save(fh, field)
		if err != nil {
			s.RemoveAll(DirFor(field), names)
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Remove deletes dir/name below Root; a missing file is not an error
func (s *Store) Remove(dir, name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll removes names from dir, logging failures
func (s *Store) RemoveAll(dir string, names []string) {
	for _, name := range names {
		if err := s.Remove(dir, name); err != nil {
			logrus.WithFields(logrus.Fields{"dir": dir, "file": name, "error": err.Error()}).Warn("Failed to remove upload")
		}
	}
}
