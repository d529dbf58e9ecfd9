// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"github.com/meidesaqua/meidesaqua-api/utils"
)

// FileStorage persists uploaded files under an upload root. Deletes are
// best-effort: a missing file is success, any other failure is reported to
// the caller for logging and must never abort a database transaction.
type FileStorage interface {
	// Stage writes an incoming upload to the staging area and returns its path.
	Stage(src io.Reader, originalFilename string) (string, error)
	// Relocate moves a staged file into uploads/<category>/<name>/ and
	// returns the forward-slash relative path rooted at uploads/.
	Relocate(stagedPath, categoryLabel, nameLabel string) (string, error)
	// DeleteFile removes a file referenced by a relative uploads/ path.
	DeleteFile(url string) error
	// DeleteTree removes the whole uploads/<category>/<name>/ directory.
	DeleteTree(categoryLabel, nameLabel string) error
	// DiscardStaged drops a staged file that will not be relocated.
	DiscardStaged(stagedPath string)
}

// LocalFileStorage implements FileStorage on the local filesystem.
type LocalFileStorage struct {
	root string
}

func NewLocalFileStorage(root string) (*LocalFileStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	for _, dir := range []string{filepath.Join(root, "uploads"), filepath.Join(root, "staging")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return &LocalFileStorage{root: root}, nil
}

func (s *LocalFileStorage) Stage(src io.Reader, originalFilename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	staged := filepath.Join(s.root, "staging", uuid.New().String()+ext)

	out, err := os.Create(staged)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		_ = os.Remove(staged)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	return staged, nil
}

func (s *LocalFileStorage) Relocate(stagedPath, categoryLabel, nameLabel string) (string, error) {
	safeCategory := utils.SanitizeLabel(categoryLabel)
	safeName := utils.SanitizeLabel(nameLabel)

	dir := filepath.Join(s.root, "uploads", safeCategory, safeName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dest := filepath.Join(dir, filepath.Base(stagedPath))
	if err := os.Rename(stagedPath, dest); err != nil {
		return "", fmt.Errorf("failed to relocate file: %w", err)
	}

	return path.Join("uploads", safeCategory, safeName, filepath.Base(dest)), nil
}

// resolve maps a stored relative URL back to a filesystem path, rejecting
// anything that escapes the storage root.
func (s *LocalFileStorage) resolve(url string) (string, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(url), "/")
	cleaned = filepath.Clean(filepath.FromSlash(cleaned))
	if cleaned == "" || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid storage path: %q", url)
	}
	if !strings.HasPrefix(cleaned, "uploads"+string(filepath.Separator)) {
		return "", fmt.Errorf("path outside upload root: %q", url)
	}
	return filepath.Join(s.root, cleaned), nil
}

func (s *LocalFileStorage) DeleteFile(url string) error {
	full, err := s.resolve(url)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", url, err)
	}
	return nil
}

func (s *LocalFileStorage) DeleteTree(categoryLabel, nameLabel string) error {
	safeCategory := utils.SanitizeLabel(categoryLabel)
	safeName := utils.SanitizeLabel(nameLabel)
	dir := filepath.Join(s.root, "uploads", safeCategory, safeName)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete directory %s/%s: %w", safeCategory, safeName, err)
	}
	return nil
}

func (s *LocalFileStorage) DiscardStaged(stagedPath string) {
	if stagedPath == "" {
		return
	}
	_ = os.Remove(stagedPath)
}

// ValidateImage sniffs the stream and reports whether it decodes as a
// supported image format (jpeg, png, gif, webp).
func ValidateImage(r io.Reader) error {
	if _, _, err := image.DecodeConfig(r); err != nil {
		return fmt.Errorf("unsupported or corrupt image: %w", err)
	}
	return nil
}
