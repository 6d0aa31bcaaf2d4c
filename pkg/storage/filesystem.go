package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps rendered export artifacts on disk under a base
// directory, bucketed by month so cleanup stays cheap.
type LocalStorage struct {
	baseDir string
	clock   func() time.Time
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create exports directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, clock: time.Now}, nil
}

// Save writes an artifact and returns its relative path. Filenames are
// suffixed with a timestamp so two exports of the same entity never
// overwrite each other.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	now := s.clock()
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filepath.Base(filename), ext)
	rel := filepath.Join(now.Format("2006-01"), fmt.Sprintf("%s-%d%s", stem, now.UnixNano(), ext))

	path, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export artifact: %w", err)
	}
	return rel, nil
}

// Open returns a read-only handle for a stored artifact. The relative path
// typically arrives from a signed download token, so it is confined to the
// base directory.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export artifact: %w", err)
	}
	return file, nil
}

// Delete removes a stored artifact if present.
func (s *LocalStorage) Delete(relPath string) error {
	path, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete export artifact: %w", err)
	}
	return nil
}

// CleanupOlderThan removes artifacts older than the TTL and prunes emptied
// month buckets. Returns the relative paths it deleted.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := s.clock().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup exports: %w", err)
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return deleted, nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			// Remove fails on non-empty buckets, which is fine.
			_ = os.Remove(filepath.Join(s.baseDir, entry.Name()))
		}
	}
	return deleted, nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *LocalStorage) Path(relPath string) string {
	path, err := s.resolve(relPath)
	if err != nil {
		return filepath.Join(s.baseDir, relPath)
	}
	return path
}

func (s *LocalStorage) resolve(relPath string) (string, error) {
	path := filepath.Join(s.baseDir, relPath)
	base, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if abs != base && !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", fmt.Errorf("artifact path escapes storage root: %s", relPath)
	}
	return abs, nil
}
