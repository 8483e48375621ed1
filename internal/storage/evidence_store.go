package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EvidenceStore persists appeal evidence files and resolves pointers
// back to fetchable URLs. Implementations own the storage layout; the
// appeal workflow only keeps the opaque key.
type EvidenceStore interface {
	Store(ctx context.Context, fileName string, data []byte) (string, error)
	ResolveURL(key string) string
}

// DiskEvidenceStore keeps evidence on the local filesystem under a
// configured directory, one file per key.
type DiskEvidenceStore struct {
	dir     string
	baseURL string
}

// NewDiskEvidenceStore creates the directory if needed.
func NewDiskEvidenceStore(dir, baseURL string) (*DiskEvidenceStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}
	return &DiskEvidenceStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Store writes the file under a generated key. The original name is
// kept only as a sanitized suffix so keys stay unique and safe.
func (s *DiskEvidenceStore) Store(ctx context.Context, fileName string, data []byte) (string, error) {
	key := uuid.NewString() + "_" + sanitizeFileName(fileName)
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return "", fmt.Errorf("write evidence file: %w", err)
	}
	return key, nil
}

// ResolveURL maps a stored key to its public URL.
func (s *DiskEvidenceStore) ResolveURL(key string) string {
	return s.baseURL + "/" + key
}

func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		return "file"
	}
	return name
}
