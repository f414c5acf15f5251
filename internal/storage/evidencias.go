package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EvidenciaStore keeps verification evidence files on local disk under
// evidencias/<revisionID>/<uuid>-<name>, served back by URL path.
type EvidenciaStore struct {
	root string
}

// NewEvidenciaStore creates the store rooted at dir
func NewEvidenciaStore(dir string) (*EvidenciaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating evidence dir: %w", err)
	}
	return &EvidenciaStore{root: dir}, nil
}

// Root returns the directory served for evidence downloads
func (s *EvidenciaStore) Root() string {
	return s.root
}

// Save persists one evidence file and returns its URL path. Callers pass
// the returned locators to the verification write; when any save fails the
// whole verification is aborted with nothing persisted on the revision.
func (s *EvidenciaStore) Save(revisionID, filename string, r io.Reader) (string, error) {
	if revisionID == "" {
		return "", fmt.Errorf("revision id is required")
	}
	dir := filepath.Join(s.root, revisionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating revision dir: %w", err)
	}

	name := uuid.NewString() + "-" + sanitize(filename)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("creating evidence file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("writing evidence file: %w", err)
	}

	return path.Join("/evidencias", revisionID, name), nil
}

// Delete removes the blob behind a URL previously returned by Save.
// Callers rewrite the revision's evidence list first; an orphaned blob
// after a failed delete is harmless, a dangling URL is not.
func (s *EvidenciaStore) Delete(url string) error {
	rel, ok := strings.CutPrefix(url, "/evidencias/")
	if !ok {
		return fmt.Errorf("not an evidence url: %q", url)
	}
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("invalid evidence path: %q", url)
	}
	if err := os.Remove(filepath.Join(s.root, rel)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing evidence file: %w", err)
	}
	return nil
}

func sanitize(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "archivo"
	}
	return b.String()
}
